package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shiwa/odrive-iq/internal/discovery"
	"gopkg.in/yaml.v3"
)

// Config — конфигурация odrive-iq. Все поля необязательны: без файла используется Default().
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Axis      int             `yaml:"axis"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// DeviceConfig — последовательный порт ODrive (ASCII протокол)
type DeviceConfig struct {
	Port         string `yaml:"port"` // пусто = поиск по USB
	Baud         int    `yaml:"baud"`
	ReadTimeout  string `yaml:"read_timeout"`
	Checksum     bool   `yaml:"checksum"`
	SerialNumber string `yaml:"serial_number"`
}

// DiscoveryConfig — поиск устройства среди USB портов
type DiscoveryConfig struct {
	USBIDs   []string `yaml:"usb_ids"` // "vid:pid" в hex
	Interval string   `yaml:"interval"`
	Timeout  string   `yaml:"timeout"` // пусто = ждать бесконечно
}

// MonitorConfig — цикл телеметрии
type MonitorConfig struct {
	Interval string `yaml:"interval"` // пауза между чтениями Iq; пусто = без паузы
	Verify   bool   `yaml:"verify"`   // проверить axis.error после настройки
}

// Default возвращает конфиг по умолчанию
func Default() *Config {
	ids := make([]string, 0, len(discovery.DefaultIDs))
	for _, id := range discovery.DefaultIDs {
		ids = append(ids, id.String())
	}
	return &Config{
		Device: DeviceConfig{
			Baud:        115200,
			ReadTimeout: "1s",
		},
		Discovery: DiscoveryConfig{
			USBIDs:   ids,
			Interval: "500ms",
		},
	}
}

// Load читает конфиг из YAML
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate проверяет значения, которые иначе всплыли бы только при работе с устройством
func (c *Config) Validate() error {
	if c.Axis < 0 || c.Axis > 1 {
		return fmt.Errorf("axis: %d, want 0 or 1", c.Axis)
	}
	if c.Device.Baud <= 0 {
		return fmt.Errorf("device.baud: %d", c.Device.Baud)
	}
	if _, err := c.USBIDs(); err != nil {
		return fmt.Errorf("discovery.usb_ids: %w", err)
	}
	for name, s := range map[string]string{
		"device.read_timeout": c.Device.ReadTimeout,
		"discovery.interval":  c.Discovery.Interval,
		"discovery.timeout":   c.Discovery.Timeout,
		"monitor.interval":    c.Monitor.Interval,
	} {
		if s == "" {
			continue
		}
		if d, err := time.ParseDuration(s); err != nil || d < 0 {
			return fmt.Errorf("%s: invalid duration %q", name, s)
		}
	}
	return nil
}

// USBIDs разбирает discovery.usb_ids
func (c *Config) USBIDs() ([]discovery.USBID, error) {
	ids := make([]discovery.USBID, 0, len(c.Discovery.USBIDs))
	for _, s := range c.Discovery.USBIDs {
		id, err := discovery.ParseUSBID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseDuration разбирает строку длительности; пусто или ошибка — defaultVal
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Device.Baud == 0 {
		c.Device.Baud = d.Device.Baud
	}
	if c.Device.ReadTimeout == "" {
		c.Device.ReadTimeout = d.Device.ReadTimeout
	}
	if len(c.Discovery.USBIDs) == 0 {
		c.Discovery.USBIDs = d.Discovery.USBIDs
	}
	if c.Discovery.Interval == "" {
		c.Discovery.Interval = d.Discovery.Interval
	}
}
