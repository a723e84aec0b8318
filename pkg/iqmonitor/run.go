// Package iqmonitor собирает odrive-iq из частей: конфиг → драйвер → настройка оси → цикл телеметрии.
package iqmonitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shiwa/odrive-iq/internal/config"
	"github.com/shiwa/odrive-iq/internal/discovery"
	"github.com/shiwa/odrive-iq/internal/logger"
	"github.com/shiwa/odrive-iq/internal/monitor"
	"github.com/shiwa/odrive-iq/internal/odrive"
)

// Runner — один проход odrive-iq: найти устройство, настроить, печатать Iq
type Runner struct {
	Finder   monitor.Finder
	Out      io.Writer
	Interval time.Duration
	Verify   bool
}

// NewDriver строит драйвер ODrive из конфига
func NewDriver(cfg *config.Config) (*odrive.Driver, error) {
	ids, err := cfg.USBIDs()
	if err != nil {
		return nil, err
	}
	return &odrive.Driver{
		Port:        cfg.Device.Port,
		Baud:        cfg.Device.Baud,
		ReadTimeout: config.ParseDuration(cfg.Device.ReadTimeout, time.Second),
		Checksum:    cfg.Device.Checksum,
		Axis:        cfg.Axis,
		Scanner: &discovery.Scanner{
			IDs:          ids,
			SerialNumber: cfg.Device.SerialNumber,
			Interval:     config.ParseDuration(cfg.Discovery.Interval, discovery.DefaultInterval),
			Timeout:      config.ParseDuration(cfg.Discovery.Timeout, 0),
		},
	}, nil
}

// New создаёт Runner с реальным драйвером; телеметрия пишется в out
func New(cfg *config.Config, out io.Writer) (*Runner, error) {
	drv, err := NewDriver(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Finder:   drv,
		Out:      out,
		Interval: ParseInterval(cfg.Monitor.Interval),
		Verify:   cfg.Monitor.Verify,
	}, nil
}

// Run выполняется, пока устройство отвечает. Любая ошибка завершает работу;
// хэндл устройства не освобождается и принадлежит процессу до выхода.
func (r *Runner) Run(ctx context.Context) error {
	logger.Info("поиск ODrive...")
	dev, err := monitor.AcquireDevice(ctx, r.Finder)
	if err != nil {
		return fmt.Errorf("find odrive: %w", err)
	}
	if d, ok := dev.(*odrive.ASCIIDevice); ok {
		logger.Info("ODrive найден, ось %d", d.Axis())
	}

	if err := monitor.Configure(dev); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	if r.Verify {
		if err := monitor.Verify(dev); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
	}
	logger.Info("режим %s, состояние %s, уставка 0 A; интервал опроса %v",
		odrive.CtrlModeCurrentControl, odrive.AxisStateClosedLoopControl, r.Interval)

	return monitor.RunTelemetryLoop(ctx, dev, r.Out, r.Interval)
}

// ParseInterval разбирает monitor.interval; пусто или ошибка — 0 (без паузы)
func ParseInterval(s string) time.Duration {
	return config.ParseDuration(s, 0)
}
