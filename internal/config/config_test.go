package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shiwa/odrive-iq/internal/discovery"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "odrive-iq.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, "axis: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Axis != 1 {
		t.Errorf("axis = %d", c.Axis)
	}
	if c.Device.Baud != 115200 || c.Device.ReadTimeout != "1s" {
		t.Errorf("device defaults not applied: %+v", c.Device)
	}
	if c.Discovery.Interval != "500ms" || len(c.Discovery.USBIDs) != len(discovery.DefaultIDs) {
		t.Errorf("discovery defaults not applied: %+v", c.Discovery)
	}
	if c.Monitor.Interval != "" {
		t.Errorf("monitor.interval должен оставаться пустым (без паузы), got %q", c.Monitor.Interval)
	}
}

func TestLoad_Full(t *testing.T) {
	c, err := Load(writeConfig(t, `
device:
  port: /dev/ttyACM0
  baud: 921600
  read_timeout: 250ms
  checksum: true
discovery:
  usb_ids: ["1209:0D32"]
  timeout: 10s
monitor:
  interval: 100ms
  verify: true
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Device.Port != "/dev/ttyACM0" || c.Device.Baud != 921600 || !c.Device.Checksum {
		t.Errorf("device: %+v", c.Device)
	}
	ids, err := c.USBIDs()
	if err != nil || len(ids) != 1 || ids[0].PID != "0d32" {
		t.Errorf("usb ids: %v, %v", ids, err)
	}
	if ParseDuration(c.Monitor.Interval, 0) != 100*time.Millisecond || !c.Monitor.Verify {
		t.Errorf("monitor: %+v", c.Monitor)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"axis", "axis: 2\n"},
		{"usb id", "discovery:\n  usb_ids: [\"1209\"]\n"},
		{"duration", "monitor:\n  interval: fast\n"},
		{"negative duration", "discovery:\n  timeout: -1s\n"},
		{"yaml", "device: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"250ms", 250 * time.Millisecond},
		{"invalid", time.Second},
	}
	for _, tt := range tests {
		if got := ParseDuration(tt.in, time.Second); got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default() must be valid: %v", err)
	}
}
