// Package monitor — поиск ODrive, перевод оси в токовое управление и бесконечный вывод измеренного тока Iq.
//
// Все ошибки устройства возвращаются вызывающему без повторов: поиск, настройка и чтение
// телеметрии либо проходят, либо завершают работу.
package monitor

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shiwa/odrive-iq/internal/odrive"
)

// Finder — функция поиска драйвера (реализуется *odrive.Driver)
type Finder interface {
	FindAny(ctx context.Context) (odrive.Device, error)
}

// AcquireDevice возвращает хэндл, найденный f, без изменений.
// Ошибки поиска (в том числе odrive.ErrDeviceNotFound) пробрасываются как есть.
func AcquireDevice(ctx context.Context, f Finder) (odrive.Device, error) {
	dev, err := f.FindAny(ctx)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, odrive.ErrDeviceNotFound
	}
	return dev, nil
}

// CurrentControl — токовое управление в замкнутом контуре с нулевой уставкой
func CurrentControl() odrive.ControlConfig {
	return odrive.ControlConfig{
		Mode:            odrive.CtrlModeCurrentControl,
		State:           odrive.AxisStateClosedLoopControl,
		CurrentSetpoint: 0,
	}
}

// Configure переводит ось в CurrentControl()
func Configure(dev odrive.Device) error {
	return Apply(dev, CurrentControl())
}

// Apply записывает режим, затем запрошенное состояние, затем уставку; останавливается на первой ошибке.
func Apply(dev odrive.Device, c odrive.ControlConfig) error {
	if err := dev.SetControlMode(c.Mode); err != nil {
		return fmt.Errorf("set control mode %s: %w", c.Mode, err)
	}
	if err := dev.SetRequestedState(c.State); err != nil {
		return fmt.Errorf("request state %s: %w", c.State, err)
	}
	if err := dev.SetCurrentSetpoint(c.CurrentSetpoint); err != nil {
		return fmt.Errorf("set current setpoint %v: %w", c.CurrentSetpoint, err)
	}
	return nil
}

// Verify читает слово ошибок оси. Отказ перехода состояния (например invalid_state)
// прошивка выставляет в axis.error, а не в ответ на запись.
func Verify(dev odrive.Device) error {
	ae, err := dev.AxisError()
	if err != nil {
		return fmt.Errorf("read axis error: %w", err)
	}
	if ae != odrive.AxisErrorNone {
		return ae
	}
	return nil
}

// Step читает Iq один раз и пишет в w строку с инвертированным знаком
func Step(dev odrive.Device, w io.Writer) error {
	iq, err := dev.IqMeasured()
	if err != nil {
		return fmt.Errorf("read Iq: %w", err)
	}
	if _, err := io.WriteString(w, FormatValue(-iq)+"\n"); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}
	return nil
}

// RunTelemetryLoop выполняет Step бесконечно с паузой interval (0 — без паузы).
// Возвращает первую ошибку чтения или записи либо ctx.Err() при отмене контекста.
func RunTelemetryLoop(ctx context.Context, dev odrive.Device, w io.Writer, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Step(dev, w); err != nil {
			return err
		}
		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
}

// FormatValue печатает число в кратчайшем точном виде; у целых сохраняется ".0" (2.0, -0.0).
// Экспоненциальная запись — только для |v| < 1e-4 и |v| >= 1e16.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
