// Package odrive — модель контроллера ODrive: режимы, состояния оси, хэндл устройства и его поиск.
package odrive

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shiwa/odrive-iq/internal/ascii"
)

// ErrDeviceNotFound — ни одного совместимого устройства не найдено
var ErrDeviceNotFound = errors.New("odrive: device not found")

// Device — эксклюзивный хэндл одной оси подключённого ODrive.
// Хэндл используется из одного потока управления.
type Device interface {
	SetControlMode(m ControlMode) error
	SetRequestedState(s AxisState) error
	SetCurrentSetpoint(amps float64) error
	// IqMeasured возвращает измеренный ток Iq, А
	IqMeasured() (float64, error)
	AxisError() (AxisError, error)
	Close() error
}

// ControlConfig — конфигурация управления, применяемая к оси один раз
type ControlConfig struct {
	Mode            ControlMode
	State           AxisState
	CurrentSetpoint float64
}

// PropertyConn — доступ к дереву свойств устройства (реализуется *ascii.Port)
type PropertyConn interface {
	ReadFloat(property string) (float64, error)
	ReadInt(property string) (int64, error)
	Write(property, value string) error
	Close() error
}

// Пути свойств относительно оси
const (
	propControlMode     = "controller.config.control_mode"
	propRequestedState  = "requested_state"
	propCurrentSetpoint = "controller.current_setpoint"
	propIqMeasured      = "motor.current_control.Iq_measured"
	propAxisError       = "error"
)

// AxisCount — число осей на плате ODrive v3
const AxisCount = 2

// ASCIIDevice — Device поверх ASCII протокола
type ASCIIDevice struct {
	conn PropertyConn
	axis int
}

// NewASCIIDevice создаёт хэндл оси axis (0 или 1)
func NewASCIIDevice(conn PropertyConn, axis int) (*ASCIIDevice, error) {
	if axis < 0 || axis >= AxisCount {
		return nil, fmt.Errorf("odrive: axis %d out of range [0,%d)", axis, AxisCount)
	}
	return &ASCIIDevice{conn: conn, axis: axis}, nil
}

// Axis возвращает номер оси
func (d *ASCIIDevice) Axis() int {
	return d.axis
}

func (d *ASCIIDevice) path(prop string) string {
	return fmt.Sprintf("axis%d.%s", d.axis, prop)
}

// SetControlMode записывает controller.config.control_mode
func (d *ASCIIDevice) SetControlMode(m ControlMode) error {
	if !m.Valid() {
		return fmt.Errorf("odrive: unknown %s", m)
	}
	return d.conn.Write(d.path(propControlMode), strconv.Itoa(int(m)))
}

// SetRequestedState запрашивает переход оси в состояние s
func (d *ASCIIDevice) SetRequestedState(s AxisState) error {
	if !s.Valid() {
		return fmt.Errorf("odrive: unknown %s", s)
	}
	return d.conn.Write(d.path(propRequestedState), strconv.Itoa(int(s)))
}

// SetCurrentSetpoint задаёт уставку тока, А
func (d *ASCIIDevice) SetCurrentSetpoint(amps float64) error {
	return d.conn.Write(d.path(propCurrentSetpoint), ascii.FormatFloat(amps))
}

// IqMeasured читает motor.current_control.Iq_measured
func (d *ASCIIDevice) IqMeasured() (float64, error) {
	return d.conn.ReadFloat(d.path(propIqMeasured))
}

// AxisError читает axis.error
func (d *ASCIIDevice) AxisError() (AxisError, error) {
	v, err := d.conn.ReadInt(d.path(propAxisError))
	if err != nil {
		return AxisErrorNone, err
	}
	if v < 0 || v > math.MaxUint32 {
		return AxisErrorNone, fmt.Errorf("parse %s=%d: out of uint32 range", d.path(propAxisError), v)
	}
	return AxisError(v), nil
}

// Close закрывает соединение с устройством
func (d *ASCIIDevice) Close() error {
	return d.conn.Close()
}
