package odrive

import (
	"fmt"
	"strings"
)

// ControlMode — режим контроллера оси (controller.config.control_mode)
type ControlMode int

const (
	CtrlModeVoltageControl ControlMode = iota
	CtrlModeCurrentControl
	CtrlModeVelocityControl
	CtrlModePositionControl
	CtrlModeTrajectoryControl
)

func (m ControlMode) String() string {
	switch m {
	case CtrlModeVoltageControl:
		return "voltage_control"
	case CtrlModeCurrentControl:
		return "current_control"
	case CtrlModeVelocityControl:
		return "velocity_control"
	case CtrlModePositionControl:
		return "position_control"
	case CtrlModeTrajectoryControl:
		return "trajectory_control"
	default:
		return fmt.Sprintf("control_mode(%d)", int(m))
	}
}

// Valid сообщает, известен ли режим прошивке
func (m ControlMode) Valid() bool {
	return m >= CtrlModeVoltageControl && m <= CtrlModeTrajectoryControl
}

// AxisState — состояние оси. Порядок значений совпадает с прошивкой, менять нельзя.
type AxisState int

const (
	AxisStateUndefined AxisState = iota
	AxisStateIdle
	AxisStateStartupSequence
	AxisStateFullCalibrationSequence
	AxisStateMotorCalibration
	AxisStateSensorlessControl
	AxisStateEncoderIndexSearch
	AxisStateEncoderOffsetCalibration
	AxisStateClosedLoopControl
)

var axisStateNames = [...]string{
	"undefined",
	"idle",
	"startup_sequence",
	"full_calibration_sequence",
	"motor_calibration",
	"sensorless_control",
	"encoder_index_search",
	"encoder_offset_calibration",
	"closed_loop_control",
}

func (s AxisState) String() string {
	if s.Valid() {
		return axisStateNames[s]
	}
	return fmt.Sprintf("axis_state(%d)", int(s))
}

// Valid сообщает, известно ли состояние прошивке
func (s AxisState) Valid() bool {
	return s >= AxisStateUndefined && s <= AxisStateClosedLoopControl
}

// AxisError — битовая маска ошибок оси (axis.error)
type AxisError uint32

const (
	AxisErrorNone                      AxisError = 0x00
	AxisErrorInvalidState              AxisError = 0x01
	AxisErrorDCBusUnderVoltage         AxisError = 0x02
	AxisErrorDCBusOverVoltage          AxisError = 0x04
	AxisErrorCurrentMeasurementTimeout AxisError = 0x08
	AxisErrorBrakeResistorDisarmed     AxisError = 0x10
	AxisErrorMotorDisarmed             AxisError = 0x20
	AxisErrorMotorFailed               AxisError = 0x40 // подробности в motor.error
	AxisErrorSensorlessEstimatorFailed AxisError = 0x80
	AxisErrorEncoderFailed             AxisError = 0x100 // подробности в encoder.error
	AxisErrorControllerFailed          AxisError = 0x200
	AxisErrorPosCtrlDuringSensorless   AxisError = 0x400
)

var axisErrorNames = []struct {
	bit  AxisError
	name string
}{
	{AxisErrorInvalidState, "invalid_state"},
	{AxisErrorDCBusUnderVoltage, "dc_bus_under_voltage"},
	{AxisErrorDCBusOverVoltage, "dc_bus_over_voltage"},
	{AxisErrorCurrentMeasurementTimeout, "current_measurement_timeout"},
	{AxisErrorBrakeResistorDisarmed, "brake_resistor_disarmed"},
	{AxisErrorMotorDisarmed, "motor_disarmed"},
	{AxisErrorMotorFailed, "motor_failed"},
	{AxisErrorSensorlessEstimatorFailed, "sensorless_estimator_failed"},
	{AxisErrorEncoderFailed, "encoder_failed"},
	{AxisErrorControllerFailed, "controller_failed"},
	{AxisErrorPosCtrlDuringSensorless, "pos_ctrl_during_sensorless"},
}

// Flags возвращает имена установленных битов; неизвестные биты — в hex
func (e AxisError) Flags() []string {
	var out []string
	rest := e
	for _, n := range axisErrorNames {
		if e&n.bit != 0 {
			out = append(out, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		out = append(out, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return out
}

func (e AxisError) Error() string {
	if e == AxisErrorNone {
		return "axis error: none"
	}
	return "axis error: " + strings.Join(e.Flags(), "|")
}
