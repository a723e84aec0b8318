package monitor

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiwa/odrive-iq/internal/odrive"
)

var errDisconnected = errors.New("device disconnected")

// fakeDevice запоминает записанную конфигурацию и отдаёт Iq из очереди samples
type fakeDevice struct {
	mode     odrive.ControlMode
	state    odrive.AxisState
	setpoint float64
	writes   []string

	samples   []float64
	reads     int
	axisError odrive.AxisError
	failOn    string
}

func newFakeDevice(samples ...float64) *fakeDevice {
	return &fakeDevice{mode: -1, state: odrive.AxisStateIdle, setpoint: math.NaN(), samples: samples}
}

func (d *fakeDevice) SetControlMode(m odrive.ControlMode) error {
	if d.failOn == "mode" {
		return errors.New("invalid value")
	}
	d.writes = append(d.writes, "mode")
	d.mode = m
	return nil
}

func (d *fakeDevice) SetRequestedState(s odrive.AxisState) error {
	if d.failOn == "state" {
		return errors.New("invalid value")
	}
	d.writes = append(d.writes, "state")
	d.state = s
	return nil
}

func (d *fakeDevice) SetCurrentSetpoint(a float64) error {
	d.writes = append(d.writes, "setpoint")
	d.setpoint = a
	return nil
}

func (d *fakeDevice) IqMeasured() (float64, error) {
	if d.reads >= len(d.samples) {
		return 0, errDisconnected
	}
	v := d.samples[d.reads]
	d.reads++
	return v, nil
}

func (d *fakeDevice) AxisError() (odrive.AxisError, error) { return d.axisError, nil }
func (d *fakeDevice) Close() error                         { return nil }

// fakeFinder отдаёт заранее заданный хэндл или ошибку
type fakeFinder struct {
	dev   odrive.Device
	err   error
	calls int
}

func (f *fakeFinder) FindAny(context.Context) (odrive.Device, error) {
	f.calls++
	return f.dev, f.err
}

func TestAcquireDevice_ReturnsSameHandle(t *testing.T) {
	dev := newFakeDevice()
	f := &fakeFinder{dev: dev}

	got, err := AcquireDevice(context.Background(), f)
	require.NoError(t, err)
	assert.Same(t, dev, got)
	assert.Equal(t, 1, f.calls)
}

func TestAcquireDevice_NotFound(t *testing.T) {
	dev := newFakeDevice(1.0)
	f := &fakeFinder{err: odrive.ErrDeviceNotFound}
	var out bytes.Buffer

	run := func() error {
		d, err := AcquireDevice(context.Background(), f)
		if err != nil {
			return err
		}
		if err := Configure(d); err != nil {
			return err
		}
		return RunTelemetryLoop(context.Background(), d, &out, 0)
	}

	err := run()
	assert.ErrorIs(t, err, odrive.ErrDeviceNotFound)
	assert.Empty(t, dev.writes, "configure must not run")
	assert.Zero(t, dev.reads, "telemetry loop must not run")
	assert.Empty(t, out.String())
}

func TestAcquireDevice_NilHandle(t *testing.T) {
	_, err := AcquireDevice(context.Background(), &fakeFinder{})
	assert.ErrorIs(t, err, odrive.ErrDeviceNotFound)
}

func TestConfigure(t *testing.T) {
	dev := newFakeDevice()
	require.NoError(t, Configure(dev))

	assert.Equal(t, odrive.CtrlModeCurrentControl, dev.mode)
	assert.Equal(t, odrive.AxisStateClosedLoopControl, dev.state)
	assert.Equal(t, 0.0, dev.setpoint)
	assert.Equal(t, []string{"mode", "state", "setpoint"}, dev.writes)
}

func TestConfigure_StopsOnFirstFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failOn = "state"

	err := Configure(dev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request state closed_loop_control")
	assert.Equal(t, []string{"mode"}, dev.writes)
}

func TestVerify(t *testing.T) {
	dev := newFakeDevice()
	assert.NoError(t, Verify(dev))

	dev.axisError = odrive.AxisErrorInvalidState
	err := Verify(dev)
	var ae odrive.AxisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, odrive.AxisErrorInvalidState, ae)
}

func TestStep_InvertsSign(t *testing.T) {
	tests := []struct {
		iq   float64
		want string
	}{
		{3.5, "-3.5\n"},
		{-2.0, "2.0\n"},
		{0, "-0.0\n"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		require.NoError(t, Step(newFakeDevice(tt.iq), &out))
		assert.Equal(t, tt.want, out.String())
	}
}

func TestRunTelemetryLoop_EmitsUntilDisconnect(t *testing.T) {
	dev := newFakeDevice(1.0, 2.0, 3.0)
	var out bytes.Buffer

	err := RunTelemetryLoop(context.Background(), dev, &out, 0)
	assert.ErrorIs(t, err, errDisconnected)
	assert.Equal(t, "-1.0\n-2.0\n-3.0\n", out.String())
	assert.Equal(t, 3, dev.reads)
}

func TestRunTelemetryLoop_Interval(t *testing.T) {
	dev := newFakeDevice(1.0, 2.0)
	var out bytes.Buffer

	start := time.Now()
	err := RunTelemetryLoop(context.Background(), dev, &out, 5*time.Millisecond)
	assert.ErrorIs(t, err, errDisconnected)
	assert.Equal(t, "-1.0\n-2.0\n", out.String())
	assert.True(t, time.Since(start) >= 10*time.Millisecond, "elapsed %v", time.Since(start))
}

func TestRunTelemetryLoop_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dev := newFakeDevice(1.0)
	var out bytes.Buffer

	err := RunTelemetryLoop(ctx, dev, &out, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, dev.reads)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestRunTelemetryLoop_WriteError(t *testing.T) {
	err := RunTelemetryLoop(context.Background(), newFakeDevice(1.0, 2.0), brokenWriter{}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write telemetry")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{-3.5, "-3.5"},
		{2, "2.0"},
		{math.Copysign(0, -1), "-0.0"},
		{0.1, "0.1"},
		{12345678, "12345678.0"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in), "FormatValue(%v)", tt.in)
	}
}
