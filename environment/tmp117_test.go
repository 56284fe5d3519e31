package environment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bml303/i2c-sensors"
)

// expectTMP117Init registers the construction sequence on the mock: device
// id probe, soft reset and the default configuration write (continuous
// conversions, 1s cycle, 8-sample averaging).
func expectTMP117Init(bus *MockI2CBus, idWord []byte) {
	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegDeviceID, mock.Anything).
		Return(idWord, nil).Once()
	bus.On("WriteToAddr", mock.Anything, TMP117AddrDefault, []byte{tmp117RegConfig, 0x00, 0x02}).
		Return(nil).Once()
	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegConfig, mock.Anything).
		Return([]byte{0x02, 0x20}, nil).Once()
	bus.On("WriteToAddr", mock.Anything, TMP117AddrDefault, []byte{tmp117RegConfig, 0x02, 0x20}).
		Return(nil).Once()
}

func newTestTMP117(t *testing.T, bus *MockI2CBus) *TMP117 {
	t.Helper()
	expectTMP117Init(bus, []byte{0x01, 0x17})
	sensor, err := NewTMP117(context.Background(), bus)
	assert.NoError(t, err)
	return sensor
}

func TestTMP117_GetTemperature(t *testing.T) {
	tests := []struct {
		word   []byte
		expect float64
	}{
		{[]byte{0x01, 0x90}, 3.125},
		{[]byte{0xFF, 0x38}, -1.5625},
		{[]byte{0x00, 0x00}, 0.0},
		{[]byte{0x00, 0x01}, 0.0078125},
		{[]byte{0x7F, 0xFF}, 255.9921875},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%02x%02x", tt.word[0], tt.word[1]), func(t *testing.T) {
			bus := new(MockI2CBus)
			sensor := newTestTMP117(t, bus)

			bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegTemperature, mock.Anything).
				Return(tt.word, nil).Once()

			temperature, err := sensor.GetTemperature(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, tt.expect, temperature)

			bus.AssertExpectations(t)
		})
	}
}

func TestTMP117_IsDataReady(t *testing.T) {
	bus := new(MockI2CBus)
	sensor := newTestTMP117(t, bus)
	ctx := context.Background()

	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegConfig, mock.Anything).
		Return([]byte{0x22, 0x20}, nil).Once()
	ready, err := sensor.IsDataReady(ctx)
	assert.NoError(t, err)
	assert.True(t, ready)

	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegConfig, mock.Anything).
		Return([]byte{0x02, 0x20}, nil).Once()
	ready, err = sensor.IsDataReady(ctx)
	assert.NoError(t, err)
	assert.False(t, ready)

	bus.AssertExpectations(t)
}

func TestTMP117_TemperatureOffset(t *testing.T) {
	bus := new(MockI2CBus)
	sensor := newTestTMP117(t, bus)
	ctx := context.Background()

	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegTempOffset, mock.Anything).
		Return([]byte{0x00, 0x80}, nil).Once()
	offset, err := sensor.GetTemperatureOffset(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, offset)

	bus.On("WriteToAddr", mock.Anything, TMP117AddrDefault, []byte{tmp117RegTempOffset, 0xFF, 0x38}).
		Return(nil).Once()
	assert.NoError(t, sensor.SetTemperatureOffset(ctx, -1.5625))

	bus.On("WriteToAddr", mock.Anything, TMP117AddrDefault, []byte{tmp117RegTempOffset, 0x00, 0x80}).
		Return(nil).Once()
	assert.NoError(t, sensor.SetTemperatureOffset(ctx, 1.0))

	bus.AssertExpectations(t)
}

func TestTMP117_Revision(t *testing.T) {
	bus := new(MockI2CBus)
	expectTMP117Init(bus, []byte{0x11, 0x17})

	sensor, err := NewTMP117(context.Background(), bus)
	assert.NoError(t, err)
	assert.Equal(t, uint8(1), sensor.Revision())
	assert.Equal(t, uint16(0x117), sensor.PartID())

	bus.AssertExpectations(t)
}

func TestTMP117_UnexpectedPartID(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()

	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegDeviceID, mock.Anything).
		Return([]byte{0x02, 0x00}, nil).Once()

	sensor, err := NewTMP117(ctx, bus)
	assert.Nil(t, sensor)
	var partIDErr *sensors.UnexpectedPartIDError
	assert.ErrorAs(t, err, &partIDErr)
	assert.Equal(t, uint32(0x200), partIDErr.Got)
	assert.Equal(t, uint32(0x117), partIDErr.Want)

	bus.AssertExpectations(t)
}

func TestTMP117_AltAddress(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()

	busErr := errors.New("i2c read failed")
	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrAlt2, tmp117RegDeviceID, mock.Anything).
		Return(nil, busErr).Once()

	_, err := NewTMP117(ctx, bus, WithTMP117Address(TMP117AddrAlt2))
	var wrapped *sensors.BusError
	assert.ErrorAs(t, err, &wrapped)
	assert.Equal(t, TMP117AddrAlt2, wrapped.Addr)
	assert.ErrorIs(t, err, busErr)

	bus.AssertExpectations(t)
}

func TestTMP117_SetSensorMode(t *testing.T) {
	bus := new(MockI2CBus)
	sensor := newTestTMP117(t, bus)
	ctx := context.Background()

	// one-shot with no averaging, alert bits preserved
	bus.On("ReadRegFromAddr", mock.Anything, TMP117AddrDefault, tmp117RegConfig, mock.Anything).
		Return([]byte{0x02, 0x23}, nil).Once()
	bus.On("WriteToAddr", mock.Anything, TMP117AddrDefault, []byte{tmp117RegConfig, 0x0C, 0x03}).
		Return(nil).Once()

	err := sensor.SetSensorMode(ctx, TMP117ModeOneShot, TMP117CycleShortest, TMP117AveragingNone)
	assert.NoError(t, err)

	bus.AssertExpectations(t)
}
