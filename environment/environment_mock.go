package environment

import (
	"context"
)

// TemperatureBehaviorFunc defines the function signature for temperature behavior.
// It returns the temperature in Celsius or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float64, error)

// PressureBehaviorFunc defines the function signature for pressure behavior.
// It returns the pressure in Pa or an error.
type PressureBehaviorFunc func(ctx context.Context) (float64, error)

// HumidityBehaviorFunc defines the function signature for humidity behavior.
// It returns the relative humidity in %RH or an error.
type HumidityBehaviorFunc func(ctx context.Context) (float64, error)

// MockEnvironmentSensor is a mock implementation of a combined
// temperature/pressure/humidity sensor that uses behavior functions to
// produce results without requiring any hardware. It can stand in for a
// BME280 in application code.
type MockEnvironmentSensor struct {
	tempBehavior     TemperatureBehaviorFunc
	pressureBehavior PressureBehaviorFunc
	humBehavior      HumidityBehaviorFunc
}

// NewMockEnvironmentSensor creates a new mock environment sensor with the
// given behavior functions. Each accessor calls only its own behavior;
// GetReadings calls all three.
//
// Example usage:
//
//	// Simple static values
//	sensor := NewMockEnvironmentSensor(
//		func(ctx context.Context) (float64, error) { return 22.5, nil },
//		func(ctx context.Context) (float64, error) { return 101325.0, nil },
//		func(ctx context.Context) (float64, error) { return 45.0, nil },
//	)
func NewMockEnvironmentSensor(tempBehavior TemperatureBehaviorFunc, pressureBehavior PressureBehaviorFunc, humBehavior HumidityBehaviorFunc) *MockEnvironmentSensor {
	return &MockEnvironmentSensor{
		tempBehavior:     tempBehavior,
		pressureBehavior: pressureBehavior,
		humBehavior:      humBehavior,
	}
}

// GetTemperature returns the temperature by calling the temperature behavior function.
func (m *MockEnvironmentSensor) GetTemperature(ctx context.Context) (float64, error) {
	return m.tempBehavior(ctx)
}

// GetPressure returns the pressure by calling the pressure behavior function.
func (m *MockEnvironmentSensor) GetPressure(ctx context.Context) (float64, error) {
	return m.pressureBehavior(ctx)
}

// GetHumidity returns the humidity by calling the humidity behavior function.
func (m *MockEnvironmentSensor) GetHumidity(ctx context.Context) (float64, error) {
	return m.humBehavior(ctx)
}

// GetReadings returns one sample of all three channels by calling all three
// behavior functions. The first error stops the sequence.
func (m *MockEnvironmentSensor) GetReadings(ctx context.Context) (BME280Readings, error) {
	temperature, err := m.tempBehavior(ctx)
	if err != nil {
		return BME280Readings{}, err
	}
	pressure, err := m.pressureBehavior(ctx)
	if err != nil {
		return BME280Readings{}, err
	}
	humidity, err := m.humBehavior(ctx)
	if err != nil {
		return BME280Readings{}, err
	}
	return BME280Readings{Temperature: temperature, Pressure: pressure, Humidity: humidity}, nil
}

// MockTemperatureSensor is a mock implementation of a temperature-only
// sensor. It can stand in for a TMP117 in application code; the programmable
// offset is stored in memory and added to every reading, mirroring what the
// real chip does in hardware.
type MockTemperatureSensor struct {
	behavior TemperatureBehaviorFunc
	offset   float64
}

// NewMockTemperatureSensor creates a new mock temperature sensor with the
// given behavior function. The behavior function is called whenever
// GetTemperature is invoked.
func NewMockTemperatureSensor(behavior TemperatureBehaviorFunc) *MockTemperatureSensor {
	return &MockTemperatureSensor{behavior: behavior}
}

// GetTemperature returns the temperature from the behavior function plus the
// programmed offset.
func (m *MockTemperatureSensor) GetTemperature(ctx context.Context) (float64, error) {
	t, err := m.behavior(ctx)
	if err != nil {
		return 0, err
	}
	return t + m.offset, nil
}

// GetTemperatureOffset returns the programmed temperature offset.
func (m *MockTemperatureSensor) GetTemperatureOffset(ctx context.Context) (float64, error) {
	return m.offset, nil
}

// SetTemperatureOffset programs a temperature offset added to every reading.
func (m *MockTemperatureSensor) SetTemperatureOffset(ctx context.Context, offset float64) error {
	m.offset = offset
	return nil
}

// IsDataReady always reports true; the mock has a fresh reading on demand.
func (m *MockTemperatureSensor) IsDataReady(ctx context.Context) (bool, error) {
	return true, nil
}
