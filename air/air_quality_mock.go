package air

import (
	"context"
)

// TVOCBehaviorFunc defines the function signature for TVOC behavior.
// It returns TVOC in parts-per-billion (ppb) or an error.
type TVOCBehaviorFunc func(ctx context.Context) (uint16, error)

// AQIBehaviorFunc defines the function signature for air quality index
// behavior. It returns the UBA index (1 to 5) or an error.
type AQIBehaviorFunc func(ctx context.Context) (ENS160AirQualityIndex, error)

// ECO2BehaviorFunc defines the function signature for equivalent CO2
// behavior. It returns the concentration in ppm or an error.
type ECO2BehaviorFunc func(ctx context.Context) (uint16, error)

// MockAirQualitySensor is a mock implementation of an air quality sensor
// that uses behavior functions to produce results without requiring
// hardware. It can stand in for an ENS160 in application code.
type MockAirQualitySensor struct {
	tvocBehavior TVOCBehaviorFunc
	aqiBehavior  AQIBehaviorFunc
	eco2Behavior ECO2BehaviorFunc
}

// NewMockAirQualitySensor creates a new mock air quality sensor with the
// given behavior functions.
//
// Example usage:
//
//	sensor := NewMockAirQualitySensor(
//		func(ctx context.Context) (uint16, error) { return 750, nil },
//		func(ctx context.Context) (ENS160AirQualityIndex, error) { return AQIGood, nil },
//		func(ctx context.Context) (uint16, error) { return 650, nil },
//	)
func NewMockAirQualitySensor(tvocBehavior TVOCBehaviorFunc, aqiBehavior AQIBehaviorFunc, eco2Behavior ECO2BehaviorFunc) *MockAirQualitySensor {
	return &MockAirQualitySensor{
		tvocBehavior: tvocBehavior,
		aqiBehavior:  aqiBehavior,
		eco2Behavior: eco2Behavior,
	}
}

// GetTVOC returns the TVOC reading (in ppb) by calling the TVOC behavior function.
func (m *MockAirQualitySensor) GetTVOC(ctx context.Context) (uint16, error) {
	return m.tvocBehavior(ctx)
}

// GetAirQualityIndex returns the air quality index by calling the AQI behavior function.
func (m *MockAirQualitySensor) GetAirQualityIndex(ctx context.Context) (ENS160AirQualityIndex, error) {
	return m.aqiBehavior(ctx)
}

// GetECO2 returns the equivalent CO2 concentration and its rating by calling
// the eCO2 behavior function.
func (m *MockAirQualitySensor) GetECO2(ctx context.Context) (uint16, ECO2Rating, error) {
	ppm, err := m.eco2Behavior(ctx)
	if err != nil {
		return 0, 0, err
	}
	return ppm, ECO2RatingOf(ppm), nil
}
