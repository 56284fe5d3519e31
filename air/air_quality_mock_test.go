package air

import (
	"context"
	"fmt"
	"testing"
)

func newStaticMock(tvoc uint16, aqi ENS160AirQualityIndex, eco2 uint16) *MockAirQualitySensor {
	return NewMockAirQualitySensor(
		func(ctx context.Context) (uint16, error) { return tvoc, nil },
		func(ctx context.Context) (ENS160AirQualityIndex, error) { return aqi, nil },
		func(ctx context.Context) (uint16, error) { return eco2, nil },
	)
}

func TestMockAirQualitySensor_StaticValues(t *testing.T) {
	s := newStaticMock(500, AQIGood, 650)
	ctx := context.Background()

	tvoc, err := s.GetTVOC(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tvoc != 500 {
		t.Errorf("expected 500, got %d", tvoc)
	}

	aqi, err := s.GetAirQualityIndex(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aqi != AQIGood {
		t.Errorf("expected AQIGood, got %v", aqi)
	}

	eco2, rating, err := s.GetECO2(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eco2 != 650 || rating != ECO2Good {
		t.Errorf("expected 650/good, got %d/%v", eco2, rating)
	}
}

func TestMockAirQualitySensor_Dynamic(t *testing.T) {
	val := uint16(100)
	s := NewMockAirQualitySensor(
		func(ctx context.Context) (uint16, error) { return val, nil },
		func(ctx context.Context) (ENS160AirQualityIndex, error) { return AQIExcellent, nil },
		func(ctx context.Context) (uint16, error) { return 400, nil },
	)
	ctx := context.Background()

	v1, _ := s.GetTVOC(ctx)
	if v1 != 100 {
		t.Errorf("expected 100, got %d", v1)
	}
	val = 250
	v2, _ := s.GetTVOC(ctx)
	if v2 != 250 {
		t.Errorf("expected 250, got %d", v2)
	}
}

func TestMockAirQualitySensor_Error(t *testing.T) {
	s := NewMockAirQualitySensor(
		func(ctx context.Context) (uint16, error) { return 0, fmt.Errorf("sensor error") },
		func(ctx context.Context) (ENS160AirQualityIndex, error) { return 0, fmt.Errorf("sensor error") },
		func(ctx context.Context) (uint16, error) { return 0, fmt.Errorf("sensor error") },
	)
	ctx := context.Background()

	if _, err := s.GetTVOC(ctx); err == nil || err.Error() != "sensor error" {
		t.Errorf("expected sensor error, got %v", err)
	}
	if _, _, err := s.GetECO2(ctx); err == nil || err.Error() != "sensor error" {
		t.Errorf("expected sensor error, got %v", err)
	}
}

func TestMockAirQualitySensor_ContextPropagation(t *testing.T) {
	var received context.Context
	s := NewMockAirQualitySensor(
		func(ctx context.Context) (uint16, error) { received = ctx; return 42, nil },
		func(ctx context.Context) (ENS160AirQualityIndex, error) { return AQIExcellent, nil },
		func(ctx context.Context) (uint16, error) { return 400, nil },
	)
	type ctxKey string
	key := ctxKey("k")
	ctx := context.WithValue(context.Background(), key, "v")
	_, _ = s.GetTVOC(ctx)
	if received.Value(key) != "v" {
		t.Error("context was not propagated")
	}
}
