package environment

import (
	"context"
	"fmt"
	"testing"
)

func TestMockEnvironmentSensor_StaticValues(t *testing.T) {
	sensor := NewMockEnvironmentSensor(
		func(ctx context.Context) (float64, error) { return 22.5, nil },
		func(ctx context.Context) (float64, error) { return 101325.0, nil },
		func(ctx context.Context) (float64, error) { return 45.0, nil },
	)

	ctx := context.Background()

	temp, err := sensor.GetTemperature(ctx)
	if err != nil {
		t.Fatalf("GetTemperature: unexpected error: %v", err)
	}
	if temp != 22.5 {
		t.Errorf("expected temperature 22.5, got %f", temp)
	}

	pressure, err := sensor.GetPressure(ctx)
	if err != nil {
		t.Fatalf("GetPressure: unexpected error: %v", err)
	}
	if pressure != 101325.0 {
		t.Errorf("expected pressure 101325.0, got %f", pressure)
	}

	readings, err := sensor.GetReadings(ctx)
	if err != nil {
		t.Fatalf("GetReadings: unexpected error: %v", err)
	}
	if readings.Temperature != 22.5 || readings.Pressure != 101325.0 || readings.Humidity != 45.0 {
		t.Errorf("unexpected readings: %+v", readings)
	}
}

func TestMockEnvironmentSensor_IndependentBehaviors(t *testing.T) {
	tempCalls := 0
	pressureCalls := 0
	humCalls := 0

	sensor := NewMockEnvironmentSensor(
		func(ctx context.Context) (float64, error) {
			tempCalls++
			return 20.0, nil
		},
		func(ctx context.Context) (float64, error) {
			pressureCalls++
			return 100000.0, nil
		},
		func(ctx context.Context) (float64, error) {
			humCalls++
			return 50.0, nil
		},
	)

	ctx := context.Background()

	_, _ = sensor.GetTemperature(ctx)
	if tempCalls != 1 || pressureCalls != 0 || humCalls != 0 {
		t.Errorf("GetTemperature: unexpected call counts: %d/%d/%d", tempCalls, pressureCalls, humCalls)
	}

	_, _ = sensor.GetHumidity(ctx)
	if tempCalls != 1 || pressureCalls != 0 || humCalls != 1 {
		t.Errorf("GetHumidity: unexpected call counts: %d/%d/%d", tempCalls, pressureCalls, humCalls)
	}

	_, _ = sensor.GetReadings(ctx)
	if tempCalls != 2 || pressureCalls != 1 || humCalls != 2 {
		t.Errorf("GetReadings: unexpected call counts: %d/%d/%d", tempCalls, pressureCalls, humCalls)
	}
}

func TestMockEnvironmentSensor_ErrorHandling(t *testing.T) {
	sensor := NewMockEnvironmentSensor(
		func(ctx context.Context) (float64, error) {
			return 0, fmt.Errorf("temperature sensor error")
		},
		func(ctx context.Context) (float64, error) {
			return 0, fmt.Errorf("pressure sensor error")
		},
		func(ctx context.Context) (float64, error) {
			return 0, fmt.Errorf("humidity sensor error")
		},
	)

	ctx := context.Background()

	_, err := sensor.GetPressure(ctx)
	if err == nil || err.Error() != "pressure sensor error" {
		t.Errorf("GetPressure: expected specific error, got %v", err)
	}

	_, err = sensor.GetReadings(ctx)
	if err == nil || err.Error() != "temperature sensor error" {
		t.Errorf("GetReadings: expected temperature sensor error, got %v", err)
	}
}

func TestMockEnvironmentSensor_DynamicBehavior(t *testing.T) {
	currentTemp := 20.0

	sensor := NewMockEnvironmentSensor(
		func(ctx context.Context) (float64, error) { return currentTemp, nil },
		func(ctx context.Context) (float64, error) { return 100000.0, nil },
		func(ctx context.Context) (float64, error) { return 50.0, nil },
	)

	ctx := context.Background()

	temp, _ := sensor.GetTemperature(ctx)
	if temp != 20.0 {
		t.Errorf("expected 20.0, got %f", temp)
	}

	currentTemp = 25.0
	temp, _ = sensor.GetTemperature(ctx)
	if temp != 25.0 {
		t.Errorf("expected 25.0, got %f", temp)
	}
}

func TestMockTemperatureSensor_Offset(t *testing.T) {
	sensor := NewMockTemperatureSensor(
		func(ctx context.Context) (float64, error) { return 25.0, nil },
	)

	ctx := context.Background()

	temp, err := sensor.GetTemperature(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if temp != 25.0 {
		t.Errorf("expected 25.0, got %f", temp)
	}

	if err := sensor.SetTemperatureOffset(ctx, -1.5); err != nil {
		t.Fatalf("SetTemperatureOffset: unexpected error: %v", err)
	}

	offset, err := sensor.GetTemperatureOffset(ctx)
	if err != nil {
		t.Fatalf("GetTemperatureOffset: unexpected error: %v", err)
	}
	if offset != -1.5 {
		t.Errorf("expected offset -1.5, got %f", offset)
	}

	temp, _ = sensor.GetTemperature(ctx)
	if temp != 23.5 {
		t.Errorf("expected 23.5 with offset applied, got %f", temp)
	}
}

func TestMockTemperatureSensor_ContextPropagation(t *testing.T) {
	var received context.Context
	sensor := NewMockTemperatureSensor(
		func(ctx context.Context) (float64, error) { received = ctx; return 20.0, nil },
	)

	type contextKey string
	key := contextKey("test")
	ctx := context.WithValue(context.Background(), key, "test-value")

	_, _ = sensor.GetTemperature(ctx)
	if received.Value(key) != "test-value" {
		t.Error("context was not passed through to the behavior")
	}
}
