package twin

import (
	"testing"

	"github.com/speedwagon-io/tiretwin/internal/model"
)

func TestDeriveMetricsHealthyReading(t *testing.T) {
	c := NewClassifier(testThresholds())
	calc := NewMetricsCalculator(testThresholds())

	reading := model.TelemetryReading{Pressure: 32.2, Mileage: 18500, Temperature: 52.5}
	result, err := c.Classify(reading)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := calc.Derive(reading, result)

	if m.RiskScore != 0 {
		t.Fatalf("expected zero risk, got %.1f", m.RiskScore)
	}
	if m.UptimePercent != 99.4 {
		t.Fatalf("expected full uptime projection, got %.2f", m.UptimePercent)
	}
	if m.CostAvoidedUSD != 0 {
		t.Fatalf("expected no cost avoided, got %.0f", m.CostAvoidedUSD)
	}
	if m.FuelEfficiencyDelta != 0 {
		t.Fatalf("expected no fuel delta, got %.2f", m.FuelEfficiencyDelta)
	}
}

func TestDeriveMetricsCriticalReading(t *testing.T) {
	c := NewClassifier(testThresholds())
	calc := NewMetricsCalculator(testThresholds())

	reading := model.TelemetryReading{Pressure: 25.0, Mileage: 45000, Temperature: 90.0}
	result, err := c.Classify(reading)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := calc.Derive(reading, result)

	if m.RiskScore != 95 {
		t.Fatalf("expected risk 95, got %.1f", m.RiskScore)
	}
	if m.UptimePercent >= 99.4 || m.UptimePercent < 85 {
		t.Fatalf("uptime projection out of range: %.2f", m.UptimePercent)
	}
	if m.CostAvoidedUSD <= 12500 {
		t.Fatalf("critical cost avoided should exceed the base, got %.0f", m.CostAvoidedUSD)
	}
	// 7 PSI under optimal at 0.2 %/PSI.
	if m.FuelEfficiencyDelta != -1.4 {
		t.Fatalf("expected fuel delta -1.4, got %.2f", m.FuelEfficiencyDelta)
	}
}

func TestDeriveMetricsClamps(t *testing.T) {
	c := NewClassifier(testThresholds())
	calc := NewMetricsCalculator(testThresholds())

	// All four dimensions maxed out: raw score 135.
	reading := model.TelemetryReading{Pressure: 1, Mileage: 65000, Temperature: 90, Vibration: 35}
	result, err := c.Classify(reading)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := calc.Derive(reading, result)

	if m.RiskScore != 100 {
		t.Fatalf("expected risk clamped to 100, got %.1f", m.RiskScore)
	}
	if m.FuelEfficiencyDelta != -5.0 {
		t.Fatalf("expected fuel delta clamped to -5.0, got %.2f", m.FuelEfficiencyDelta)
	}
}
