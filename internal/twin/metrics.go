package twin

import (
	"github.com/speedwagon-io/tiretwin/internal/config"
	"github.com/speedwagon-io/tiretwin/internal/model"
)

// Per-severity base of the avoided-cost figure: roughly the price of the
// intervention the prescription pre-empts.
var costAvoidedBase = map[model.Severity]float64{
	model.SeverityNormal:   0,
	model.SeverityWarning:  1200,
	model.SeverityHighRisk: 4800,
	model.SeverityCritical: 12500,
}

// MetricsCalculator derives the cosmetic business numbers shown next to a
// classification: piecewise linear in the risk score, nothing more.
type MetricsCalculator struct {
	t config.Thresholds
}

func NewMetricsCalculator(t config.Thresholds) *MetricsCalculator {
	return &MetricsCalculator{t: t}
}

func (m *MetricsCalculator) Derive(r model.TelemetryReading, result model.StatusResult) model.BusinessMetrics {
	risk := result.Score
	if risk > 100 {
		risk = 100
	}

	uptime := clamp(99.4-0.08*risk, 85.0, 99.4)

	cost := costAvoidedBase[result.Severity] + 35*risk

	// Rolling resistance grows as the tire runs soft: about 0.2 % fuel
	// economy per PSI of under-inflation.
	var fuelDelta float64
	if gap := m.t.PressureOptimal - r.Pressure; gap > 0 {
		fuelDelta = clamp(-0.2*gap, -5.0, 0)
	}

	return model.BusinessMetrics{
		RiskScore:           risk,
		UptimePercent:       uptime,
		CostAvoidedUSD:      cost,
		FuelEfficiencyDelta: fuelDelta,
	}
}
