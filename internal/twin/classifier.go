package twin

import (
	"fmt"

	"github.com/speedwagon-io/tiretwin/internal/config"
	"github.com/speedwagon-io/tiretwin/internal/model"
)

// Risk points contributed by each out-of-range dimension. Simultaneous
// violations accumulate; they never short-circuit.
const (
	pointsSevereUnderInflation = 40
	pointsUnderInflation       = 20
	pointsSevereOverInflation  = 30
	pointsOverInflation        = 15
	pointsMileageHigh          = 30
	pointsMileageAlert         = 15
	pointsTempCritical         = 40
	pointsTempAlert            = 20
	pointsVibrationCritical    = 25
	pointsVibrationAlert       = 10
)

// Classifier maps a telemetry reading to a discrete severity tier by
// additive risk scoring against a threshold profile.
type Classifier struct {
	t config.Thresholds
}

func NewClassifier(t config.Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Classify validates the reading, scores each dimension and buckets the
// total into one of four severities. All threshold comparisons are strict.
func (c *Classifier) Classify(r model.TelemetryReading) (model.StatusResult, error) {
	if err := r.Validate(); err != nil {
		return model.StatusResult{}, fmt.Errorf("classify: %w", err)
	}

	var (
		score   float64
		factors []model.RiskFactor
	)

	add := func(dimension, detail string, points float64) {
		score += points
		factors = append(factors, model.RiskFactor{
			Dimension: dimension,
			Detail:    detail,
			Points:    points,
		})
	}

	switch {
	case r.Pressure < c.t.PressureSevereUnder:
		add("pressure", "severe under-inflation", pointsSevereUnderInflation)
	case r.Pressure < c.t.PressureUnder:
		add("pressure", "under-inflation", pointsUnderInflation)
	case r.Pressure > c.t.PressureSevereOver:
		add("pressure", "severe over-inflation", pointsSevereOverInflation)
	case r.Pressure > c.t.PressureOver:
		add("pressure", "over-inflation", pointsOverInflation)
	}

	switch {
	case r.Mileage > c.t.MileageHigh:
		add("mileage", "casing past service life", pointsMileageHigh)
	case r.Mileage > c.t.MileageAlert:
		add("mileage", "elevated wear mileage", pointsMileageAlert)
	}

	switch {
	case r.Temperature > c.t.TemperatureCritical:
		add("temperature", "critical overheat", pointsTempCritical)
	case r.Temperature > c.t.TemperatureAlert:
		add("temperature", "running hot", pointsTempAlert)
	}

	if r.HasVibration() {
		switch {
		case r.Vibration > c.t.VibrationCritical:
			add("vibration", "impact or structural fatigue", pointsVibrationCritical)
		case r.Vibration > c.t.VibrationAlert:
			add("vibration", "elevated vibration", pointsVibrationAlert)
		}
	}

	result := c.bucket(score)
	result.Factors = factors
	return result, nil
}

func (c *Classifier) bucket(score float64) model.StatusResult {
	switch {
	case score >= c.t.CriticalScore:
		return model.StatusResult{
			Label:        "CRITICAL ALERT",
			Severity:     model.SeverityCritical,
			Score:        score,
			Icon:         "🔥",
			Prescription: "Emergency stop protocol. High risk of structural failure.",
		}
	case score >= c.t.HighRiskScore:
		return model.StatusResult{
			Label:        "HIGH RISK: INSPECTION REQUIRED",
			Severity:     model.SeverityHighRisk,
			Score:        score,
			Icon:         "💥",
			Prescription: "Take the asset out of rotation for inspection and re-balancing.",
		}
	case score >= c.t.WarningScore:
		return model.StatusResult{
			Label:        "MAINTENANCE ADVISED",
			Severity:     model.SeverityWarning,
			Score:        score,
			Icon:         "⚠️",
			Prescription: "Schedule a pressure check and leak inspection at the next service window.",
		}
	default:
		return model.StatusResult{
			Label:        "NORMAL OPERATING STATE",
			Severity:     model.SeverityNormal,
			Score:        score,
			Icon:         "✅",
			Prescription: "Continue optimal operation. System is stable.",
		}
	}
}
