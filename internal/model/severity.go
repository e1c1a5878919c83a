package model

import (
	"encoding/json"
	"fmt"
)

// Severity is the discrete ordered risk tier of a classified reading.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityHighRisk
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "normal"
	case SeverityWarning:
		return "warning"
	case SeverityHighRisk:
		return "high_risk"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "normal":
		return SeverityNormal, nil
	case "warning":
		return SeverityWarning, nil
	case "high_risk":
		return SeverityHighRisk, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityNormal, fmt.Errorf("unknown severity %q", s)
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RiskFactor is one out-of-range dimension and the points it contributed
// to the total risk score.
type RiskFactor struct {
	Dimension string  `json:"dimension"`
	Detail    string  `json:"detail"`
	Points    float64 `json:"points"`
}

// StatusResult is the classifier verdict for one reading.
type StatusResult struct {
	Label        string       `json:"label"`
	Severity     Severity     `json:"severity"`
	Score        float64      `json:"score"`
	Icon         string       `json:"icon"`
	Prescription string       `json:"prescription"`
	Factors      []RiskFactor `json:"factors,omitempty"`
}
