package model

// Failure modes the diagnosis model distinguishes.
const (
	ModeNormal        = "Normal"
	ModePressureLoss  = "Pressure Loss"
	ModeOverheat      = "Overheat"
	ModeImpactFatigue = "Impact/Fatigue"
)

type ClassConfidence struct {
	Mode        string  `json:"mode"`
	Probability float64 `json:"probability"`
}

// Diagnosis is the failure-mode verdict for one reading, with per-class
// confidences sorted most likely first.
type Diagnosis struct {
	Mode       string            `json:"mode"`
	Confidence float64           `json:"confidence"`
	Classes    []ClassConfidence `json:"classes"`
}
