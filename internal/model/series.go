package model

// Termination reasons for a simulated wear series.
const (
	StopPressureFloor  = "pressure_floor"
	StopTemperatureMax = "temperature_ceiling"
	StopStepCap        = "step_cap"
)

// WearPoint is one step of a simulated wear walk.
type WearPoint struct {
	Step        int     `json:"step"`
	Mileage     float64 `json:"mileage"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// SimulatedSeries is a finite synthetic sensor history produced by the
// wear simulator. Points are ordered by step.
type SimulatedSeries struct {
	Seed       int64       `json:"seed"`
	Points     []WearPoint `json:"points"`
	StopReason string      `json:"stop_reason"`
}

func (s *SimulatedSeries) Len() int {
	return len(s.Points)
}

// Last returns the final point of the series; ok is false for an empty series.
func (s *SimulatedSeries) Last() (WearPoint, bool) {
	if len(s.Points) == 0 {
		return WearPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}
