package model

import (
	"errors"
	"fmt"
	"math"
)

// TelemetryReading is a single snapshot of the simulated sensor feed.
// Vibration is optional: a zero value means the sensor is absent and the
// dimension is skipped during scoring.
type TelemetryReading struct {
	Pressure    float64 `json:"pressure"`            // PSI
	Mileage     float64 `json:"mileage"`             // km
	Temperature float64 `json:"temperature"`         // °C
	Vibration   float64 `json:"vibration,omitempty"` // Hz
}

var ErrInvalidReading = errors.New("invalid telemetry reading")

// Validate rejects readings outside the physical domain before they reach
// the classifier. All values must be finite; mileage and pressure must be
// non-negative.
func (r TelemetryReading) Validate() error {
	for name, v := range map[string]float64{
		"pressure":    r.Pressure,
		"mileage":     r.Mileage,
		"temperature": r.Temperature,
		"vibration":   r.Vibration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidReading, name)
		}
	}
	if r.Pressure < 0 {
		return fmt.Errorf("%w: negative pressure %.2f", ErrInvalidReading, r.Pressure)
	}
	if r.Mileage < 0 {
		return fmt.Errorf("%w: negative mileage %.1f", ErrInvalidReading, r.Mileage)
	}
	if r.Vibration < 0 {
		return fmt.Errorf("%w: negative vibration %.2f", ErrInvalidReading, r.Vibration)
	}
	return nil
}

// HasVibration reports whether the optional vibration channel carries data.
func (r TelemetryReading) HasVibration() bool {
	return r.Vibration > 0
}
