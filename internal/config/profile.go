package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Profile holds the tuning parameters of one twin: classifier thresholds,
// wear-walk coefficients and synthetic dataset settings. Defaults describe
// a standard passenger-fleet tire; a profile file overrides per deployment.
type Profile struct {
	Thresholds Thresholds      `yaml:"thresholds"`
	Simulator  SimulatorConfig `yaml:"simulator"`
	Dataset    DatasetConfig   `yaml:"dataset"`
}

// Thresholds bound the operating envelope of the tire. All comparisons in
// the classifier are strict, so a reading exactly at a threshold does not
// trip it.
type Thresholds struct {
	PressureOptimal     float64 `yaml:"pressure_optimal" env-default:"32.0"`
	PressureUnder       float64 `yaml:"pressure_under" env-default:"30.0"`
	PressureSevereUnder float64 `yaml:"pressure_severe_under" env-default:"26.0"`
	PressureOver        float64 `yaml:"pressure_over" env-default:"38.0"`
	PressureSevereOver  float64 `yaml:"pressure_severe_over" env-default:"42.0"`

	MileageAlert float64 `yaml:"mileage_alert" env-default:"30000"`
	MileageHigh  float64 `yaml:"mileage_high" env-default:"60000"`

	TemperatureAlert    float64 `yaml:"temperature_alert" env-default:"70.0"`
	TemperatureCritical float64 `yaml:"temperature_critical" env-default:"85.0"`

	VibrationAlert    float64 `yaml:"vibration_alert" env-default:"25.0"`
	VibrationCritical float64 `yaml:"vibration_critical" env-default:"30.0"`

	// Score cuts between severity buckets.
	WarningScore  float64 `yaml:"warning_score" env-default:"15"`
	HighRiskScore float64 `yaml:"high_risk_score" env-default:"40"`
	CriticalScore float64 `yaml:"critical_score" env-default:"70"`
}

type SimulatorConfig struct {
	InitialPressure    float64 `yaml:"initial_pressure" env-default:"32.0"`
	InitialTemperature float64 `yaml:"initial_temperature" env-default:"50.0"`
	InitialMileage     float64 `yaml:"initial_mileage" env-default:"5000"`

	MileageStepMin float64 `yaml:"mileage_step_min" env-default:"150"`
	MileageStepMax float64 `yaml:"mileage_step_max" env-default:"450"`

	PressureDecayMin float64 `yaml:"pressure_decay_min" env-default:"0.01"`
	PressureDecayMax float64 `yaml:"pressure_decay_max" env-default:"0.06"`

	// Past this mileage the pressure decay per step is multiplied by
	// DecayAmplifier, modelling accelerated wear of an aged casing.
	DecayCutoffMileage float64 `yaml:"decay_cutoff_mileage" env-default:"40000"`
	DecayAmplifier     float64 `yaml:"decay_amplifier" env-default:"2.5"`

	TempDriftMin     float64 `yaml:"temp_drift_min" env-default:"-0.6"`
	TempDriftMax     float64 `yaml:"temp_drift_max" env-default:"1.0"`
	TempPressureBias float64 `yaml:"temp_pressure_bias" env-default:"0.05"`
	TempMileageScale float64 `yaml:"temp_mileage_scale" env-default:"200000"`
	TempFloor        float64 `yaml:"temp_floor" env-default:"20.0"`
	TempCeiling      float64 `yaml:"temp_ceiling" env-default:"120.0"`

	FailPressure    float64 `yaml:"fail_pressure" env-default:"24.0"`
	FailTemperature float64 `yaml:"fail_temperature" env-default:"85.0"`

	MaxSteps int `yaml:"max_steps" env-default:"500"`
}

type DatasetConfig struct {
	Samples         int     `yaml:"samples" env-default:"2000"`
	Seed            int64   `yaml:"seed" env-default:"42"`
	HoldoutFraction float64 `yaml:"holdout_fraction" env-default:"0.2"`
}

// MustLoadProfile reads a twin profile. An empty path yields the built-in
// defaults (overridable through environment variables).
func MustLoadProfile(profilePath string) *Profile {
	var p Profile

	if profilePath == "" {
		if err := cleanenv.ReadEnv(&p); err != nil {
			panic("failed to read twin profile defaults: " + err.Error())
		}
	} else {
		if _, err := os.Stat(profilePath); os.IsNotExist(err) {
			panic("twin profile file not found: " + profilePath)
		}
		if err := cleanenv.ReadConfig(profilePath, &p); err != nil {
			panic("failed to read twin profile: " + err.Error())
		}
	}

	if err := p.Validate(); err != nil {
		panic("invalid twin profile: " + err.Error())
	}

	return &p
}

// Validate enforces the threshold ordering the classifier and simulator
// rely on: per dimension, alert bounds sit strictly inside critical bounds.
func (p *Profile) Validate() error {
	t := p.Thresholds
	if !(t.PressureSevereUnder < t.PressureUnder && t.PressureUnder < t.PressureOptimal) {
		return fmt.Errorf("pressure under-inflation thresholds out of order: %.1f / %.1f / %.1f",
			t.PressureSevereUnder, t.PressureUnder, t.PressureOptimal)
	}
	if !(t.PressureOptimal < t.PressureOver && t.PressureOver < t.PressureSevereOver) {
		return fmt.Errorf("pressure over-inflation thresholds out of order: %.1f / %.1f / %.1f",
			t.PressureOptimal, t.PressureOver, t.PressureSevereOver)
	}
	if t.MileageAlert >= t.MileageHigh {
		return fmt.Errorf("mileage alert %.0f must be below mileage high %.0f", t.MileageAlert, t.MileageHigh)
	}
	if t.TemperatureAlert >= t.TemperatureCritical {
		return fmt.Errorf("temperature alert %.1f must be below critical %.1f", t.TemperatureAlert, t.TemperatureCritical)
	}
	if t.VibrationAlert >= t.VibrationCritical {
		return fmt.Errorf("vibration alert %.1f must be below critical %.1f", t.VibrationAlert, t.VibrationCritical)
	}
	if !(0 < t.WarningScore && t.WarningScore < t.HighRiskScore && t.HighRiskScore < t.CriticalScore) {
		return fmt.Errorf("severity score cuts out of order: %.0f / %.0f / %.0f",
			t.WarningScore, t.HighRiskScore, t.CriticalScore)
	}

	s := p.Simulator
	if s.FailPressure >= s.InitialPressure {
		return fmt.Errorf("fail pressure %.1f must be below initial pressure %.1f", s.FailPressure, s.InitialPressure)
	}
	if s.FailTemperature <= s.InitialTemperature {
		return fmt.Errorf("fail temperature %.1f must be above initial temperature %.1f", s.FailTemperature, s.InitialTemperature)
	}
	if s.MileageStepMin <= 0 || s.MileageStepMax < s.MileageStepMin {
		return fmt.Errorf("mileage step range [%.0f, %.0f] invalid", s.MileageStepMin, s.MileageStepMax)
	}
	if s.PressureDecayMin < 0 || s.PressureDecayMax < s.PressureDecayMin {
		return fmt.Errorf("pressure decay range [%.3f, %.3f] invalid", s.PressureDecayMin, s.PressureDecayMax)
	}
	if s.TempFloor >= s.TempCeiling {
		return fmt.Errorf("temperature clamp [%.1f, %.1f] invalid", s.TempFloor, s.TempCeiling)
	}
	if s.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", s.MaxSteps)
	}

	d := p.Dataset
	if d.Samples < 100 {
		return fmt.Errorf("dataset needs at least 100 samples, got %d", d.Samples)
	}
	if d.HoldoutFraction <= 0 || d.HoldoutFraction >= 1 {
		return fmt.Errorf("holdout fraction %.2f must be in (0, 1)", d.HoldoutFraction)
	}

	return nil
}
