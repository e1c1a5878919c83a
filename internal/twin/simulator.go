package twin

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/speedwagon-io/tiretwin/internal/config"
	"github.com/speedwagon-io/tiretwin/internal/model"
)

// Simulator produces synthetic wear histories: a bounded random walk over
// (mileage, pressure, temperature) that ends when the tire crosses a
// failure bound or the step cap runs out.
type Simulator struct {
	cfg config.SimulatorConfig
}

func NewSimulator(cfg config.SimulatorConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// SimulateWear walks at most steps steps (clamped to the configured cap).
// A zero seed draws one from the clock; the seed actually used is recorded
// on the series so any run can be reproduced.
func (s *Simulator) SimulateWear(steps int, seed int64) (*model.SimulatedSeries, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("simulate wear: steps must be positive, got %d", steps)
	}
	if steps > s.cfg.MaxSteps {
		steps = s.cfg.MaxSteps
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	src := rand.NewPCG(uint64(seed), 0)
	mileageStep := distuv.Uniform{Min: s.cfg.MileageStepMin, Max: s.cfg.MileageStepMax, Src: src}
	pressureDecay := distuv.Uniform{Min: s.cfg.PressureDecayMin, Max: s.cfg.PressureDecayMax, Src: src}
	tempDrift := distuv.Uniform{Min: s.cfg.TempDriftMin, Max: s.cfg.TempDriftMax, Src: src}

	series := &model.SimulatedSeries{
		Seed:       seed,
		Points:     make([]model.WearPoint, 0, steps),
		StopReason: model.StopStepCap,
	}

	mileage := s.cfg.InitialMileage
	pressure := s.cfg.InitialPressure
	temp := s.cfg.InitialTemperature

	for step := 1; step <= steps; step++ {
		mileage += mileageStep.Rand()

		decay := pressureDecay.Rand()
		if mileage > s.cfg.DecayCutoffMileage {
			decay *= s.cfg.DecayAmplifier
		}
		pressure -= decay

		// Heat drifts upward faster the softer the tire runs and the
		// further it has travelled.
		drift := tempDrift.Rand()
		if gap := s.cfg.InitialPressure - pressure; gap > 0 {
			drift += gap * s.cfg.TempPressureBias
		}
		if s.cfg.TempMileageScale > 0 {
			drift += mileage / s.cfg.TempMileageScale
		}
		temp = clamp(temp+drift, s.cfg.TempFloor, s.cfg.TempCeiling)

		series.Points = append(series.Points, model.WearPoint{
			Step:        step,
			Mileage:     mileage,
			Pressure:    pressure,
			Temperature: temp,
		})

		if pressure < s.cfg.FailPressure {
			series.StopReason = model.StopPressureFloor
			break
		}
		if temp > s.cfg.FailTemperature {
			series.StopReason = model.StopTemperatureMax
			break
		}
	}

	return series, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
