package twin

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/speedwagon-io/tiretwin/internal/config"
	"github.com/speedwagon-io/tiretwin/internal/model"
)

// Feature column order used by the dataset and the diagnosis model.
const (
	featMileage = iota
	featPressure
	featTemperature
	featVibration
	numFeatures
)

// Sample is one labelled synthetic observation.
type Sample struct {
	Features [numFeatures]float64
	Mode     string
}

// Dataset is a labelled synthetic history of tire behaviour, split into
// a training part and a holdout part for accuracy reporting.
type Dataset struct {
	Train   []Sample
	Holdout []Sample
}

// GenerateDataset draws a labelled population of readings. Healthy
// baselines come from fixed distributions; failure modes are injected by
// rule and distort the correlated channels, so each class occupies its own
// region of the feature space. Deterministic for a given seed.
func GenerateDataset(cfg config.DatasetConfig) *Dataset {
	src := rand.NewPCG(uint64(cfg.Seed), 0)

	mileageDist := distuv.Uniform{Min: 5000, Max: 80000, Src: src}
	pressureDist := distuv.Normal{Mu: 32, Sigma: 2, Src: src}
	tempDist := distuv.Normal{Mu: 50, Sigma: 10, Src: src}
	vibDist := distuv.Normal{Mu: 15, Sigma: 5, Src: src}

	samples := make([]Sample, cfg.Samples)
	for i := range samples {
		mileage := mileageDist.Rand()
		pressure := pressureDist.Rand()
		temp := tempDist.Rand()
		vib := vibDist.Rand()
		mode := model.ModeNormal

		// Injection rules apply in sequence on the distorted values, so a
		// pressure-loss tire that runs hot enough re-labels as overheat.
		if pressure < 29 && mileage > 30000 {
			mode = model.ModePressureLoss
			temp *= 1.1
			vib *= 1.2
		}
		if temp > 75 {
			mode = model.ModeOverheat
			pressure *= 1.15
			vib *= 1.3
		}
		if vib > 30 && mileage > 40000 {
			mode = model.ModeImpactFatigue
			temp *= 1.2
		}

		samples[i] = Sample{
			Features: [numFeatures]float64{mileage, pressure, temp, vib},
			Mode:     mode,
		}
	}

	holdout := int(float64(cfg.Samples) * cfg.HoldoutFraction)
	if holdout < 1 {
		holdout = 1
	}

	// Samples are i.i.d., so a tail split is as good as a shuffled one.
	cut := cfg.Samples - holdout
	return &Dataset{
		Train:   samples[:cut],
		Holdout: samples[cut:],
	}
}

func featureVector(r model.TelemetryReading, vibFallback float64) [numFeatures]float64 {
	vib := r.Vibration
	if !r.HasVibration() {
		vib = vibFallback
	}
	return [numFeatures]float64{r.Mileage, r.Pressure, r.Temperature, vib}
}
