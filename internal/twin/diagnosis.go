package twin

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/speedwagon-io/tiretwin/internal/model"
)

// DiagnosisModel is a diagonal Gaussian class model trained on the
// synthetic dataset: per failure mode, a mean and spread per feature plus
// a class prior. It is trained once at startup and read-only afterwards.
type DiagnosisModel struct {
	classes  []classStats
	vibMean  float64
	Accuracy float64
}

type classStats struct {
	mode     string
	logPrior float64
	mu       [numFeatures]float64
	sigma    [numFeatures]float64
}

// TrainDiagnosisModel fits the class model on the training split and
// scores it on the holdout.
func TrainDiagnosisModel(ds *Dataset) (*DiagnosisModel, error) {
	if len(ds.Train) == 0 {
		return nil, fmt.Errorf("train diagnosis model: empty training set")
	}

	byMode := make(map[string][]Sample)
	for _, s := range ds.Train {
		byMode[s.Mode] = append(byMode[s.Mode], s)
	}

	m := &DiagnosisModel{}

	var allVib []float64
	for _, s := range ds.Train {
		allVib = append(allVib, s.Features[featVibration])
	}
	m.vibMean = stat.Mean(allVib, nil)

	modes := make([]string, 0, len(byMode))
	for mode := range byMode {
		modes = append(modes, mode)
	}
	sort.Strings(modes)

	for _, mode := range modes {
		group := byMode[mode]
		if len(group) < 2 {
			// Too thin to estimate a spread; fold into the prior of nothing.
			continue
		}

		cs := classStats{
			mode:     mode,
			logPrior: math.Log(float64(len(group)) / float64(len(ds.Train))),
		}

		col := make([]float64, len(group))
		for f := 0; f < numFeatures; f++ {
			for i, s := range group {
				col[i] = s.Features[f]
			}
			cs.mu[f] = stat.Mean(col, nil)
			cs.sigma[f] = stat.StdDev(col, nil)
			if cs.sigma[f] < 1e-6 {
				cs.sigma[f] = 1e-6
			}
		}

		m.classes = append(m.classes, cs)
	}

	if len(m.classes) < 2 {
		return nil, fmt.Errorf("train diagnosis model: only %d usable classes", len(m.classes))
	}

	m.Accuracy = m.score(ds.Holdout)
	return m, nil
}

func (m *DiagnosisModel) score(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		if m.predict(s.Features).Mode == s.Mode {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

// Diagnose returns the most likely failure mode for a reading with
// normalized per-class confidences. A missing vibration channel is imputed
// with the training-set mean.
func (m *DiagnosisModel) Diagnose(r model.TelemetryReading) (model.Diagnosis, error) {
	if err := r.Validate(); err != nil {
		return model.Diagnosis{}, fmt.Errorf("diagnose: %w", err)
	}
	return m.predict(featureVector(r, m.vibMean)), nil
}

func (m *DiagnosisModel) predict(features [numFeatures]float64) model.Diagnosis {
	logJoint := make([]float64, len(m.classes))
	for i, cs := range m.classes {
		lj := cs.logPrior
		for f := 0; f < numFeatures; f++ {
			n := distuv.Normal{Mu: cs.mu[f], Sigma: cs.sigma[f]}
			lj += n.LogProb(features[f])
		}
		logJoint[i] = lj
	}

	// Softmax over log-joints, shifted by the max for stability.
	maxLJ := logJoint[0]
	for _, lj := range logJoint[1:] {
		if lj > maxLJ {
			maxLJ = lj
		}
	}
	var total float64
	probs := make([]float64, len(logJoint))
	for i, lj := range logJoint {
		probs[i] = math.Exp(lj - maxLJ)
		total += probs[i]
	}

	d := model.Diagnosis{
		Classes: make([]model.ClassConfidence, len(m.classes)),
	}
	for i, cs := range m.classes {
		d.Classes[i] = model.ClassConfidence{
			Mode:        cs.mode,
			Probability: probs[i] / total,
		}
	}
	sort.Slice(d.Classes, func(i, j int) bool {
		return d.Classes[i].Probability > d.Classes[j].Probability
	})

	d.Mode = d.Classes[0].Mode
	d.Confidence = d.Classes[0].Probability
	return d
}
