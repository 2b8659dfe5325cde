package deformtrain

import (
	"errors"
	"log"
	"math"
	"math/rand"
	"sort"

	"github.com/LisandroV/Deformation-Tracker/deformdata"
	"github.com/LisandroV/Deformation-Tracker/deformrnn"
)

// SearchConfig configures RandomSearch.
type SearchConfig struct {
	// Train is used for every trial.
	// Its StepSize and Epsilon are overridden.
	Train TrainConfig

	// Trials is the number of sampled configurations.
	Trials int

	// MinStep, MaxStep, MinEpsilon and MaxEpsilon bound
	// the log-uniform sampling ranges.
	MinStep    float64
	MaxStep    float64
	MinEpsilon float64
	MaxEpsilon float64

	// Seed seeds the sampler.
	Seed int64
}

// DefaultSearchConfig returns the search space of the
// sponge experiments.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		Train:      *DefaultTrainConfig(),
		Trials:     20,
		MinStep:    1e-4,
		MaxStep:    2e-2,
		MinEpsilon: 1e-7,
		MaxEpsilon: 1e-5,
		Seed:       42,
	}
}

// A Trial is one evaluated configuration.
type Trial struct {
	StepSize  float64
	Epsilon   float64
	ValidLoss float64
	Model     *deformrnn.Tracker
}

// RandomSearch trains one model per trial and returns the
// trials sorted by ascending validation loss.
//
// The build function must create a fresh model, for
// example by loading a pre-trained one from disk.
// If the stop channel is closed, the trials finished so
// far are returned.
func RandomSearch(cfg *SearchConfig, build func() (*deformrnn.Tracker, error),
	train, valid *deformdata.SampleList, stop <-chan struct{}) ([]*Trial, error) {
	if valid == nil || valid.Len() == 0 {
		return nil, errors.New("random search: validation samples are required")
	}
	gen := rand.New(rand.NewSource(cfg.Seed))
	logf := cfg.Train.Logf
	if logf == nil {
		logf = log.Printf
	}

	var trials []*Trial
	for i := 0; i < cfg.Trials; i++ {
		select {
		case <-stop:
			return sortTrials(trials), nil
		default:
		}
		trainCfg := cfg.Train
		trainCfg.StepSize = logUniform(gen, cfg.MinStep, cfg.MaxStep)
		trainCfg.Epsilon = logUniform(gen, cfg.MinEpsilon, cfg.MaxEpsilon)

		model, err := build()
		if err != nil {
			return nil, err
		}
		res, err := Train(&trainCfg, model, train, valid, stop)
		if err != nil {
			return nil, err
		}
		trial := &Trial{
			StepSize:  trainCfg.StepSize,
			Epsilon:   trainCfg.Epsilon,
			ValidLoss: res.ValidLoss,
			Model:     model,
		}
		if trial.ValidLoss < 0 {
			// Stopped before the first epoch finished.
			trial.ValidLoss, err = Evaluate(model, valid, trainCfg.Mode)
			if err != nil {
				return nil, err
			}
		}
		logf("trial %d: step=%g epsilon=%g valid=%v", i, trial.StepSize, trial.Epsilon,
			trial.ValidLoss)
		trials = append(trials, trial)
	}
	return sortTrials(trials), nil
}

func sortTrials(t []*Trial) []*Trial {
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].ValidLoss < t[j].ValidLoss
	})
	return t
}

func logUniform(gen *rand.Rand, min, max float64) float64 {
	if min <= 0 || max <= min {
		return min
	}
	lo, hi := math.Log(min), math.Log(max)
	return math.Exp(lo + gen.Float64()*(hi-lo))
}
