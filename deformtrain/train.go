// Package deformtrain trains and evaluates Trackers.
package deformtrain

import (
	"errors"
	"log"
	"sync"

	"github.com/LisandroV/Deformation-Tracker/deformdata"
	"github.com/LisandroV/Deformation-Tracker/deformrnn"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anys2s"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// TrainConfig configures Train.
type TrainConfig struct {
	// Mode is the mode the Tracker is trained in.
	Mode deformrnn.Mode

	// StepSize is the Adam learning rate.
	StepSize float64

	// Epsilon is the Adam damping term.
	// If it is 0, anysgd's default is used.
	Epsilon float64

	// BatchSize is the number of sequences per mini-batch.
	// If it is 0, every step uses the whole training set.
	BatchSize int

	// MaxEpochs limits the number of passes over the
	// training set.
	// If it is 0, training only stops when the stop
	// channel is closed or patience runs out.
	MaxEpochs int

	// Patience is the number of epochs without a
	// validation improvement larger than MinDelta after
	// which training stops.
	// If it is 0, early stopping is disabled.
	Patience int
	MinDelta float64

	// Logf is used for progress messages.
	// If it is nil, log.Printf is used.
	Logf func(format string, args ...interface{})
}

// DefaultTrainConfig returns the settings used for the
// sponge experiments.
func DefaultTrainConfig() *TrainConfig {
	return &TrainConfig{
		Mode:      deformrnn.TeacherForcing,
		StepSize:  0.001,
		MaxEpochs: 4000,
		Patience:  20,
		MinDelta:  0.0001,
	}
}

// A Result summarizes a training run.
type Result struct {
	Epochs     int
	Iterations int

	// TrainLoss is the cost of the last mini-batch.
	TrainLoss float64

	// ValidLoss is the best validation loss, or -1 if no
	// validation samples were given.
	ValidLoss float64
}

// Train trains a Tracker until the stop channel is closed,
// MaxEpochs is reached, or the validation loss stops
// improving.
//
// If valid is non-nil, the parameters with the lowest
// validation loss are restored before Train returns.
// The stop channel may be nil.
func Train(cfg *TrainConfig, model *deformrnn.Tracker, train, valid *deformdata.SampleList,
	stop <-chan struct{}) (*Result, error) {
	if train.Len() == 0 {
		return nil, errors.New("train: empty training set")
	}
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}

	trainer := &anys2s.Trainer{
		Func: func(s anyseq.Seq) anyseq.Seq {
			return model.Apply(s, cfg.Mode)
		},
		Cost:    anynet.MSE{},
		Params:  model.Parameters(),
		Average: true,
	}

	stopper := newStopper(stop)
	defer stopper.Release()

	res := &Result{ValidLoss: -1}
	var best paramSnapshot
	var badEpochs int
	var validErr error

	sgd := &anysgd.SGD{
		Fetcher:     trainer,
		Gradienter:  trainer,
		Transformer: &anysgd.Adam{Damping: cfg.Epsilon},
		Samples:     train,
		Rater:       anysgd.ConstRater(cfg.StepSize),
		BatchSize:   cfg.BatchSize,
	}
	sgd.StatusFunc = func(b anysgd.Batch) {
		if res.Iterations > 0 {
			res.TrainLoss = numericFloat(trainer.LastCost)
		}
		epoch := sgd.NumProcessed / train.Len()
		if epoch > res.Epochs {
			res.Epochs = epoch
			if valid != nil {
				loss, err := Evaluate(model, valid, cfg.Mode)
				if err != nil {
					validErr = err
					stopper.Stop()
					return
				}
				logf("epoch %d: cost=%v valid=%v", epoch, res.TrainLoss, loss)
				if res.ValidLoss < 0 || loss < res.ValidLoss-cfg.MinDelta {
					res.ValidLoss = loss
					best = snapshot(model.Parameters())
					badEpochs = 0
				} else {
					badEpochs++
				}
				if cfg.Patience > 0 && badEpochs >= cfg.Patience {
					logf("no improvement for %d epochs, stopping", badEpochs)
					stopper.Stop()
				}
			} else {
				logf("epoch %d: cost=%v", epoch, res.TrainLoss)
			}
			if cfg.MaxEpochs > 0 && epoch >= cfg.MaxEpochs {
				stopper.Stop()
			}
		}
		res.Iterations++
	}

	if err := sgd.Run(stopper.Chan()); err != nil {
		return nil, essentials.AddCtx("train", err)
	}
	if validErr != nil {
		return nil, essentials.AddCtx("train", validErr)
	}
	if best != nil {
		best.Restore()
	}
	return res, nil
}

// stopper merges an optional external stop channel with
// internal stop requests.
type stopper struct {
	ch       chan struct{}
	once     sync.Once
	released chan struct{}
}

func newStopper(external <-chan struct{}) *stopper {
	s := &stopper{
		ch:       make(chan struct{}),
		released: make(chan struct{}),
	}
	if external != nil {
		go func() {
			select {
			case <-external:
				s.Stop()
			case <-s.released:
			}
		}()
	}
	return s
}

func (s *stopper) Chan() <-chan struct{} {
	return s.ch
}

func (s *stopper) Stop() {
	s.once.Do(func() {
		close(s.ch)
	})
}

func (s *stopper) Release() {
	close(s.released)
}

type paramSnapshot map[*anydiff.Var]anyvec.Vector

func snapshot(params []*anydiff.Var) paramSnapshot {
	res := paramSnapshot{}
	for _, p := range params {
		res[p] = p.Vector.Copy()
	}
	return res
}

func (p paramSnapshot) Restore() {
	for v, vec := range p {
		v.Vector.Set(vec)
	}
}
