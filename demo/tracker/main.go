package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"

	deform "github.com/LisandroV/Deformation-Tracker"
	"github.com/LisandroV/Deformation-Tracker/deformdata"
	"github.com/LisandroV/Deformation-Tracker/deformio"
	"github.com/LisandroV/Deformation-Tracker/deformnorm"
	"github.com/LisandroV/Deformation-Tracker/deformrnn"
	"github.com/LisandroV/Deformation-Tracker/deformtrain"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/essentials"
)

func main() {
	cfg := deform.DefaultConfig()
	trainCfg := deformtrain.DefaultTrainConfig()
	searchCfg := deformtrain.DefaultSearchConfig()

	var shouldTrain bool
	var modeName string
	var layout string
	var hidden string
	var outFile string

	flag.BoolVar(&shouldTrain, "train", false, "train the model instead of loading it")
	flag.StringVar(&cfg.TrainDir, "train-dir", cfg.TrainDir, "training trial directory")
	flag.StringVar(&cfg.ValidDir, "valid-dir", cfg.ValidDir, "validation trial directory")
	flag.BoolVar(&cfg.MirrorValid, "mirror-valid", cfg.MirrorValid,
		"augment with the mirrored validation trial instead of the training trial")
	flag.StringVar(&cfg.ModelFile, "model", cfg.ModelFile, "model file")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.StringVar(&modeName, "mode", "teacher", "tracker mode (teacher or free)")
	flag.StringVar(&layout, "layout", "teacher", "training dataset layout (teacher or single)")
	flag.StringVar(&hidden, "hidden", "24,24", "comma-separated RNN layer sizes")
	flag.Float64Var(&trainCfg.StepSize, "step", trainCfg.StepSize, "Adam step size")
	flag.Float64Var(&trainCfg.Epsilon, "epsilon", trainCfg.Epsilon, "Adam epsilon (0 for default)")
	flag.IntVar(&trainCfg.BatchSize, "batch", trainCfg.BatchSize, "SGD batch size (0 for full batch)")
	flag.IntVar(&trainCfg.MaxEpochs, "epochs", trainCfg.MaxEpochs, "maximum number of epochs")
	flag.IntVar(&trainCfg.Patience, "patience", trainCfg.Patience, "early stopping patience")
	flag.IntVar(&searchCfg.Trials, "search", 0, "random search trials (0 to disable)")
	flag.StringVar(&outFile, "out", "", "file for the predicted validation polygons")
	flag.Parse()

	rand.Seed(cfg.Seed)
	searchCfg.Seed = cfg.Seed

	mode, err := deformrnn.ParseMode(modeName)
	if err != nil {
		essentials.Die(err)
	}
	trainCfg.Mode = mode
	hiddenSizes, err := parseSizes(hidden)
	if err != nil {
		essentials.Die(err)
	}

	log.Println("Loading data...")
	trainRec := loadNormalized(cfg.TrainDir)
	validRec := loadNormalized(cfg.ValidDir)

	mirrorSource := trainRec
	if cfg.MirrorValid {
		mirrorSource = validRec
	}
	mirrored, err := deformdata.MirrorX(mirrorSource.Recording)
	if err != nil {
		essentials.Die("Failed to mirror data:", err)
	}

	c := anyvec32.CurrentCreator()
	trainSamples := trainingSamples(c, layout, trainRec.Recording, mirrored)
	validSet, err := deformdata.TeacherForcingDataset(validRec.Recording)
	if err != nil {
		essentials.Die("Failed to create validation set:", err)
	}
	validSamples := validSet.Samples(c)

	var model *deformrnn.Tracker
	if shouldTrain {
		fingerSize := trainRec.ForceSize() + 2
		newTracker := func() *deformrnn.Tracker {
			return deformrnn.NewTracker(c, fingerSize, hiddenSizes...)
		}
		log.Println("Press ctrl+c once to stop...")
		stop := interruptChan()
		if searchCfg.Trials > 0 {
			build := func() (*deformrnn.Tracker, error) {
				return deformrnn.LoadOrCreate(cfg.ModelFile, newTracker)
			}
			searchCfg.Train = *trainCfg
			trials, err := deformtrain.RandomSearch(searchCfg, build, trainSamples,
				validSamples, stop)
			if err != nil {
				essentials.Die("Random search failed:", err)
			}
			if len(trials) == 0 {
				essentials.Die("Random search finished no trials.")
			}
			best := trials[0]
			log.Printf("Best trial: step=%g epsilon=%g valid=%v", best.StepSize, best.Epsilon,
				best.ValidLoss)
			model = best.Model
		} else {
			model = newTracker()
			res, err := deformtrain.Train(trainCfg, model, trainSamples, validSamples, stop)
			if err != nil {
				essentials.Die("Training failed:", err)
			}
			log.Printf("Trained %d epochs: valid=%v", res.Epochs, res.ValidLoss)
		}
		saved, err := deformtrain.SaveIfBetter(cfg.ModelFile, model, validSamples, mode)
		if err != nil {
			essentials.Die("Failed to save model:", err)
		}
		if saved {
			log.Println("Saved model to", cfg.ModelFile)
		} else {
			log.Println("Kept the stored model, which has a lower validation loss.")
			model, err = deformrnn.LoadTracker(cfg.ModelFile)
			if err != nil {
				essentials.Die(err)
			}
		}
	} else {
		model, err = deformrnn.LoadTracker(cfg.ModelFile)
		if err != nil {
			essentials.Die("There is no model saved. Train it first with -train:", err)
		}
		log.Println("Using stored model.")
	}

	for _, m := range []deformrnn.Mode{deformrnn.TeacherForcing, deformrnn.FreeRunning} {
		trainLoss, err := deformtrain.Evaluate(model, trainSamples, m)
		if err != nil {
			essentials.Die(err)
		}
		validLoss, err := deformtrain.Evaluate(model, validSamples, m)
		if err != nil {
			essentials.Die(err)
		}
		log.Printf("%s mode: train loss=%v valid loss=%v", m, trainLoss, validLoss)
	}

	if outFile != "" {
		polys, err := deformtrain.Predict(model, validSet, c, mode)
		if err != nil {
			essentials.Die(err)
		}
		raw := validRec.Params.Frame.InvertPolygons(polys)
		if err := deformio.WritePolygons(outFile, raw); err != nil {
			essentials.Die(err)
		}
		log.Println("Wrote predictions to", outFile)
	}
}

func loadNormalized(dir string) *deformnorm.Normalized {
	rec, err := deformio.LoadRecording(dir)
	if err != nil {
		essentials.Die("Failed to load recording:", err)
	}
	norm, err := deformnorm.Normalize(rec)
	if err != nil {
		essentials.Die("Failed to normalize recording:", err)
	}
	return norm
}

func trainingSamples(c anyvec.Creator, layout string, recs ...*deform.Recording) *deformdata.SampleList {
	switch layout {
	case "teacher":
		var sets []*deformdata.TeacherForcingSet
		for _, rec := range recs {
			set, err := deformdata.TeacherForcingDataset(rec)
			if err != nil {
				essentials.Die("Failed to create training set:", err)
			}
			sets = append(sets, set)
		}
		joined, err := sets[0].Concat(sets[1:]...)
		if err != nil {
			essentials.Die("Failed to join training sets:", err)
		}
		return joined.Samples(c)
	case "single":
		var sets []*deformdata.SingleDataset
		for _, rec := range recs {
			set, err := deformdata.SingleControlPointDataset(rec)
			if err != nil {
				essentials.Die("Failed to create training set:", err)
			}
			sets = append(sets, set)
		}
		return sets[0].Concat(sets[1:]...).Samples(c)
	default:
		essentials.Die("unknown layout:", layout)
		panic("unreachable")
	}
}

func parseSizes(s string) ([]int, error) {
	var res []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, essentials.AddCtx("parse layer sizes", err)
		}
		res = append(res, n)
	}
	return res, nil
}

// interruptChan returns a channel which is closed on the
// first interrupt signal.
// A second interrupt kills the process.
func interruptChan() <-chan struct{} {
	res := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		signal.Stop(sig)
		close(res)
	}()
	return res
}
