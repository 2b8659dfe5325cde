package deformtrain

import (
	"os"

	"github.com/LisandroV/Deformation-Tracker/deformdata"
	"github.com/LisandroV/Deformation-Tracker/deformrnn"
	"github.com/unixpickle/essentials"
)

// SaveIfBetter saves model to path unless the Tracker
// already stored there has a validation loss no larger
// than model's.
//
// A stored Tracker with different vector sizes is always
// replaced.
// The returned flag reports whether model was saved.
func SaveIfBetter(path string, model *deformrnn.Tracker, valid *deformdata.SampleList,
	mode deformrnn.Mode) (saved bool, err error) {
	defer essentials.AddCtxTo("save best model", &err)
	loss, err := Evaluate(model, valid, mode)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		stored, err := deformrnn.LoadTracker(path)
		if err != nil {
			return false, err
		}
		if stored.PointSize == model.PointSize && stored.FingerSize == model.FingerSize {
			storedLoss, err := Evaluate(stored, valid, mode)
			if err != nil {
				return false, err
			}
			if storedLoss <= loss {
				return false, nil
			}
		}
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := model.Save(path); err != nil {
		return false, err
	}
	return true, nil
}
