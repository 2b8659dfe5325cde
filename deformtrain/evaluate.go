package deformtrain

import (
	"errors"

	deform "github.com/LisandroV/Deformation-Tracker"
	"github.com/LisandroV/Deformation-Tracker/deformdata"
	"github.com/LisandroV/Deformation-Tracker/deformrnn"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// Evaluate computes the mean squared error of a Tracker on
// a list of samples.
// The error is averaged over every time step, sequence,
// and coordinate.
func Evaluate(model *deformrnn.Tracker, samples *deformdata.SampleList,
	mode deformrnn.Mode) (float64, error) {
	if samples.Len() == 0 {
		return 0, errors.New("evaluate: empty sample list")
	}
	actual, err := apply(model, samples, mode)
	if err != nil {
		return 0, essentials.AddCtx("evaluate", err)
	}
	var sum float64
	var count int
	for i, seq := range samples.Targets {
		for t, target := range seq {
			for j, x := range target {
				diff := actual[t][i*len(target)+j] - x
				sum += diff * diff
				count++
			}
		}
	}
	return sum / float64(count), nil
}

// Predict rolls a Tracker out over every control point of
// a dataset.
//
// The first polygon of the result is the ground-truth
// starting polygon; polygon t+1 is the prediction made at
// time step t.
func Predict(model *deformrnn.Tracker, set *deformdata.TeacherForcingSet,
	c anyvec.Creator, mode deformrnn.Mode) ([][]deform.Point, error) {
	if set.Steps() == 0 || set.NumSequences() == 0 {
		return nil, errors.New("predict: empty dataset")
	}
	actual, err := apply(model, set.Samples(c), mode)
	if err != nil {
		return nil, essentials.AddCtx("predict", err)
	}
	res := make([][]deform.Point, set.Steps()+1)
	res[0] = make([]deform.Point, set.NumSequences())
	for p, cp := range set.ControlPoints[0] {
		res[0][p] = deform.Point{X: cp[0], Y: cp[1]}
	}
	for t, out := range actual {
		res[t+1] = make([]deform.Point, set.NumSequences())
		for p := range res[t+1] {
			res[t+1][p] = deform.Point{X: out[2*p], Y: out[2*p+1]}
		}
	}
	return res, nil
}

// apply evaluates the model on every sample at once and
// returns the packed output of each time step.
// All the sequences must have the same length.
func apply(model *deformrnn.Tracker, samples *deformdata.SampleList,
	mode deformrnn.Mode) ([][]float64, error) {
	ins := make([][]anyvec.Vector, samples.Len())
	for i := range ins {
		sample, err := samples.GetSample(i)
		if err != nil {
			return nil, err
		}
		if len(sample.Input) != len(samples.Inputs[0]) {
			return nil, &deform.ShapeMismatchError{
				What: "sequence length",
				Step: deform.NoStep,
				Want: len(samples.Inputs[0]),
				Got:  len(sample.Input),
			}
		}
		ins[i] = sample.Input
	}
	seq := anyseq.ConstSeqList(samples.Creator(), ins)
	out := model.Apply(seq, mode).Output()
	res := make([][]float64, len(out))
	for i, batch := range out {
		res[i] = vecFloats(batch.Packed)
	}
	return res, nil
}

func vecFloats(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		return data
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	default:
		panic("unsupported numeric type")
	}
}

func numericFloat(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
