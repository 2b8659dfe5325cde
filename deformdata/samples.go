package deformdata

import (
	"github.com/unixpickle/anynet/anys2s"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
)

// A SampleList is an anys2s.SampleList with one sequence
// per control point.
//
// At every step, the input is a control point followed by
// the finger vector, and the output is the control point
// at the next step.
type SampleList struct {
	Inputs  [][][]float64
	Targets [][][]float64
	C       anyvec.Creator
}

// Samples creates a SampleList for the dataset.
func (s *SingleDataset) Samples(c anyvec.Creator) *SampleList {
	return &SampleList{Inputs: s.Inputs, Targets: s.Targets, C: c}
}

// Samples creates a SampleList for the set.
// The sequence for control point p combines
// ControlPoints[t][p] and Finger[t][p] for every t.
func (t *TeacherForcingSet) Samples(c anyvec.Creator) *SampleList {
	res := &SampleList{
		Inputs:  make([][][]float64, t.NumSequences()),
		Targets: make([][][]float64, t.NumSequences()),
		C:       c,
	}
	for p := range res.Inputs {
		res.Inputs[p] = make([][]float64, t.Steps())
		res.Targets[p] = make([][]float64, t.Steps())
		for step := range res.Inputs[p] {
			in := append([]float64{}, t.ControlPoints[step][p]...)
			res.Inputs[p][step] = append(in, t.Finger[step][p]...)
			res.Targets[p][step] = t.Targets[step][p]
		}
	}
	return res
}

// Len returns the number of sequences.
func (s *SampleList) Len() int {
	return len(s.Inputs)
}

// Swap swaps two sequences.
func (s *SampleList) Swap(i, j int) {
	s.Inputs[i], s.Inputs[j] = s.Inputs[j], s.Inputs[i]
	s.Targets[i], s.Targets[j] = s.Targets[j], s.Targets[i]
}

// Slice creates a shallow copy of a range of sequences.
func (s *SampleList) Slice(i, j int) anysgd.SampleList {
	return &SampleList{
		Inputs:  append([][][]float64{}, s.Inputs[i:j]...),
		Targets: append([][][]float64{}, s.Targets[i:j]...),
		C:       s.C,
	}
}

// Creator returns the creator used for vectors.
func (s *SampleList) Creator() anyvec.Creator {
	return s.C
}

// GetSample generates the vectors for a sequence.
func (s *SampleList) GetSample(idx int) (*anys2s.Sample, error) {
	return &anys2s.Sample{
		Input:  s.vectors(s.Inputs[idx]),
		Output: s.vectors(s.Targets[idx]),
	}, nil
}

// InputSize returns the size of each input vector.
func (s *SampleList) InputSize() int {
	if len(s.Inputs) == 0 || len(s.Inputs[0]) == 0 {
		return 0
	}
	return len(s.Inputs[0][0])
}

func (s *SampleList) vectors(rows [][]float64) []anyvec.Vector {
	res := make([]anyvec.Vector, len(rows))
	for i, row := range rows {
		res[i] = s.C.MakeVectorData(s.C.MakeNumericList(row))
	}
	return res
}
