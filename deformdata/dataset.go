// Package deformdata turns normalized recordings into
// supervised datasets for sequence models.
//
// Every dataset pairs the state at time step t with the
// control points at time step t+1, so a recording with N
// time steps yields sequences of N-1 steps.
package deformdata

import deform "github.com/LisandroV/Deformation-Tracker"

// A SingleDataset stores one sequence per control point.
//
// Inputs[p][t] is the concatenation of control point p at
// step t, the finger position at step t, and the finger
// force at step t.
// Targets[p][t] is control point p at step t+1.
type SingleDataset struct {
	Inputs  [][][]float64
	Targets [][][]float64
}

// SingleControlPointDataset creates a SingleDataset.
// Sequences are ordered by ascending control point index.
func SingleControlPointDataset(rec *deform.Recording) (*SingleDataset, error) {
	if err := checkDatasetShape(rec); err != nil {
		return nil, err
	}
	numPoints := rec.NumPoints()
	steps := rec.Len() - 1
	res := &SingleDataset{
		Inputs:  make([][][]float64, numPoints),
		Targets: make([][][]float64, numPoints),
	}
	for p := 0; p < numPoints; p++ {
		res.Inputs[p] = make([][]float64, steps)
		res.Targets[p] = make([][]float64, steps)
		for t := 0; t < steps; t++ {
			cp := rec.Polygons[t][p]
			in := append([]float64{cp.X, cp.Y}, fingerVector(rec, t)...)
			res.Inputs[p][t] = in
			next := rec.Polygons[t+1][p]
			res.Targets[p][t] = []float64{next.X, next.Y}
		}
	}
	return res, nil
}

// NumPairs returns the total number of input-target pairs.
func (s *SingleDataset) NumPairs() int {
	var res int
	for _, seq := range s.Inputs {
		res += len(seq)
	}
	return res
}

// Concat appends the sequences of other datasets.
func (s *SingleDataset) Concat(others ...*SingleDataset) *SingleDataset {
	res := &SingleDataset{
		Inputs:  append([][][]float64{}, s.Inputs...),
		Targets: append([][][]float64{}, s.Targets...),
	}
	for _, o := range others {
		res.Inputs = append(res.Inputs, o.Inputs...)
		res.Targets = append(res.Targets, o.Targets...)
	}
	return res
}

// A TeacherForcingSet stores time-major tensors for models
// that can feed either the ground truth or their own
// predictions back in at every step.
//
// For time step t and control point p:
//
//	ControlPoints[t][p] = control point p at step t
//	Finger[t][p]        = finger position and force at step t
//	Targets[t][p]       = control point p at step t+1
//
// The finger vector is the same for every p.
// All of the ground truth is present; models decide
// whether to consume ControlPoints past the first step.
type TeacherForcingSet struct {
	ControlPoints [][][]float64
	Finger        [][][]float64
	Targets       [][][]float64
}

// TeacherForcingDataset creates a TeacherForcingSet.
func TeacherForcingDataset(rec *deform.Recording) (*TeacherForcingSet, error) {
	if err := checkDatasetShape(rec); err != nil {
		return nil, err
	}
	numPoints := rec.NumPoints()
	steps := rec.Len() - 1
	res := &TeacherForcingSet{
		ControlPoints: make([][][]float64, steps),
		Finger:        make([][][]float64, steps),
		Targets:       make([][][]float64, steps),
	}
	for t := 0; t < steps; t++ {
		res.ControlPoints[t] = make([][]float64, numPoints)
		res.Finger[t] = make([][]float64, numPoints)
		res.Targets[t] = make([][]float64, numPoints)
		finger := fingerVector(rec, t)
		for p := 0; p < numPoints; p++ {
			cp := rec.Polygons[t][p]
			next := rec.Polygons[t+1][p]
			res.ControlPoints[t][p] = []float64{cp.X, cp.Y}
			res.Finger[t][p] = append([]float64{}, finger...)
			res.Targets[t][p] = []float64{next.X, next.Y}
		}
	}
	return res, nil
}

// Steps returns the number of time steps.
func (t *TeacherForcingSet) Steps() int {
	return len(t.ControlPoints)
}

// NumSequences returns the number of control point
// sequences.
func (t *TeacherForcingSet) NumSequences() int {
	if len(t.ControlPoints) == 0 {
		return 0
	}
	return len(t.ControlPoints[0])
}

// Concat appends the sequences of other sets along the
// control point dimension.
// All sets must have the same number of time steps.
func (t *TeacherForcingSet) Concat(others ...*TeacherForcingSet) (*TeacherForcingSet, error) {
	res := &TeacherForcingSet{
		ControlPoints: make([][][]float64, t.Steps()),
		Finger:        make([][][]float64, t.Steps()),
		Targets:       make([][][]float64, t.Steps()),
	}
	for _, o := range others {
		if o.Steps() != t.Steps() {
			return nil, &deform.ShapeMismatchError{
				What: "time steps",
				Step: deform.NoStep,
				Want: t.Steps(),
				Got:  o.Steps(),
			}
		}
	}
	for step := range res.ControlPoints {
		res.ControlPoints[step] = append([][]float64{}, t.ControlPoints[step]...)
		res.Finger[step] = append([][]float64{}, t.Finger[step]...)
		res.Targets[step] = append([][]float64{}, t.Targets[step]...)
		for _, o := range others {
			res.ControlPoints[step] = append(res.ControlPoints[step], o.ControlPoints[step]...)
			res.Finger[step] = append(res.Finger[step], o.Finger[step]...)
			res.Targets[step] = append(res.Targets[step], o.Targets[step]...)
		}
	}
	return res, nil
}

func fingerVector(rec *deform.Recording, t int) []float64 {
	pos := rec.Positions[t]
	return append([]float64{pos.X, pos.Y}, rec.Forces[t]...)
}

func checkDatasetShape(rec *deform.Recording) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.Len() < 2 {
		return &deform.ShapeMismatchError{
			What:    "time steps",
			Step:    deform.NoStep,
			Want:    2,
			AtLeast: true,
			Got:     rec.Len(),
		}
	}
	return nil
}
