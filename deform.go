// Package deform provides the shared types for tracking the
// deformation of a soft object (a sponge) from the position
// and force of the finger pushing it.
//
// Sub-packages read recorded trials (deformio), normalize
// them (deformnorm), shape them into sequence datasets
// (deformdata), and train recurrent models on the result
// (deformrnn, deformtrain).
package deform

// A Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// A Recording stores one experimental trial.
//
// Polygons[t] is the contour of the object at time step
// t, given as a fixed number of control points.
// Positions[t] and Forces[t] describe the finger at the
// same time step.
type Recording struct {
	Polygons  [][]Point
	Positions []Point
	Forces    [][]float64
}

// Len returns the number of time steps.
func (r *Recording) Len() int {
	return len(r.Polygons)
}

// NumPoints returns the number of control points per time
// step, or 0 for an empty recording.
func (r *Recording) NumPoints() int {
	if len(r.Polygons) == 0 {
		return 0
	}
	return len(r.Polygons[0])
}

// ForceSize returns the number of components per force
// reading, or 0 for an empty recording.
func (r *Recording) ForceSize() int {
	if len(r.Forces) == 0 {
		return 0
	}
	return len(r.Forces[0])
}

// Validate checks that the three sequences share a time
// axis, that every polygon has the same number of points,
// and that every force reading has the same width.
func (r *Recording) Validate() error {
	if err := CheckPolygons(r.Polygons); err != nil {
		return err
	}
	if len(r.Positions) != len(r.Polygons) {
		return &ShapeMismatchError{
			What: "finger positions",
			Step: NoStep,
			Want: len(r.Polygons),
			Got:  len(r.Positions),
		}
	}
	if len(r.Forces) != len(r.Polygons) {
		return &ShapeMismatchError{
			What: "finger forces",
			Step: NoStep,
			Want: len(r.Polygons),
			Got:  len(r.Forces),
		}
	}
	for t, f := range r.Forces {
		if len(f) == 0 {
			return &ShapeMismatchError{What: "force width", Step: t, Want: 1, AtLeast: true}
		} else if len(f) != len(r.Forces[0]) {
			return &ShapeMismatchError{
				What: "force width",
				Step: t,
				Want: len(r.Forces[0]),
				Got:  len(f),
			}
		}
	}
	return nil
}

// CheckPolygons verifies that every time step has the
// same, non-zero number of control points.
func CheckPolygons(polys [][]Point) error {
	for t, p := range polys {
		if len(p) == 0 {
			return &ShapeMismatchError{
				What:    "control point count",
				Step:    t,
				Want:    1,
				AtLeast: true,
			}
		} else if len(p) != len(polys[0]) {
			return &ShapeMismatchError{
				What: "control point count",
				Step: t,
				Want: len(polys[0]),
				Got:  len(p),
			}
		}
	}
	return nil
}

// Copy creates a deep copy of the recording.
func (r *Recording) Copy() *Recording {
	res := &Recording{
		Polygons:  make([][]Point, len(r.Polygons)),
		Positions: append([]Point{}, r.Positions...),
		Forces:    make([][]float64, len(r.Forces)),
	}
	for i, p := range r.Polygons {
		res.Polygons[i] = append([]Point{}, p...)
	}
	for i, f := range r.Forces {
		res.Forces[i] = append([]float64{}, f...)
	}
	return res
}
