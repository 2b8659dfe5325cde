package deformnorm

import deform "github.com/LisandroV/Deformation-Tracker"

// Params stores everything needed to undo the
// normalization of a recording.
type Params struct {
	Frame      Frame
	ForceScale float64
}

// Normalized is a normalized recording together with the
// parameters that produced it.
type Normalized struct {
	*deform.Recording
	Params Params
}

// Normalize normalizes every sequence of a recording.
// The control points and finger positions use the same
// frame.
func Normalize(rec *deform.Recording) (*Normalized, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	frame, err := PolygonFrame(rec.Polygons)
	if err != nil {
		return nil, err
	}
	forces, scale, err := NormalizeForces(rec.Forces)
	if err != nil {
		return nil, err
	}
	return &Normalized{
		Recording: &deform.Recording{
			Polygons:  frame.ApplyPolygons(rec.Polygons),
			Positions: frame.ApplyPoints(rec.Positions),
			Forces:    forces,
		},
		Params: Params{Frame: *frame, ForceScale: scale},
	}, nil
}

// Denormalize maps a normalized recording back to raw
// units.
func (p *Params) Denormalize(rec *deform.Recording) *deform.Recording {
	res := &deform.Recording{
		Polygons:  p.Frame.InvertPolygons(rec.Polygons),
		Positions: make([]deform.Point, len(rec.Positions)),
		Forces:    scaleForces(rec.Forces, p.ForceScale),
	}
	for i, pos := range rec.Positions {
		res.Positions[i] = p.Frame.Invert(pos)
	}
	return res
}
