package deformdata

import deform "github.com/LisandroV/Deformation-Tracker"

// An Axis selects the coordinate negated by Mirror.
type Axis int

const (
	// XAxis negates x coordinates.
	XAxis Axis = iota

	// YAxis negates y coordinates.
	YAxis
)

// Mirror reflects the control points and finger positions
// of a recording by negating one coordinate.
// Forces are copied unchanged.
//
// Mirror should only be used to augment training data.
// On a normalized recording, the reflection is about the
// centre of the reference frame.
func Mirror(rec *deform.Recording, axis Axis) (*deform.Recording, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	res := rec.Copy()
	for _, poly := range res.Polygons {
		for i := range poly {
			poly[i] = mirrorPoint(poly[i], axis)
		}
	}
	for i := range res.Positions {
		res.Positions[i] = mirrorPoint(res.Positions[i], axis)
	}
	return res, nil
}

// MirrorX is equivalent to Mirror(rec, XAxis).
func MirrorX(rec *deform.Recording) (*deform.Recording, error) {
	return Mirror(rec, XAxis)
}

func mirrorPoint(p deform.Point, axis Axis) deform.Point {
	switch axis {
	case XAxis:
		p.X = -p.X
	case YAxis:
		p.Y = -p.Y
	default:
		panic("unknown mirror axis")
	}
	return p
}
