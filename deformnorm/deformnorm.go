// Package deformnorm rescales recordings into bounded
// ranges for model input.
//
// Control points and finger positions share one reference
// frame per recording: the bounding box of every control
// point at every time step.
// Each axis of that box is mapped onto [-1, 1].
// Forces are scaled independently by their largest
// absolute component.
package deformnorm

import (
	"math"

	deform "github.com/LisandroV/Deformation-Tracker"
	"gonum.org/v1/gonum/floats"
)

// A Frame is an axis-aligned reference frame.
type Frame struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// PolygonFrame computes the bounding box of all the
// control points in a polygon sequence.
func PolygonFrame(polys [][]deform.Point) (*Frame, error) {
	if len(polys) == 0 {
		return nil, &deform.ShapeMismatchError{
			What:    "time steps",
			Step:    deform.NoStep,
			Want:    1,
			AtLeast: true,
		}
	}
	if err := deform.CheckPolygons(polys); err != nil {
		return nil, err
	}
	var xs, ys []float64
	for _, poly := range polys {
		for _, p := range poly {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}
	return &Frame{
		MinX: floats.Min(xs),
		MinY: floats.Min(ys),
		MaxX: floats.Max(xs),
		MaxY: floats.Max(ys),
	}, nil
}

// Apply maps a point into the frame.
func (f *Frame) Apply(p deform.Point) deform.Point {
	return deform.Point{
		X: scaleAxis(p.X, f.MinX, f.MaxX),
		Y: scaleAxis(p.Y, f.MinY, f.MaxY),
	}
}

// Invert maps a normalized point back to raw
// coordinates.
func (f *Frame) Invert(p deform.Point) deform.Point {
	return deform.Point{
		X: unscaleAxis(p.X, f.MinX, f.MaxX),
		Y: unscaleAxis(p.Y, f.MinY, f.MaxY),
	}
}

// A degenerate axis maps every value to 0.
func scaleAxis(x, min, max float64) float64 {
	if max == min {
		return 0
	}
	return 2*(x-min)/(max-min) - 1
}

func unscaleAxis(x, min, max float64) float64 {
	if max == min {
		return min
	}
	return (x+1)*(max-min)/2 + min
}

// NormalizePolygons maps every control point into the
// frame of the polygon sequence.
func NormalizePolygons(polys [][]deform.Point) ([][]deform.Point, error) {
	frame, err := PolygonFrame(polys)
	if err != nil {
		return nil, err
	}
	return frame.ApplyPolygons(polys), nil
}

// NormalizeFingerPositions maps finger positions into the
// frame of the corresponding polygon sequence, so that
// they stay comparable with the control points.
func NormalizeFingerPositions(polys [][]deform.Point,
	positions []deform.Point) ([]deform.Point, error) {
	if len(positions) != len(polys) {
		return nil, &deform.ShapeMismatchError{
			What: "finger positions",
			Step: deform.NoStep,
			Want: len(polys),
			Got:  len(positions),
		}
	}
	frame, err := PolygonFrame(polys)
	if err != nil {
		return nil, err
	}
	return frame.ApplyPoints(positions), nil
}

// ApplyPolygons maps a polygon sequence into the frame.
func (f *Frame) ApplyPolygons(polys [][]deform.Point) [][]deform.Point {
	res := make([][]deform.Point, len(polys))
	for i, poly := range polys {
		res[i] = f.ApplyPoints(poly)
	}
	return res
}

// ApplyPoints maps a list of points into the frame.
func (f *Frame) ApplyPoints(points []deform.Point) []deform.Point {
	res := make([]deform.Point, len(points))
	for i, p := range points {
		res[i] = f.Apply(p)
	}
	return res
}

// InvertPolygons maps a normalized polygon sequence back
// to raw coordinates.
func (f *Frame) InvertPolygons(polys [][]deform.Point) [][]deform.Point {
	res := make([][]deform.Point, len(polys))
	for i, poly := range polys {
		res[i] = make([]deform.Point, len(poly))
		for j, p := range poly {
			res[i][j] = f.Invert(p)
		}
	}
	return res
}

// ForceScale computes the largest absolute force
// component, or 1 if every component is zero.
func ForceScale(forces [][]float64) float64 {
	var scale float64
	for _, f := range forces {
		if len(f) == 0 {
			continue
		}
		scale = math.Max(scale, math.Max(math.Abs(floats.Min(f)), math.Abs(floats.Max(f))))
	}
	if scale == 0 {
		return 1
	}
	return scale
}

// NormalizeForces scales forces into [-1, 1].
// It returns the scaled forces and the scale that was
// divided out.
func NormalizeForces(forces [][]float64) ([][]float64, float64, error) {
	for t, f := range forces {
		if len(f) == 0 {
			return nil, 0, &deform.ShapeMismatchError{What: "force width", Step: t, Want: 1,
				AtLeast: true}
		} else if len(f) != len(forces[0]) {
			return nil, 0, &deform.ShapeMismatchError{
				What: "force width",
				Step: t,
				Want: len(forces[0]),
				Got:  len(f),
			}
		}
	}
	scale := ForceScale(forces)
	return scaleForces(forces, 1/scale), scale, nil
}

func scaleForces(forces [][]float64, s float64) [][]float64 {
	res := make([][]float64, len(forces))
	for i, f := range forces {
		res[i] = append([]float64{}, f...)
		floats.Scale(s, res[i])
	}
	return res
}
