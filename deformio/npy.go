package deformio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	deform "github.com/LisandroV/Deformation-Tracker"
	"github.com/sbinet/npyio"
	"github.com/unixpickle/essentials"
)

// ReadPolygons reads a control-point archive.
//
// The archive must be a C-ordered float32 or float64
// array of shape (time steps, control points, 2).
func ReadPolygons(path string) ([][]deform.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("read polygons", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, essentials.AddCtx("read polygons", err)
	}
	if r.Header.Descr.Fortran {
		return nil, fmt.Errorf("read polygons: %s: fortran order is not supported", path)
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 3 {
		return nil, &deform.ShapeMismatchError{What: "archive dimensions", Step: deform.NoStep, Want: 3, Got: len(shape)}
	}
	if shape[2] != 2 {
		return nil, &deform.ShapeMismatchError{What: "coordinates per point", Step: deform.NoStep,
			Want: 2, Got: shape[2]}
	}

	var data []float64
	switch r.Header.Descr.Type {
	case "<f8", "f8", "float64":
		if err := r.Read(&data); err != nil {
			return nil, essentials.AddCtx("read polygons", err)
		}
	case "<f4", "f4", "float32":
		var data32 []float32
		if err := r.Read(&data32); err != nil {
			return nil, essentials.AddCtx("read polygons", err)
		}
		data = make([]float64, len(data32))
		for i, x := range data32 {
			data[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("read polygons: %s: unsupported dtype %s", path,
			r.Header.Descr.Type)
	}

	return polygonsFromFlat(data, shape[0], shape[1])
}

func polygonsFromFlat(data []float64, steps, points int) ([][]deform.Point, error) {
	if len(data) != steps*points*2 {
		return nil, &deform.ShapeMismatchError{
			What: "archive values",
			Step: deform.NoStep,
			Want: steps * points * 2,
			Got:  len(data),
		}
	}
	res := make([][]deform.Point, steps)
	for t := range res {
		res[t] = make([]deform.Point, points)
		for p := range res[t] {
			idx := (t*points + p) * 2
			res[t][p] = deform.Point{X: data[idx], Y: data[idx+1]}
		}
	}
	return res, nil
}

// WritePolygons writes a polygon sequence as text, one
// time step per line, in the form "x0 y0 x1 y1 ...".
func WritePolygons(path string, polys [][]deform.Point) (err error) {
	defer essentials.AddCtxTo("write polygons", &err)
	if err := deform.CheckPolygons(polys); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	w := bufio.NewWriter(f)
	for _, poly := range polys {
		for i, p := range poly {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

// ReadPolygonText reads a file written by WritePolygons.
func ReadPolygonText(path string) ([][]deform.Point, error) {
	rows, err := ReadForces(path)
	if err != nil {
		return nil, essentials.AddCtx("read polygon text", err)
	}
	res := make([][]deform.Point, len(rows))
	for t, row := range rows {
		if len(row)%2 != 0 {
			return nil, &deform.ShapeMismatchError{What: "coordinate pairs", Step: t,
				Want: len(row) + 1, Got: len(row)}
		}
		res[t] = make([]deform.Point, len(row)/2)
		for i := range res[t] {
			res[t][i] = deform.Point{X: row[2*i], Y: row[2*i+1]}
		}
	}
	return res, nil
}
