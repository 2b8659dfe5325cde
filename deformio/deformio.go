// Package deformio reads and writes the sensor logs and
// control-point archives of sponge deformation trials.
package deformio

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	deform "github.com/LisandroV/Deformation-Tracker"
	"github.com/unixpickle/essentials"
)

var errTokenCount = errors.New("unexpected number of values")

// ReadPositions reads a finger position log, in which
// every line holds an x and a y coordinate.
func ReadPositions(path string) ([]deform.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("read positions", err)
	}
	defer f.Close()
	res, err := parsePositions(f, path)
	if err != nil {
		return nil, essentials.AddCtx("read positions", err)
	}
	return res, nil
}

// ParsePositions is like ReadPositions, but it reads from
// an arbitrary reader.
func ParsePositions(r io.Reader) ([]deform.Point, error) {
	return parsePositions(r, "")
}

func parsePositions(r io.Reader, path string) ([]deform.Point, error) {
	var res []deform.Point
	err := scanRows(r, path, func(row []float64) error {
		if len(row) != 2 {
			return errTokenCount
		}
		res = append(res, deform.Point{X: row[0], Y: row[1]})
		return nil
	})
	return res, err
}

// ReadForces reads a finger force log.
// Every line must have the same number of values as the
// first one.
func ReadForces(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("read forces", err)
	}
	defer f.Close()
	res, err := parseForces(f, path)
	if err != nil {
		return nil, essentials.AddCtx("read forces", err)
	}
	return res, nil
}

// ParseForces is like ReadForces, but it reads from an
// arbitrary reader.
func ParseForces(r io.Reader) ([][]float64, error) {
	return parseForces(r, "")
}

func parseForces(r io.Reader, path string) ([][]float64, error) {
	var res [][]float64
	err := scanRows(r, path, func(row []float64) error {
		if len(res) > 0 && len(row) != len(res[0]) {
			return errTokenCount
		}
		res = append(res, row)
		return nil
	})
	return res, err
}

// scanRows calls f for every line with at least one value.
// Everything after a '#' is a comment.
// Errors from parsing or from f are turned into
// *deform.ParseError values.
func scanRows(r io.Reader, path string, f func(row []float64) error) error {
	scanner := bufio.NewScanner(r)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		content := line
		if idx := strings.IndexByte(content, '#'); idx >= 0 {
			content = content[:idx]
		}
		fields := strings.Fields(content)
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			num, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return &deform.ParseError{Path: path, Line: lineNum, Text: line, Err: err}
			}
			row[i] = num
		}
		if err := f(row); err != nil {
			return &deform.ParseError{Path: path, Line: lineNum, Text: line, Err: err}
		}
	}
	return scanner.Err()
}

// LoadRecording reads the force log, the position log and
// the control-point archive of a trial directory.
func LoadRecording(dir string) (*deform.Recording, error) {
	forces, err := ReadForces(filepath.Join(dir, deform.ForceFile))
	if err != nil {
		return nil, err
	}
	positions, err := ReadPositions(filepath.Join(dir, deform.PositionFile))
	if err != nil {
		return nil, err
	}
	polys, err := ReadPolygons(filepath.Join(dir, deform.ControlPointsFile))
	if err != nil {
		return nil, err
	}
	rec := &deform.Recording{
		Polygons:  polys,
		Positions: positions,
		Forces:    forces,
	}
	if err := rec.Validate(); err != nil {
		return nil, essentials.AddCtx("load "+dir, err)
	}
	return rec, nil
}
