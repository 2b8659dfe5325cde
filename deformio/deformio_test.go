package deformio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	deform "github.com/LisandroV/Deformation-Tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForces(t *testing.T) {
	forces, err := ParseForces(strings.NewReader("1.0 2.0\n3.0 4.0\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, forces)

	forces, err = ParseForces(strings.NewReader("0.5\n\n-1e-3\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5}, {-1e-3}}, forces)
}

func TestParseForcesWidthMismatch(t *testing.T) {
	_, err := ParseForces(strings.NewReader("1 2\n3\n"))
	var parseErr *deform.ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, 2, parseErr.Line)
}

func TestParsePositions(t *testing.T) {
	positions, err := ParsePositions(strings.NewReader("1 2\n  3.5\t-4\n"))
	require.NoError(t, err)
	assert.Equal(t, []deform.Point{{X: 1, Y: 2}, {X: 3.5, Y: -4}}, positions)
}

func TestParsePositionsErrors(t *testing.T) {
	for _, input := range []string{"1.0\n", "1 2\n1 2 3\n", "1 x\n"} {
		_, err := ParsePositions(strings.NewReader(input))
		var parseErr *deform.ParseError
		assert.True(t, errors.As(err, &parseErr), "input %q: got %v", input, err)
	}
}

func TestParseComments(t *testing.T) {
	positions, err := ParsePositions(strings.NewReader("# x y\n1 2 # start\n\n3 4\n"))
	require.NoError(t, err)
	assert.Equal(t, []deform.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, positions)

	forces, err := ParseForces(strings.NewReader("#force\n0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5}}, forces)
}

func TestReadPositionsMissing(t *testing.T) {
	_, err := ReadPositions(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read positions")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
	var parseErr *deform.ParseError
	assert.False(t, errors.As(err, &parseErr))

	_, err = ReadForces(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestReadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	posPath := filepath.Join(dir, deform.PositionFile)
	writeFile(t, posPath, "1 2\n1.0\n")
	_, err := ReadPositions(posPath)
	var parseErr *deform.ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, posPath, parseErr.Path)
	assert.Equal(t, 2, parseErr.Line)

	forcePath := filepath.Join(dir, deform.ForceFile)
	writeFile(t, forcePath, "0.1\nabc\n")
	_, err = ReadForces(forcePath)
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, forcePath, parseErr.Path)
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, "abc", parseErr.Text)
}

func TestLoadRecording(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, deform.ForceFile), "0.1\n0.2\n")
	writeFile(t, filepath.Join(dir, deform.PositionFile), "1 2\n3 4\n")
	writeNPY(t, filepath.Join(dir, deform.ControlPointsFile), []int{2, 3, 2},
		[]float64{0, 0, 1, 0, 0, 1, 0, 0, 2, 0, 0, 2})

	rec, err := LoadRecording(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Len())
	assert.Equal(t, 3, rec.NumPoints())
	assert.Equal(t, deform.Point{X: 2, Y: 0}, rec.Polygons[1][1])
	assert.Equal(t, []deform.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, rec.Positions)
}

func TestLoadRecordingMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, deform.ForceFile), "0.1\n")
	writeFile(t, filepath.Join(dir, deform.PositionFile), "1 2\n3 4\n")
	writeNPY(t, filepath.Join(dir, deform.ControlPointsFile), []int{2, 1, 2},
		[]float64{0, 0, 1, 1})

	_, err := LoadRecording(dir)
	assert.Error(t, err)
}

func TestReadPolygonsBadShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.npy")
	writeNPY(t, path, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	_, err := ReadPolygons(path)
	var shapeErr *deform.ShapeMismatchError
	assert.True(t, errors.As(err, &shapeErr), "got %v", err)
}

func TestReadPolygonsFloat32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.npy")
	writeNPYAs(t, path, "<f4", false, []int{1, 2, 2}, []float64{1, 2, 3, 4})
	polys, err := ReadPolygons(path)
	require.NoError(t, err)
	assert.Equal(t, [][]deform.Point{{{X: 1, Y: 2}, {X: 3, Y: 4}}}, polys)
}

func TestReadPolygonsFortran(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.npy")
	writeNPYAs(t, path, "<f8", true, []int{1, 2, 2}, []float64{1, 2, 3, 4})
	_, err := ReadPolygons(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortran")
}

func TestWritePolygons(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.txt")
	polys := [][]deform.Point{
		{{X: 1, Y: 2}, {X: -0.5, Y: 0.25}},
		{{X: 3, Y: 4}, {X: 5, Y: 6}},
	}
	require.NoError(t, WritePolygons(path, polys))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 2 -0.5 0.25\n3 4 5 6\n", string(data))

	actual, err := ReadPolygonText(path)
	require.NoError(t, err)
	assert.Equal(t, polys, actual)
}

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

// writeNPY writes a little-endian, C-ordered float64
// array in the version 1.0 .npy format.
func writeNPY(t *testing.T, path string, shape []int, data []float64) {
	writeNPYAs(t, path, "<f8", false, shape, data)
}

// writeNPYAs is like writeNPY with a "<f4" or "<f8" dtype
// and an optional Fortran order flag.
func writeNPYAs(t *testing.T, path, descr string, fortran bool, shape []int, data []float64) {
	var dims []string
	for _, d := range shape {
		dims = append(dims, fmt.Sprint(d))
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }", descr, order,
		shapeStr)
	for (10+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	for _, x := range data {
		switch descr {
		case "<f4":
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(float32(x)))
		case "<f8":
			binary.Write(&buf, binary.LittleEndian, math.Float64bits(x))
		default:
			t.Fatalf("unsupported dtype: %s", descr)
		}
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}
