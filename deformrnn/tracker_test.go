package deformrnn

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/serializer"
)

func randomInputs(c anyvec.Creator, numSeqs, steps, size int) [][]anyvec.Vector {
	res := make([][]anyvec.Vector, numSeqs)
	for i := range res {
		for j := 0; j < steps; j++ {
			vec := c.MakeVector(size)
			anyvec.Rand(vec, anyvec.Normal, nil)
			res[i] = append(res[i], vec)
		}
	}
	return res
}

func TestTrackerProp(t *testing.T) {
	c := anyvec64.CurrentCreator()
	for _, mode := range []Mode{TeacherForcing, FreeRunning} {
		tracker := NewTracker(c, 3, 4, 3)
		inSeq := anyseq.ConstSeqList(c, randomInputs(c, 3, 4, 5))
		checker := &anydifftest.SeqChecker{
			F: func() anyseq.Seq {
				return tracker.Apply(inSeq, mode)
			},
			V: tracker.Parameters(),
		}
		checker.FullCheck(t)
	}
}

func TestTrackerModes(t *testing.T) {
	c := anyvec64.CurrentCreator()
	tracker := NewTracker(c, 2, 5)
	inputs := randomInputs(c, 2, 3, 4)

	teacher := applySeqs(tracker, inputs, TeacherForcing)
	free := applySeqs(tracker, inputs, FreeRunning)
	for i := range teacher {
		if !vecsClose(teacher[i][0], free[i][0]) {
			t.Errorf("sequence %d: first outputs differ", i)
		}
	}

	// Changing the control points after the first step
	// must only affect teacher forcing.
	changed := make([][]anyvec.Vector, len(inputs))
	for i, seq := range inputs {
		for j, vec := range seq {
			data := append([]float64{}, vec.Data().([]float64)...)
			if j > 0 {
				data[0] += 3
				data[1] -= 3
			}
			changed[i] = append(changed[i], c.MakeVectorData(c.MakeNumericList(data)))
		}
	}
	teacher2 := applySeqs(tracker, changed, TeacherForcing)
	free2 := applySeqs(tracker, changed, FreeRunning)
	for i := range free {
		for j := range free[i] {
			if !vecsClose(free[i][j], free2[i][j]) {
				t.Errorf("sequence %d step %d: free-running output changed", i, j)
			}
		}
		if vecsClose(teacher[i][1], teacher2[i][1]) {
			t.Errorf("sequence %d: teacher forcing ignored the input", i)
		}
	}
}

func TestTrackerFeedsPrediction(t *testing.T) {
	c := anyvec64.CurrentCreator()
	tracker := NewTracker(c, 1, 4)
	inputs := randomInputs(c, 1, 2, 3)

	free := applySeqs(tracker, inputs, FreeRunning)

	// Teacher forcing with the first prediction as the
	// second control point reproduces free running.
	second := append([]float64{}, inputs[0][1].Data().([]float64)...)
	copy(second, free[0][0].Data().([]float64))
	forced := [][]anyvec.Vector{{inputs[0][0], c.MakeVectorData(c.MakeNumericList(second))}}
	teacher := applySeqs(tracker, forced, TeacherForcing)
	if !vecsClose(free[0][1], teacher[0][1]) {
		t.Errorf("expected %v but got %v", free[0][1].Data(), teacher[0][1].Data())
	}
}

func TestTrackerSerialize(t *testing.T) {
	c := anyvec64.CurrentCreator()
	tracker := NewTracker(c, 3, 6, 4)
	data, err := serializer.SerializeAny(tracker)
	if err != nil {
		t.Fatal(err)
	}
	var decoded *Tracker
	if err := serializer.DeserializeAny(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.PointSize != 2 || decoded.FingerSize != 3 {
		t.Fatalf("bad sizes: %d %d", decoded.PointSize, decoded.FingerSize)
	}
	if len(decoded.Parameters()) != len(tracker.Parameters()) {
		t.Fatal("parameter count mismatch")
	}
	inputs := randomInputs(c, 2, 3, 5)
	expected := tracker.Apply(anyseq.ConstSeqList(c, inputs), FreeRunning).Output()
	actual := decoded.Apply(anyseq.ConstSeqList(c, inputs), FreeRunning).Output()
	for i := range expected {
		if !vecsClose(expected[i].Packed, actual[i].Packed) {
			t.Errorf("step %d: outputs differ", i)
		}
	}
}

func TestLoadOrCreate(t *testing.T) {
	c := anyvec64.CurrentCreator()
	path := filepath.Join(t.TempDir(), "tracker")
	var created int
	create := func() *Tracker {
		created++
		return NewTracker(c, 3, 4)
	}

	first, err := LoadOrCreate(path, create)
	if err != nil {
		t.Fatal(err)
	}
	if created != 1 {
		t.Fatalf("expected 1 creation but got %d", created)
	}
	if err := first.Save(path); err != nil {
		t.Fatal(err)
	}

	second, err := LoadOrCreate(path, create)
	if err != nil {
		t.Fatal(err)
	}
	if created != 1 {
		t.Fatal("created a new Tracker although one was saved")
	}
	inputs := randomInputs(c, 2, 3, 5)
	expected := first.Apply(anyseq.ConstSeqList(c, inputs), FreeRunning).Output()
	actual := second.Apply(anyseq.ConstSeqList(c, inputs), FreeRunning).Output()
	for i := range expected {
		if !vecsClose(expected[i].Packed, actual[i].Packed) {
			t.Errorf("step %d: loaded Tracker has different weights", i)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{TeacherForcing, FreeRunning} {
		parsed, err := ParseMode(mode.String())
		if err != nil || parsed != mode {
			t.Errorf("mode %v: got %v, %v", mode, parsed, err)
		}
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Error("expected error")
	}
}

func applySeqs(tracker *Tracker, inputs [][]anyvec.Vector, mode Mode) [][]anyvec.Vector {
	c := inputs[0][0].Creator()
	return anyseq.SeparateSeqs(tracker.Apply(anyseq.ConstSeqList(c, inputs), mode).Output())
}

func vecsClose(v1, v2 anyvec.Vector) bool {
	d1 := v1.Data().([]float64)
	d2 := v2.Data().([]float64)
	if len(d1) != len(d2) {
		return false
	}
	for i, x := range d1 {
		if math.Abs(x-d2[i]) > 1e-8 {
			return false
		}
	}
	return true
}
