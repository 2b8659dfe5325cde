// Package deformrnn implements recurrent models that track
// the control points of a deforming object.
package deformrnn

import (
	"errors"
	"fmt"
	"os"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var t Tracker
	serializer.RegisterTypedDeserializer(t.SerializerType(), DeserializeTracker)
}

// A Mode determines where a Tracker gets the control point
// for each time step.
type Mode int

const (
	// TeacherForcing feeds the ground-truth control point
	// from the input sequence at every time step.
	TeacherForcing Mode = iota

	// FreeRunning feeds the ground-truth control point at
	// the first time step, and the model's own prediction
	// from the previous step after that.
	FreeRunning
)

// ParseMode parses the name of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "teacher", "teacher-forcing":
		return TeacherForcing, nil
	case "free", "free-running":
		return FreeRunning, nil
	default:
		return 0, fmt.Errorf("unknown mode: %s", s)
	}
}

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case TeacherForcing:
		return "teacher"
	case FreeRunning:
		return "free"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// A Tracker predicts the next position of a control point
// from its current position and the state of the finger.
//
// Every input vector is a control point (PointSize
// components) followed by a finger vector (FingerSize
// components).
// Core maps the concatenation of the two to the next
// control point.
type Tracker struct {
	PointSize  int
	FingerSize int
	Core       anyrnn.Stack
}

// DeserializeTracker deserializes a Tracker.
func DeserializeTracker(d []byte) (*Tracker, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Tracker", err)
	}
	if len(slice) < 3 {
		return nil, errors.New("deserialize Tracker: missing fields")
	}
	pointSize, ok1 := slice[0].(serializer.Int)
	fingerSize, ok2 := slice[1].(serializer.Int)
	if !ok1 || !ok2 || pointSize <= 0 || fingerSize <= 0 {
		return nil, errors.New("deserialize Tracker: invalid vector sizes")
	}
	res := &Tracker{PointSize: int(pointSize), FingerSize: int(fingerSize)}
	for _, x := range slice[2:] {
		if block, ok := x.(anyrnn.Block); ok {
			res.Core = append(res.Core, block)
		} else {
			return nil, fmt.Errorf("deserialize Tracker: not a Block: %T", x)
		}
	}
	return res, nil
}

// NewTracker creates a Tracker for 2D control points with
// a stack of tanh vanilla RNNs followed by a
// fully-connected output layer.
//
// The hidden argument lists the size of every RNN layer.
// The sponge models used two layers of 15 or 24
// units.
func NewTracker(c anyvec.Creator, fingerSize int, hidden ...int) *Tracker {
	if len(hidden) == 0 {
		panic("at least one hidden layer is required")
	}
	const pointSize = 2
	var core anyrnn.Stack
	inSize := pointSize + fingerSize
	for _, h := range hidden {
		core = append(core, anyrnn.NewVanilla(c, inSize, h, anynet.Tanh))
		inSize = h
	}
	core = append(core, &anyrnn.LayerBlock{
		Layer: anynet.NewFC(c, inSize, pointSize),
	})
	return &Tracker{
		PointSize:  pointSize,
		FingerSize: fingerSize,
		Core:       core,
	}
}

// Apply evaluates the Tracker on a batch of sequences in
// the given mode.
func (t *Tracker) Apply(in anyseq.Seq, mode Mode) anyseq.Seq {
	return anyrnn.Map(in, t.Block(mode))
}

// Block creates an anyrnn.Block which evaluates the
// Tracker in the given mode.
//
// The resulting Block shares parameters with t.
func (t *Tracker) Block(mode Mode) anyrnn.Block {
	switch mode {
	case TeacherForcing, FreeRunning:
	default:
		panic("unknown mode: " + mode.String())
	}
	return &trackerBlock{Tracker: t, Mode: mode}
}

// Parameters returns the parameters of every block in
// t.Core, in order.
func (t *Tracker) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, b := range t.Core {
		if p, ok := b.(anynet.Parameterizer); ok {
			res = append(res, p.Parameters()...)
		}
	}
	return res
}

// SerializerType returns the unique ID used to serialize
// a Tracker with the serializer package.
func (t *Tracker) SerializerType() string {
	return "github.com/LisandroV/Deformation-Tracker/deformrnn.Tracker"
}

// Serialize serializes the Tracker.
// It fails if a block in t.Core cannot be serialized.
func (t *Tracker) Serialize() ([]byte, error) {
	slice := []serializer.Serializer{
		serializer.Int(t.PointSize),
		serializer.Int(t.FingerSize),
	}
	for _, b := range t.Core {
		if s, ok := b.(serializer.Serializer); ok {
			slice = append(slice, s)
		} else {
			return nil, fmt.Errorf("not a Serializer: %T", b)
		}
	}
	return serializer.SerializeSlice(slice)
}

// Save saves the Tracker to a file.
func (t *Tracker) Save(path string) error {
	if err := serializer.SaveAny(path, t); err != nil {
		return essentials.AddCtx("save Tracker", err)
	}
	return nil
}

// LoadTracker loads a Tracker saved with Save.
func LoadTracker(path string) (*Tracker, error) {
	var t *Tracker
	if err := serializer.LoadAny(path, &t); err != nil {
		return nil, essentials.AddCtx("load Tracker", err)
	}
	return t, nil
}

// LoadOrCreate loads the Tracker saved at path, or calls
// create if no file exists there.
func LoadOrCreate(path string, create func() *Tracker) (*Tracker, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return create(), nil
	} else if err != nil {
		return nil, essentials.AddCtx("load Tracker", err)
	}
	return LoadTracker(path)
}
