package deform

import "fmt"

// A ParseError indicates a malformed line in a sensor log.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (p *ParseError) Error() string {
	name := p.Path
	if name == "" {
		name = "input"
	}
	return fmt.Sprintf("parse %s line %d (%q): %v", name, p.Line, p.Text, p.Err)
}

// Unwrap returns the underlying error.
func (p *ParseError) Unwrap() error {
	return p.Err
}

// A ShapeMismatchError indicates that the sequences of a
// recording are misaligned, or that its polygons do not
// all have the same number of control points.
type ShapeMismatchError struct {
	What string

	// Step is the offending time step, or NoStep.
	Step int

	// Want is a lower bound rather than an exact size if
	// AtLeast is set.
	Want    int
	AtLeast bool

	Got int
}

// NoStep is the Step of a ShapeMismatchError which does
// not concern a single time step.
const NoStep = -1

func (s *ShapeMismatchError) Error() string {
	want := fmt.Sprint(s.Want)
	if s.AtLeast {
		want = "at least " + want
	}
	if s.Step >= 0 {
		return fmt.Sprintf("shape mismatch: %s at step %d: expected %s but got %d",
			s.What, s.Step, want, s.Got)
	}
	return fmt.Sprintf("shape mismatch: %s: expected %s but got %d", s.What, want, s.Got)
}
