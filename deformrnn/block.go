package deformrnn

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
)

// trackerBlock feeds either the input control point or
// the previous output into a Tracker's core.
type trackerBlock struct {
	Tracker *Tracker
	Mode    Mode
}

func (t *trackerBlock) Start(n int) anyrnn.State {
	return &TrackerState{CoreState: t.Tracker.Core.Start(n)}
}

func (t *trackerBlock) PropagateStart(s anyrnn.StateGrad, g anydiff.Grad) {
	t.Tracker.Core.PropagateStart(s.(*TrackerGrad).CoreGrad, g)
}

func (t *trackerBlock) Step(s anyrnn.State, in anyvec.Vector) anyrnn.Res {
	ts := s.(*TrackerState)
	n := s.Present().NumPresent()
	inSize := t.Tracker.PointSize + t.Tracker.FingerSize
	if in.Len() != n*inSize {
		panic(fmt.Sprintf("input length should be %d, but got %d", n*inSize, in.Len()))
	}
	truePoints, finger := splitColumns(in, n, t.Tracker.PointSize)

	res := &trackerRes{
		N:          n,
		FingerPool: anydiff.NewVar(finger),
	}
	if ts.LastOut == nil || t.Mode == TeacherForcing {
		res.PointPool = anydiff.NewVar(truePoints)
	} else {
		res.PointPool = anydiff.NewVar(ts.LastOut.Vector)
		res.FedBack = true
	}
	res.Mixed = anynet.ConcatMixer{}.Mix(res.PointPool, res.FingerPool, n)
	res.CoreRes = t.Tracker.Core.Step(ts.CoreState, res.Mixed.Output())
	res.OutState = &TrackerState{
		CoreState: res.CoreRes.State(),
		LastOut: &anyrnn.VecState{
			Vector:     res.CoreRes.Output(),
			PresentMap: s.Present(),
		},
	}
	return res
}

// TrackerState is the State of a Tracker block.
type TrackerState struct {
	CoreState anyrnn.State

	// LastOut is nil before the first time step.
	LastOut *anyrnn.VecState
}

// Present returns the present map.
func (t *TrackerState) Present() anyrnn.PresentMap {
	return t.CoreState.Present()
}

// Reduce reduces the state.
func (t *TrackerState) Reduce(p anyrnn.PresentMap) anyrnn.State {
	res := &TrackerState{CoreState: t.CoreState.Reduce(p)}
	if t.LastOut != nil {
		res.LastOut = t.LastOut.Reduce(p).(*anyrnn.VecState)
	}
	return res
}

// TrackerGrad is the StateGrad of a Tracker block.
type TrackerGrad struct {
	CoreGrad anyrnn.StateGrad

	// LastOut is nil when the previous output was not fed
	// back into the next time step.
	LastOut *anyrnn.VecState
}

// Present returns the present map.
func (t *TrackerGrad) Present() anyrnn.PresentMap {
	return t.CoreGrad.Present()
}

// Expand expands the gradient.
func (t *TrackerGrad) Expand(p anyrnn.PresentMap) anyrnn.StateGrad {
	res := &TrackerGrad{CoreGrad: t.CoreGrad.Expand(p)}
	if t.LastOut != nil {
		res.LastOut = t.LastOut.Expand(p).(*anyrnn.VecState)
	}
	return res
}

type trackerRes struct {
	N          int
	PointPool  *anydiff.Var
	FingerPool *anydiff.Var
	FedBack    bool
	Mixed      anydiff.Res
	CoreRes    anyrnn.Res
	OutState   *TrackerState
}

func (t *trackerRes) State() anyrnn.State {
	return t.OutState
}

func (t *trackerRes) Output() anyvec.Vector {
	return t.CoreRes.Output()
}

func (t *trackerRes) Vars() anydiff.VarSet {
	return t.CoreRes.Vars()
}

func (t *trackerRes) Propagate(u anyvec.Vector, s anyrnn.StateGrad,
	g anydiff.Grad) (anyvec.Vector, anyrnn.StateGrad) {
	for _, p := range []*anydiff.Var{t.PointPool, t.FingerPool} {
		g[p] = p.Vector.Creator().MakeVector(p.Vector.Len())
		defer func(g anydiff.Grad, p *anydiff.Var) {
			delete(g, p)
		}(g, p)
	}

	var coreUpstream anyrnn.StateGrad
	if s != nil {
		ts := s.(*TrackerGrad)
		coreUpstream = ts.CoreGrad
		if ts.LastOut != nil {
			u.Add(ts.LastOut.Vector)
		}
	}
	mixedDown, coreDown := t.CoreRes.Propagate(u, coreUpstream, g)
	t.Mixed.Propagate(mixedDown, g)

	downState := &TrackerGrad{CoreGrad: coreDown}
	pointDown := g[t.PointPool]
	if t.FedBack {
		downState.LastOut = &anyrnn.VecState{
			Vector:     pointDown,
			PresentMap: t.OutState.Present(),
		}
		pointDown = pointDown.Creator().MakeVector(pointDown.Len())
	}
	inDown := joinColumns(pointDown, g[t.FingerPool], t.N)
	return inDown, downState
}

// splitColumns splits a packed batch of n row vectors into
// the first k columns and the remaining columns.
func splitColumns(v anyvec.Vector, n, k int) (left, right anyvec.Vector) {
	cols := v.Len() / n
	lefts := make([]anyvec.Vector, n)
	rights := make([]anyvec.Vector, n)
	for i := 0; i < n; i++ {
		row := v.Slice(i*cols, (i+1)*cols)
		lefts[i] = row.Slice(0, k)
		rights[i] = row.Slice(k, cols)
	}
	c := v.Creator()
	return c.Concat(lefts...), c.Concat(rights...)
}

// joinColumns is the inverse of splitColumns.
func joinColumns(left, right anyvec.Vector, n int) anyvec.Vector {
	return anynet.ConcatMixer{}.Mix(anydiff.NewConst(left), anydiff.NewConst(right), n).Output()
}
