package frame

import (
	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// A guard owns the obligation to release the handles in a tracked range of
// storage slots. Exactly one of release or transfer happens per guard;
// both leave it inert.
//
// State machine: empty -> writing(k) -> writing(k+1) | transferred | released.
type guard interface {
	// release decrefs every owned handle in the tracked range. Safe to call
	// on an inert guard.
	release()
	// transfer moves the release obligation into the frame (the finalizer's
	// disarm step: ownership now lives with the frame).
	transfer(f *Frame)
	// count reports the number of tracked slots.
	count() int
}

type guardState uint8

const (
	guardArmed guardState = iota
	guardReleased
	guardTransferred
)

// rangeGuard tracks the contiguous initialized prefix [start, end) that one
// source wrote into st. It never caches a base pointer: slots are addressed
// through st at release time, so growable storage relocating underneath is
// harmless.
type rangeGuard struct {
	rt         pycall.Runtime
	st         *Storage
	start, end int
	owned      bool
	state      guardState
}

func newRangeGuard(rt pycall.Runtime, st *Storage, owned bool) *rangeGuard {
	n := st.len()
	return &rangeGuard{rt: rt, st: st, start: n, end: n, owned: owned}
}

func (g *rangeGuard) count() int {
	return g.end - g.start
}

func (g *rangeGuard) release() {
	if g.state != guardArmed {
		return
	}
	g.state = guardReleased
	if !g.owned {
		return
	}
	base := g.st.base()
	for _, h := range base[g.start:g.end] {
		g.rt.DecRef(h)
	}
}

func (g *rangeGuard) transfer(f *Frame) {
	if g.state != guardArmed {
		return
	}
	g.state = guardTransferred
	if g.owned && g.end > g.start {
		f.owned = append(f.owned, span{g.start, g.end})
	}
}

// writeHandle appends an already-converted handle and extends the tracked
// range by one.
func (g *rangeGuard) writeHandle(h pycall.Handle) {
	g.st.push(h)
	g.end++
}

// guardedWrite converts one value through the Conversion Port and writes it,
// extending g. On conversion failure the storage and g are untouched; the
// caller's error path releases the prefix written so far.
func guardedWrite[T any](g *rangeGuard, conv pycall.Converter[T], v T) error {
	h, err := conv(g.rt, v)
	if err != nil {
		return errors.Conversion(g.count(), err)
	}
	g.writeHandle(h)
	return nil
}

// guardedWriteValue is guardedWrite for deferred-conversion thunks.
func (g *rangeGuard) guardedWriteValue(v Value) error {
	h, err := v(g.rt)
	if err != nil {
		return errors.Conversion(g.count(), err)
	}
	g.writeHandle(h)
	return nil
}

// pairGuard combines the guards of two concatenated sources. The ranges are
// disjoint and independent; release order is B then A.
type pairGuard struct {
	a, b guard
}

func (g *pairGuard) count() int { return g.a.count() + g.b.count() }

func (g *pairGuard) release() {
	g.b.release()
	g.a.release()
}

func (g *pairGuard) transfer(f *Frame) {
	g.a.transfer(f)
	g.b.transfer(f)
}

// noGuard is the guard of sources that own nothing (empty sets, borrowed
// zero-copy slices installed without a storage write).
type noGuard struct{}

func (noGuard) count() int        { return 0 }
func (noGuard) release()          {}
func (noGuard) transfer(f *Frame) {}
