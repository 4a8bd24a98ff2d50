package frame

import (
	"github.com/wippyai/pycall"
)

// sliceArgs is the rank-2 strategy: a homogeneous group whose length is
// known up front. Qualifies for the inline small-count buffer.
type sliceArgs[T any] struct {
	conv pycall.Converter[T]
	vals []T
}

// FromSlice marshals vals in order, converting each element through conv.
// The length is known before any conversion, so the frame can size its
// storage exactly and small groups stay in the inline buffer.
func FromSlice[T any](conv pycall.Converter[T], vals []T) Args {
	if len(vals) == 0 {
		return emptyArgs{}
	}
	return sliceArgs[T]{conv: conv, vals: vals}
}

func (a sliceArgs[T]) Len() int       { return len(a.vals) }
func (a sliceArgs[T]) Sized() bool    { return true }
func (a sliceArgs[T]) Empty() bool    { return false }
func (a sliceArgs[T]) inlineOK() bool { return true }
func (a sliceArgs[T]) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (a sliceArgs[T]) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a sliceArgs[T]) init(rt pycall.Runtime, st *Storage) (guard, error) {
	g := newRangeGuard(rt, st, true)
	for _, v := range a.vals {
		if err := guardedWrite(g, a.conv, v); err != nil {
			g.release()
			return nil, err
		}
	}
	return g, nil
}

// tupleArgs is the rank-9 strategy: a fixed group of heterogeneous values,
// written one field at a time through chained guarded writes. Storage-wise
// it behaves exactly like sliceArgs.
type tupleArgs struct {
	vals []Value
}

// Positional marshals a heterogeneous fixed group of arguments. Each Value
// carries its own deferred conversion; the group's length is known up front.
func Positional(vals ...Value) Args {
	if len(vals) == 0 {
		return emptyArgs{}
	}
	return tupleArgs{vals: vals}
}

func (a tupleArgs) Len() int       { return len(a.vals) }
func (a tupleArgs) Sized() bool    { return true }
func (a tupleArgs) Empty() bool    { return false }
func (a tupleArgs) inlineOK() bool { return true }
func (a tupleArgs) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (a tupleArgs) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a tupleArgs) init(rt pycall.Runtime, st *Storage) (guard, error) {
	g := newRangeGuard(rt, st, true)
	for _, v := range a.vals {
		if err := g.guardedWriteValue(v); err != nil {
			g.release()
			return nil, err
		}
	}
	return g, nil
}
