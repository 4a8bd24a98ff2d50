package frame

import (
	"github.com/wippyai/pycall"
)

// Value is a deferred conversion of one argument: it runs the Conversion
// Port for a single element when the frame is initialized. Values let a
// heterogeneous group of arguments share one storage without a common
// element type.
type Value func(rt pycall.Runtime) (pycall.Handle, error)

// Val defers the conversion of v through conv.
func Val[T any](conv pycall.Converter[T], v T) Value {
	return func(rt pycall.Runtime) (pycall.Handle, error) {
		return conv(rt, v)
	}
}

// HandleVal wraps an existing borrowed handle as a Value. The frame takes its
// own reference when the value is written.
func HandleVal(h pycall.Handle) Value {
	return func(rt pycall.Runtime) (pycall.Handle, error) {
		rt.IncRef(h)
		return h, nil
	}
}

// Args describes a positional-argument source together with the storage
// strategy that will marshal it. Concrete strategies are chosen by
// constructor — one constructor per rule in the strategy ladder — so the
// choice is fixed at the API boundary and the layer itself performs no type
// tests.
type Args interface {
	// Len reports the element count. When Sized() is false this is only a
	// lower-bound hint used for buffer reservation.
	Len() int
	// Sized reports whether Len is exact and known before any conversion.
	Sized() bool
	// Empty reports a statically-empty source (enables the no-buffer path).
	Empty() bool
	// inlineOK reports whether this source may live in the frame's inline
	// small-count buffer.
	inlineOK() bool
	// frameSlice returns a borrowed handle slice already in callee shape,
	// when the source supports the zero-copy path.
	frameSlice(rt pycall.Runtime) ([]pycall.Handle, bool)
	// foreignTuple returns the source as an existing runtime tuple, for the
	// generic-convention path that wants a tuple anyway. Borrowed.
	foreignTuple(rt pycall.Runtime) (pycall.Handle, bool)
	// init converts every element into st in source order, returning a guard
	// over the written range. On error the source has already released any
	// prefix it wrote, and remaining elements were never converted.
	init(rt pycall.Runtime, st *Storage) (guard, error)
}

// emptyArgs is the rank-1 strategy: zero arguments, no storage, no guard.
type emptyArgs struct{}

// Empty returns the argument source with no elements.
func Empty() Args { return emptyArgs{} }

func (emptyArgs) Len() int        { return 0 }
func (emptyArgs) Sized() bool     { return true }
func (emptyArgs) Empty() bool     { return true }
func (emptyArgs) inlineOK() bool  { return true }
func (emptyArgs) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (emptyArgs) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}
func (emptyArgs) init(pycall.Runtime, *Storage) (guard, error) {
	return noGuard{}, nil
}
