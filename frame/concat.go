package frame

import (
	"github.com/wippyai/pycall"
)

// concatArgs composes two positional sources into one logical sequence.
// A's elements are initialized before B's, so left-to-right evaluation
// order of side effects is preserved. The combined guard is a pair: each
// sub-range keeps its own release logic.
type concatArgs struct {
	a, b Args
}

// Concat composes two argument sources. Empty sides cancel out; a result
// with one unsized side loses exact sizing and falls back to growable
// storage.
func Concat(a, b Args) Args {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return concatArgs{a: a, b: b}
}

func (c concatArgs) Len() int       { return c.a.Len() + c.b.Len() }
func (c concatArgs) Sized() bool    { return c.a.Sized() && c.b.Sized() }
func (c concatArgs) Empty() bool    { return false }
func (c concatArgs) inlineOK() bool { return c.a.inlineOK() && c.b.inlineOK() }
func (c concatArgs) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (c concatArgs) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (c concatArgs) init(rt pycall.Runtime, st *Storage) (guard, error) {
	ga, err := c.a.init(rt, st)
	if err != nil {
		return nil, err
	}
	gb, err := c.b.init(rt, st)
	if err != nil {
		// B released its own prefix before returning; A's range is ours.
		ga.release()
		return nil, err
	}
	return &pairGuard{a: ga, b: gb}, nil
}

// concatKwargs composes two keyword sources. Name deduplication spans both
// sides: a name supplied in A and again in B is rejected.
type concatKwargs struct {
	a, b Kwargs
}

// ConcatKwargs composes two keyword sources, A's pairs before B's.
func ConcatKwargs(a, b Kwargs) Kwargs {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return concatKwargs{a: a, b: b}
}

func (c concatKwargs) Len() int    { return c.a.Len() + c.b.Len() }
func (c concatKwargs) Sized() bool { return c.a.Sized() && c.b.Sized() }
func (c concatKwargs) Empty() bool { return false }

// A combined group can never reuse a cached names tuple: the union of names
// is built (and checked for duplicates) per call.
func (c concatKwargs) namesTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (c concatKwargs) asMapping(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (c concatKwargs) init(rt pycall.Runtime, st *Storage, nb *namesBuilder) (guard, error) {
	ga, err := c.a.init(rt, st, nb)
	if err != nil {
		return nil, err
	}
	gb, err := c.b.init(rt, st, nb)
	if err != nil {
		ga.release()
		return nil, err
	}
	return &pairGuard{a: ga, b: gb}, nil
}

func (c concatKwargs) writeToDict(rt pycall.Runtime, dict pycall.Handle) (int, error) {
	na, err := c.a.writeToDict(rt, dict)
	if err != nil {
		return 0, err
	}
	nb, err := c.b.writeToDict(rt, dict)
	if err != nil {
		return 0, err
	}
	return na + nb, nil
}
