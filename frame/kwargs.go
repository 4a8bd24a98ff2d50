package frame

import (
	"fmt"
	"iter"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// Kwargs describes a keyword-argument source. Like Args, the concrete
// strategy is fixed by the constructor. Keyword sources feed one of two
// call shapes: a flat names-tuple-plus-values layout for the fast-call
// convention, or a dict for the generic convention.
type Kwargs interface {
	// Len reports the pair count; a hint when Sized() is false.
	Len() int
	// Sized reports whether Len is exact. Unsized sources always take the
	// dict path, where length is discovered by insertion.
	Sized() bool
	// Empty reports a statically-empty source.
	Empty() bool
	// namesTuple returns a pre-built (interned) names tuple when the source
	// has one, letting the fast path skip per-call name assembly. Borrowed.
	namesTuple(rt pycall.Runtime) (pycall.Handle, bool)
	// asMapping returns the source as an existing runtime mapping for the
	// generic path, when it already is one. Borrowed.
	asMapping(rt pycall.Runtime) (pycall.Handle, bool)
	// init writes keyword values into st in source order and registers each
	// name with nb. A nil nb means the names tuple was obtained from
	// namesTuple and only values are needed.
	init(rt pycall.Runtime, st *Storage, nb *namesBuilder) (guard, error)
	// writeToDict inserts every pair into dict, reporting how many pairs it
	// attempted. Duplicates silently overwrite; the caller detects them by
	// comparing the total against the dict's final length.
	writeToDict(rt pycall.Runtime, dict pycall.Handle) (int, error)
}

// noKwargs is the empty keyword source.
type noKwargs struct{}

// NoKwargs returns the keyword source with no pairs.
func NoKwargs() Kwargs { return noKwargs{} }

func (noKwargs) Len() int    { return 0 }
func (noKwargs) Sized() bool { return true }
func (noKwargs) Empty() bool { return true }
func (noKwargs) namesTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, true
}
func (noKwargs) asMapping(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}
func (noKwargs) init(pycall.Runtime, *Storage, *namesBuilder) (guard, error) {
	return noGuard{}, nil
}
func (noKwargs) writeToDict(pycall.Runtime, pycall.Handle) (int, error) {
	return 0, nil
}

// namedKwargs pairs an interned name set with per-call values. This is the
// cheapest keyword strategy: on the fast path the names tuple already
// exists and only the values are converted.
type namedKwargs struct {
	kn   *KnownNames
	vals []Value
}

// KwargsNamed binds values to a declared keyword-name set, positionally:
// vals[i] is the value for kn's i-th name. The counts must match.
func KwargsNamed(kn *KnownNames, vals ...Value) Kwargs {
	if len(vals) != kn.Len() {
		panic(fmt.Sprintf("frame: %d values for %d keyword names", len(vals), kn.Len()))
	}
	if len(vals) == 0 {
		return noKwargs{}
	}
	return namedKwargs{kn: kn, vals: vals}
}

func (k namedKwargs) Len() int    { return len(k.vals) }
func (k namedKwargs) Sized() bool { return true }
func (k namedKwargs) Empty() bool { return false }

func (k namedKwargs) namesTuple(rt pycall.Runtime) (pycall.Handle, bool) {
	t, err := k.kn.tuple(rt)
	if err != nil {
		return 0, false
	}
	return t, true
}

func (k namedKwargs) asMapping(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (k namedKwargs) init(rt pycall.Runtime, st *Storage, nb *namesBuilder) (guard, error) {
	g := newRangeGuard(rt, st, true)
	for i, v := range k.vals {
		name := k.kn.names[i]
		if nb != nil {
			if err := nb.add(name); err != nil {
				g.release()
				return nil, err
			}
		}
		h, err := v(rt)
		if err != nil {
			g.release()
			return nil, errors.KeywordConversion(name, err)
		}
		g.writeHandle(h)
	}
	return g, nil
}

func (k namedKwargs) writeToDict(rt pycall.Runtime, dict pycall.Handle) (int, error) {
	for i, v := range k.vals {
		if err := dictWritePair(rt, dict, k.kn.names[i], v); err != nil {
			return 0, err
		}
	}
	return len(k.vals), nil
}

// Pair is one keyword argument for KwargsPairs.
type Pair[T any] struct {
	Name  string
	Value T
}

// pairsKwargs is a homogeneous sized keyword group with per-call names.
type pairsKwargs[T any] struct {
	conv  pycall.Converter[T]
	pairs []Pair[T]
}

// KwargsPairs marshals a sized list of name/value pairs, converting each
// value through conv. Names are assembled per call; prefer KwargsNamed when
// the name set is fixed.
func KwargsPairs[T any](conv pycall.Converter[T], pairs []Pair[T]) Kwargs {
	if len(pairs) == 0 {
		return noKwargs{}
	}
	return pairsKwargs[T]{conv: conv, pairs: pairs}
}

func (k pairsKwargs[T]) Len() int    { return len(k.pairs) }
func (k pairsKwargs[T]) Sized() bool { return true }
func (k pairsKwargs[T]) Empty() bool { return false }
func (k pairsKwargs[T]) namesTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}
func (k pairsKwargs[T]) asMapping(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (k pairsKwargs[T]) init(rt pycall.Runtime, st *Storage, nb *namesBuilder) (guard, error) {
	g := newRangeGuard(rt, st, true)
	for _, p := range k.pairs {
		if nb != nil {
			if err := nb.add(p.Name); err != nil {
				g.release()
				return nil, err
			}
		}
		h, err := k.conv(rt, p.Value)
		if err != nil {
			g.release()
			return nil, errors.KeywordConversion(p.Name, err)
		}
		g.writeHandle(h)
	}
	return g, nil
}

func (k pairsKwargs[T]) writeToDict(rt pycall.Runtime, dict pycall.Handle) (int, error) {
	for _, p := range k.pairs {
		if err := dictWritePair(rt, dict, p.Name, Val(k.conv, p.Value)); err != nil {
			return 0, err
		}
	}
	return len(k.pairs), nil
}

// seqKwargs is an unsized keyword stream.
type seqKwargs[T any] struct {
	conv pycall.Converter[T]
	seq  iter.Seq2[string, T]
}

// KwargsSeq marshals a stream of name/value pairs with no known length.
// Unsized keyword sources always go through the dict path.
func KwargsSeq[T any](conv pycall.Converter[T], seq iter.Seq2[string, T]) Kwargs {
	return seqKwargs[T]{conv: conv, seq: seq}
}

func (k seqKwargs[T]) Len() int    { return 0 }
func (k seqKwargs[T]) Sized() bool { return false }
func (k seqKwargs[T]) Empty() bool { return false }
func (k seqKwargs[T]) namesTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}
func (k seqKwargs[T]) asMapping(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (k seqKwargs[T]) init(rt pycall.Runtime, st *Storage, nb *namesBuilder) (guard, error) {
	g := newRangeGuard(rt, st, true)
	var failed error
	for name, v := range k.seq {
		if nb != nil {
			if failed = nb.add(name); failed != nil {
				break
			}
		}
		h, err := k.conv(rt, v)
		if err != nil {
			failed = errors.KeywordConversion(name, err)
			break
		}
		g.writeHandle(h)
	}
	if failed != nil {
		g.release()
		return nil, failed
	}
	return g, nil
}

func (k seqKwargs[T]) writeToDict(rt pycall.Runtime, dict pycall.Handle) (int, error) {
	n := 0
	var failed error
	for name, v := range k.seq {
		if failed = dictWritePair(rt, dict, name, Val(k.conv, v)); failed != nil {
			break
		}
		n++
	}
	if failed != nil {
		return 0, failed
	}
	return n, nil
}

// dictWritePair converts one value and inserts it under name. The dict
// takes its own references; the temporaries are dropped here.
func dictWritePair(rt pycall.Runtime, dict pycall.Handle, name string, v Value) error {
	key, err := rt.NewString(name)
	if err != nil {
		return errors.Wrap(errors.PhaseAssemble, errors.KindAllocation, err, "interning keyword name")
	}
	val, err := v(rt)
	if err != nil {
		rt.DecRef(key)
		return errors.KeywordConversion(name, err)
	}
	err = rt.DictSet(dict, key, val)
	rt.DecRef(key)
	rt.DecRef(val)
	if err != nil {
		return errors.Wrap(errors.PhaseAssemble, errors.KindAllocation, err, "inserting keyword argument")
	}
	return nil
}
