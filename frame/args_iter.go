package frame

import (
	"fmt"
	"iter"

	"github.com/wippyai/pycall"
)

// exactSeqArgs is the rank-4 strategy: an iterator that reports its exact
// remaining length before iterating. The buffer is sized exactly once and
// never re-checked during writes, which is why a wrong count is a contract
// violation rather than an error.
type exactSeqArgs[T any] struct {
	conv pycall.Converter[T]
	seq  iter.Seq[T]
	n    int
}

// FromSeqExact marshals seq, which must yield exactly n elements. The exact
// length enables single-shot buffer sizing; a sequence that yields a
// different count panics, since the claim is relied upon for unchecked
// sizing.
func FromSeqExact[T any](conv pycall.Converter[T], seq iter.Seq[T], n int) Args {
	if n < 0 {
		panic("frame: negative exact length")
	}
	if n == 0 {
		return emptyArgs{}
	}
	return exactSeqArgs[T]{conv: conv, seq: seq, n: n}
}

func (a exactSeqArgs[T]) Len() int       { return a.n }
func (a exactSeqArgs[T]) Sized() bool    { return true }
func (a exactSeqArgs[T]) Empty() bool    { return false }
func (a exactSeqArgs[T]) inlineOK() bool { return true }
func (a exactSeqArgs[T]) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (a exactSeqArgs[T]) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a exactSeqArgs[T]) init(rt pycall.Runtime, st *Storage) (guard, error) {
	g := newRangeGuard(rt, st, true)
	var convErr error
	for v := range a.seq {
		if g.count() == a.n {
			panic(fmt.Sprintf("frame: exact-length source yielded more than %d elements", a.n))
		}
		if convErr = guardedWrite(g, a.conv, v); convErr != nil {
			break
		}
	}
	if convErr != nil {
		g.release()
		return nil, convErr
	}
	if g.count() != a.n {
		panic(fmt.Sprintf("frame: exact-length source yielded %d of %d elements", g.count(), a.n))
	}
	return g, nil
}

// hintSeqArgs is the rank-5 strategy: a cheap but untrusted length hint.
// The buffer is reserved optimistically and the true length is whatever the
// iterator produces.
type hintSeqArgs[T any] struct {
	conv pycall.Converter[T]
	seq  iter.Seq[T]
	hint int
}

// FromSeqHint marshals seq, reserving room for hint elements up front. The
// hint does not have to be right; storage grows if the sequence runs long
// and the frame length follows the actual count.
func FromSeqHint[T any](conv pycall.Converter[T], seq iter.Seq[T], hint int) Args {
	if hint < 0 {
		hint = 0
	}
	return hintSeqArgs[T]{conv: conv, seq: seq, hint: hint}
}

func (a hintSeqArgs[T]) Len() int       { return a.hint }
func (a hintSeqArgs[T]) Sized() bool    { return false }
func (a hintSeqArgs[T]) Empty() bool    { return false }
func (a hintSeqArgs[T]) inlineOK() bool { return false }
func (a hintSeqArgs[T]) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (a hintSeqArgs[T]) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a hintSeqArgs[T]) init(rt pycall.Runtime, st *Storage) (guard, error) {
	st.reserve(a.hint)
	return initFromSeq(rt, st, a.conv, a.seq)
}

// seqArgs is the rank-6 strategy: no length information at all, storage
// grown incrementally.
type seqArgs[T any] struct {
	conv pycall.Converter[T]
	seq  iter.Seq[T]
}

// FromSeq marshals an iterator with no usable length information.
func FromSeq[T any](conv pycall.Converter[T], seq iter.Seq[T]) Args {
	return seqArgs[T]{conv: conv, seq: seq}
}

func (a seqArgs[T]) Len() int       { return 0 }
func (a seqArgs[T]) Sized() bool    { return false }
func (a seqArgs[T]) Empty() bool    { return false }
func (a seqArgs[T]) inlineOK() bool { return false }
func (a seqArgs[T]) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (a seqArgs[T]) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a seqArgs[T]) init(rt pycall.Runtime, st *Storage) (guard, error) {
	return initFromSeq(rt, st, a.conv, a.seq)
}

// initFromSeq converts and writes each element, extending the guard after
// every successful write. The first conversion failure stops iteration
// immediately; elements past it are never converted.
func initFromSeq[T any](rt pycall.Runtime, st *Storage, conv pycall.Converter[T], seq iter.Seq[T]) (guard, error) {
	g := newRangeGuard(rt, st, true)
	var convErr error
	for v := range seq {
		if convErr = guardedWrite(g, conv, v); convErr != nil {
			break
		}
	}
	if convErr != nil {
		g.release()
		return nil, convErr
	}
	return g, nil
}
