package frame

import (
	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// MaxInlineArgs is the largest slot count (positional plus keyword values)
// served by the frame's inline buffer. Larger or unpredictably-sized frames
// spill to a pooled heap buffer.
const MaxInlineArgs = 11

// span is a half-open range of storage slots whose handles the frame owns.
type span struct {
	start, end int
}

// Frame is one assembled call frame: a flat run of argument handles in
// fast-call layout (positional values, then keyword values aligned with the
// names tuple), plus the bookkeeping to release exactly the handles the
// frame owns.
//
// A Frame is single-use: Build it, read its slots (or pass it to Call),
// then Close it. The zero Frame is ready for Build. Declaring the Frame in
// the caller keeps the inline buffer off the heap for small calls.
type Frame struct {
	rt pycall.Runtime

	// inline serves frames of up to MaxInlineArgs slots. Slot 0 is reserved
	// so a receiver can be prepended without copying.
	inline [MaxInlineArgs + 1]pycall.Handle

	st     Storage
	pooled []pycall.Handle // pool-backed buffer, nil when inline or zero-copy
	full   []pycall.Handle // backing incl. the reserved slot, when offset

	// owned lists the slot ranges holding handles the frame must DecRef.
	// Borrowed ranges (zero-copy and copied-borrowed sources) never appear.
	owned    []span
	ownedBuf [4]span

	existing []pycall.Handle // borrowed zero-copy slots, nil otherwise

	positional int
	total      int

	names      pycall.Handle
	namesOwned bool

	// offset reports that full[0] is a free slot ahead of the arguments.
	offset bool
	closed bool
}

// Build assembles args and kw into f. kw must be a sized keyword source;
// unsized sources (streams, foreign mappings) take the dict path in Call.
// On error f holds nothing and needs no Close; on success the caller must
// Close f exactly once.
func Build(rt pycall.Runtime, f *Frame, args Args, kw Kwargs) error {
	f.rt = rt
	f.owned = f.ownedBuf[:0]
	f.closed = false

	if !kw.Sized() {
		return errors.InvalidInput(errors.PhaseAssemble, "unsized keyword source requires the dict path")
	}

	// Statically empty frame: no buffer, no names, nothing to release.
	if args.Empty() && kw.Empty() {
		return nil
	}

	// Zero-copy: a lone borrowed slice already in callee shape.
	if kw.Empty() {
		if s, ok := args.frameSlice(rt); ok {
			f.existing = s
			f.positional = len(s)
			f.total = len(s)
			return nil
		}
	}

	// Resolve the names tuple up front when the source has one interned;
	// otherwise names are collected pair by pair during init.
	var nb *namesBuilder
	cachedNames := pycall.Handle(0)
	if !kw.Empty() {
		if t, ok := kw.namesTuple(rt); ok {
			cachedNames = t
		} else {
			nb = newNamesBuilder(rt)
		}
	}

	sized := args.Sized()
	if sized {
		total := args.Len() + kw.Len()
		if args.inlineOK() && total <= MaxInlineArgs {
			f.st.initFixed(f.inline[1:])
			f.full = f.inline[:]
		} else {
			f.pooled = getSlots(total + 1)
			buf := f.pooled[:total+1]
			f.st.initFixed(buf[1:])
			f.full = buf
		}
		f.offset = true
	} else {
		hint := args.Len() + kw.Len()
		f.pooled = getSlots(hint)
		f.st.initGrowable(f.pooled, hint)
	}

	fail := func(err error) error {
		if nb != nil {
			nb.abort()
		}
		f.reset()
		return err
	}

	ga, err := args.init(rt, &f.st)
	if err != nil {
		return fail(err)
	}
	f.positional = f.st.len()

	gk, err := kw.init(rt, &f.st, nb)
	if err != nil {
		ga.release()
		return fail(err)
	}

	if nb != nil {
		t, err := nb.finish()
		if err != nil {
			gk.release()
			ga.release()
			f.reset()
			return err
		}
		f.names = t
		f.namesOwned = t != 0
	} else {
		f.names = cachedNames
	}

	ga.transfer(f)
	gk.transfer(f)
	f.total = f.st.len()
	return nil
}

// Slots returns the frame's argument handles in fast-call layout: positional
// values first, then one value per name in Names. Borrowed; valid until
// Close.
func (f *Frame) Slots() []pycall.Handle {
	if f.existing != nil {
		return f.existing
	}
	return f.st.base()
}

// Positional reports how many leading slots are positional.
func (f *Frame) Positional() int { return f.positional }

// Len reports the total slot count.
func (f *Frame) Len() int { return f.total }

// Names returns the keyword-names tuple aligned with the trailing slots, or
// the zero handle when the frame has no keywords. Borrowed.
func (f *Frame) Names() pycall.Handle { return f.names }

// slotsWithReceiver prepends recv using the reserved slot when the frame
// has one, copying otherwise. The returned slice borrows recv.
func (f *Frame) slotsWithReceiver(recv pycall.Handle) []pycall.Handle {
	if f.offset {
		f.full[0] = recv
		return f.full[:f.total+1]
	}
	out := make([]pycall.Handle, 0, f.total+1)
	out = append(out, recv)
	return append(out, f.Slots()...)
}

// Close releases every handle the frame owns and recycles its buffer.
// Closing twice is a no-op.
func (f *Frame) Close() {
	if f.closed {
		return
	}
	f.closed = true
	base := f.st.base()
	for _, s := range f.owned {
		for _, h := range base[s.start:s.end] {
			f.rt.DecRef(h)
		}
	}
	if f.namesOwned {
		f.rt.DecRef(f.names)
	}
	f.reset()
}

// reset returns the frame to its zero-value shape, recycling the pooled
// buffer. Owned handles must already be released.
func (f *Frame) reset() {
	if f.pooled != nil {
		putSlots(f.pooled)
		f.pooled = nil
	}
	f.st = Storage{}
	f.full = nil
	f.owned = nil
	f.existing = nil
	f.positional = 0
	f.total = 0
	f.names = 0
	f.namesOwned = false
	f.offset = false
}
