package frame

import (
	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// foreignSeqArgs is the rank-7 strategy: a foreign sequence object whose
// elements the runtime can expose as a contiguous borrowed view. Alone it
// is reused as the frame's argument slice (or passed as a tuple on the
// generic path) with zero conversion; concatenated it is copied borrowed.
type foreignSeqArgs struct {
	obj pycall.Handle
}

// ForeignSequence marshals an existing runtime sequence object (tuple,
// list, or anything the runtime exposes contiguously). The object must stay
// alive for the duration of the call.
func ForeignSequence(obj pycall.Handle) Args {
	return foreignSeqArgs{obj: obj}
}

func (a foreignSeqArgs) Len() int       { return 0 }
func (a foreignSeqArgs) Sized() bool    { return false }
func (a foreignSeqArgs) Empty() bool    { return false }
func (a foreignSeqArgs) inlineOK() bool { return false }

func (a foreignSeqArgs) frameSlice(rt pycall.Runtime) ([]pycall.Handle, bool) {
	return rt.SequenceSlice(a.obj)
}

func (a foreignSeqArgs) foreignTuple(rt pycall.Runtime) (pycall.Handle, bool) {
	if _, ok := rt.TupleSlice(a.obj); ok {
		return a.obj, true
	}
	return 0, false
}

func (a foreignSeqArgs) init(rt pycall.Runtime, st *Storage) (guard, error) {
	elems, ok := rt.SequenceSlice(a.obj)
	if !ok {
		return nil, errors.NotIterable("object does not expose a contiguous sequence view")
	}
	st.reserve(len(elems))
	g := newRangeGuard(rt, st, false)
	for _, h := range elems {
		g.writeHandle(h)
	}
	return g, nil
}

// foreignIterArgs is the rank-8 strategy: a foreign iterable whose items
// are produced one at a time as owned handles.
type foreignIterArgs struct {
	obj pycall.Handle
}

// ForeignIterable marshals any iterable runtime object, draining its
// iterator into the frame.
func ForeignIterable(obj pycall.Handle) Args {
	return foreignIterArgs{obj: obj}
}

func (a foreignIterArgs) Len() int       { return 0 }
func (a foreignIterArgs) Sized() bool    { return false }
func (a foreignIterArgs) Empty() bool    { return false }
func (a foreignIterArgs) inlineOK() bool { return false }
func (a foreignIterArgs) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return nil, false
}
func (a foreignIterArgs) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a foreignIterArgs) init(rt pycall.Runtime, st *Storage) (guard, error) {
	it, ok := rt.Iterate(a.obj)
	if !ok {
		return nil, errors.NotIterable("object is not iterable")
	}
	g := newRangeGuard(rt, st, true)
	for {
		h, more, err := it.Next()
		if err != nil {
			g.release()
			return nil, errors.Conversion(g.count(), err)
		}
		if !more {
			break
		}
		g.writeHandle(h)
	}
	return g, nil
}
