package frame

import (
	"github.com/wippyai/pycall"
)

// existingArgs is the rank-3 strategy: the caller already holds a
// contiguous handle slice in exactly the shape the callee needs. Used alone
// it is passed through with zero copies and zero storage; concatenated with
// other sources it is copied slot-for-slot without touching reference
// counts, the caller's slice keeping the handles alive.
type existingArgs struct {
	handles []pycall.Handle
}

// Existing marshals a borrowed slice of live handles. The slice and every
// handle in it must outlive the call; the frame never takes ownership.
func Existing(handles []pycall.Handle) Args {
	if len(handles) == 0 {
		return emptyArgs{}
	}
	return existingArgs{handles: handles}
}

func (a existingArgs) Len() int    { return len(a.handles) }
func (a existingArgs) Sized() bool { return true }
func (a existingArgs) Empty() bool { return false }

// The borrowed slice cannot host the reserved receiver slot, so it is not
// inline-eligible; Build falls back to a copy when slot 0 is needed.
func (a existingArgs) inlineOK() bool { return false }

func (a existingArgs) frameSlice(pycall.Runtime) ([]pycall.Handle, bool) {
	return a.handles, true
}

func (a existingArgs) foreignTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (a existingArgs) init(rt pycall.Runtime, st *Storage) (guard, error) {
	g := newRangeGuard(rt, st, false)
	for _, h := range a.handles {
		g.writeHandle(h)
	}
	return g, nil
}
