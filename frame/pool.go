package frame

import (
	"sync"

	"github.com/wippyai/pycall"
)

// Slot buffers for frames too large (or too unpredictable) for the inline
// array. Oversized buffers are not returned to the pool so a single huge
// call cannot pin memory for the rest of the process.
const maxPooledSlots = 1024

var slotPool = sync.Pool{
	New: func() any {
		s := make([]pycall.Handle, 0, 4*(MaxInlineArgs+1))
		return &s
	},
}

// getSlots returns a zero-length buffer with capacity for at least n slots.
func getSlots(n int) []pycall.Handle {
	p := slotPool.Get().(*[]pycall.Handle)
	s := *p
	if cap(s) < n {
		slotPool.Put(p)
		return make([]pycall.Handle, 0, n)
	}
	return s[:0]
}

// putSlots recycles a buffer obtained from getSlots.
func putSlots(s []pycall.Handle) {
	if s == nil || cap(s) > maxPooledSlots {
		return
	}
	s = s[:0]
	slotPool.Put(&s)
}
