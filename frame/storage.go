package frame

import (
	"slices"

	"github.com/wippyai/pycall"
)

// Storage is a contiguous run of handle-sized slots filled front to back.
// Every slot is either uninitialized (beyond len) or holds exactly one
// handle; slots are never read before being pushed.
//
// Two kinds exist behind one type: fixed storage wraps a caller-provided
// buffer (the frame's inline array) and never relocates; growable storage
// appends into a heap buffer that may relocate on growth. Code that needs
// the base address must re-read it through the Storage after any push or
// reserve — guards hold a *Storage and slot indices for exactly this reason.
type Storage struct {
	slots []pycall.Handle
	fixed bool
}

func (s *Storage) initFixed(buf []pycall.Handle) {
	s.slots = buf[:0]
	s.fixed = true
}

func (s *Storage) initGrowable(buf []pycall.Handle, sizeHint int) {
	s.slots = buf[:0]
	s.fixed = false
	if sizeHint > 0 {
		s.reserve(sizeHint)
	}
}

// reserve makes room for n more slots. The base address is invalid after
// this call; re-read it via base().
func (s *Storage) reserve(n int) {
	if s.fixed {
		if s.len()+n > cap(s.slots) {
			panic("frame: fixed storage cannot grow")
		}
		return
	}
	s.slots = slices.Grow(s.slots, n)
}

// push appends one initialized slot. Growable storage may relocate here.
// Overflowing fixed storage is a contract violation: the source reported a
// smaller length than it produced.
func (s *Storage) push(h pycall.Handle) {
	if s.fixed && len(s.slots) == cap(s.slots) {
		panic("frame: argument source produced more elements than its reported length")
	}
	s.slots = append(s.slots, h)
}

func (s *Storage) len() int {
	return len(s.slots)
}

// base returns the current slot array. Valid only until the next push or
// reserve on growable storage.
func (s *Storage) base() []pycall.Handle {
	return s.slots
}
