package frame

import (
	"sync"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// namesBuilder accumulates keyword names for the fast-call names tuple,
// rejecting duplicates across every keyword source feeding one frame. Name
// handles are owned by the builder until finish transfers them into the
// tuple or abort drops them.
type namesBuilder struct {
	rt      pycall.Runtime
	names   []pycall.Handle
	seen    map[string]struct{}
	aborted bool
}

func newNamesBuilder(rt pycall.Runtime) *namesBuilder {
	return &namesBuilder{rt: rt, seen: make(map[string]struct{})}
}

// add records one keyword name, creating its string object.
func (nb *namesBuilder) add(name string) error {
	if _, dup := nb.seen[name]; dup {
		return errors.DuplicateKeyword(name)
	}
	h, err := nb.rt.NewString(name)
	if err != nil {
		return errors.Wrap(errors.PhaseAssemble, errors.KindAllocation, err, "interning keyword name")
	}
	nb.seen[name] = struct{}{}
	nb.names = append(nb.names, h)
	return nil
}

func (nb *namesBuilder) count() int {
	return len(nb.names)
}

// finish packs the collected names into a tuple, stealing the builder's
// references. The returned tuple is owned by the caller. Zero names yields
// the zero handle.
func (nb *namesBuilder) finish() (pycall.Handle, error) {
	if len(nb.names) == 0 {
		return 0, nil
	}
	t, err := nb.rt.NewTuple(len(nb.names))
	if err != nil {
		nb.abort()
		return 0, errors.Wrap(errors.PhaseFinalize, errors.KindAllocation, err, "building keyword names tuple")
	}
	for i, h := range nb.names {
		nb.rt.TupleSet(t, i, h)
	}
	nb.names = nb.names[:0]
	return t, nil
}

// abort drops every pending name handle.
func (nb *namesBuilder) abort() {
	if nb.aborted {
		return
	}
	nb.aborted = true
	for _, h := range nb.names {
		nb.rt.DecRef(h)
	}
	nb.names = nil
}

// KnownNames is a fixed set of keyword names declared once and reused
// across calls. The names tuple is interned per runtime, so repeated calls
// with the same keyword set skip string creation and tuple assembly
// entirely.
type KnownNames struct {
	names []string

	mu     sync.Mutex
	cached map[pycall.Runtime]pycall.Handle
}

// Names declares a keyword-name set. Duplicate literals are a programming
// error and panic immediately rather than failing every later call.
func Names(names ...string) *KnownNames {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			panic("frame: duplicate keyword name " + n)
		}
		seen[n] = struct{}{}
	}
	return &KnownNames{
		names:  names,
		cached: make(map[pycall.Runtime]pycall.Handle),
	}
}

// Len reports the number of names in the set.
func (kn *KnownNames) Len() int { return len(kn.names) }

// tuple returns the interned names tuple for rt, building it on first use.
// The tuple stays owned by the cache; callers borrow it.
func (kn *KnownNames) tuple(rt pycall.Runtime) (pycall.Handle, error) {
	if len(kn.names) == 0 {
		return 0, nil
	}

	kn.mu.Lock()
	defer kn.mu.Unlock()
	if t, ok := kn.cached[rt]; ok {
		return t, nil
	}

	nb := newNamesBuilder(rt)
	for _, n := range kn.names {
		if err := nb.add(n); err != nil {
			nb.abort()
			return 0, err
		}
	}
	t, err := nb.finish()
	if err != nil {
		return 0, err
	}
	kn.cached[rt] = t
	return t, nil
}

// Release drops the interned tuple for rt. Call it when a runtime is torn
// down while the KnownNames value lives on.
func (kn *KnownNames) Release(rt pycall.Runtime) {
	kn.mu.Lock()
	defer kn.mu.Unlock()
	if t, ok := kn.cached[rt]; ok {
		delete(kn.cached, rt)
		rt.DecRef(t)
	}
}
