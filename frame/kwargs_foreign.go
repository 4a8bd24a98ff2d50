package frame

import (
	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// foreignMapping forwards an existing runtime mapping as keyword
// arguments. Used alone on the generic path it is passed through with zero
// copies; combined with other keyword sources it is merged into the frame's
// dict with runtime-native update semantics.
type foreignMapping struct {
	obj pycall.Handle
}

// ForeignMapping marshals an existing mapping object as keyword arguments.
// The object must stay alive for the duration of the call.
func ForeignMapping(obj pycall.Handle) Kwargs {
	return foreignMapping{obj: obj}
}

func (k foreignMapping) Len() int    { return 0 }
func (k foreignMapping) Sized() bool { return false }
func (k foreignMapping) Empty() bool { return false }
func (k foreignMapping) namesTuple(pycall.Runtime) (pycall.Handle, bool) {
	return 0, false
}

func (k foreignMapping) asMapping(rt pycall.Runtime) (pycall.Handle, bool) {
	if !rt.IsMapping(k.obj) {
		return 0, false
	}
	return k.obj, true
}

// Mapping contents are only reachable through the runtime, so this source
// never flattens into the names-tuple layout; unsized routing guarantees
// init is not reached.
func (k foreignMapping) init(pycall.Runtime, *Storage, *namesBuilder) (guard, error) {
	panic("frame: mapping kwargs cannot be flattened")
}

func (k foreignMapping) writeToDict(rt pycall.Runtime, dict pycall.Handle) (int, error) {
	if !rt.IsMapping(k.obj) {
		return 0, errors.NotMapping("keyword argument object is not a mapping")
	}
	n, err := rt.DictLen(k.obj)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseAssemble, errors.KindNotMapping, err, "sizing keyword mapping")
	}
	if err := rt.DictUpdate(dict, k.obj); err != nil {
		return 0, errors.Wrap(errors.PhaseAssemble, errors.KindNotMapping, err, "merging keyword mapping")
	}
	return n, nil
}
