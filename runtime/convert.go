package runtime

import (
	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// FromInt converts a Go int64 into a Local integer object.
func FromInt(rt pycall.Runtime, v int64) (pycall.Handle, error) {
	l, ok := rt.(*Local)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseConvert, "*runtime.Local", "foreign runtime")
	}
	return l.NewInt(v)
}

// FromString converts a Go string into a Local string object.
func FromString(rt pycall.Runtime, v string) (pycall.Handle, error) {
	return rt.NewString(v)
}
