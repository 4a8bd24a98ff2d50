package frame

import (
	"go.uber.org/zap"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// Call invokes callable with the given argument sources, picking the
// cheapest convention the callable and the sources allow:
//
//   - fast-call with a flat frame when the callable supports it and the
//     keyword source is sized
//   - generic tuple-plus-dict otherwise, reusing foreign tuples and
//     mappings without copying when the sources already are ones
func Call(rt pycall.Runtime, callable pycall.Handle, args Args, kw Kwargs) (pycall.Handle, error) {
	// A foreign tuple with no kwargs (or a pass-through mapping) is already
	// in generic-call shape; skip convention probing entirely.
	if t, ok := args.foreignTuple(rt); ok {
		if kw.Empty() {
			return rt.Call(callable, t, 0)
		}
		if m, ok := kw.asMapping(rt); ok {
			return rt.Call(callable, t, m)
		}
	}

	if !kw.Sized() || !rt.HasFastcall(callable) {
		return callGeneric(rt, callable, args, kw)
	}

	var f Frame
	if err := Build(rt, &f, args, kw); err != nil {
		return 0, err
	}
	defer f.Close()

	Logger().Debug("fast call",
		zap.Int("positional", f.Positional()),
		zap.Int("slots", f.Len()))
	return rt.Fastcall(callable, f.Slots(), f.Positional(), f.Names())
}

// CallWithReceiver invokes callable with recv prepended as the first
// positional argument. On the fast path the frame's reserved slot makes the
// prepend free. recv is borrowed.
func CallWithReceiver(rt pycall.Runtime, callable, recv pycall.Handle, args Args, kw Kwargs) (pycall.Handle, error) {
	if !kw.Sized() || !rt.HasFastcall(callable) {
		recvArgs := Existing([]pycall.Handle{recv})
		return callGeneric(rt, callable, Concat(recvArgs, args), kw)
	}

	var f Frame
	if err := Build(rt, &f, args, kw); err != nil {
		return 0, err
	}
	defer f.Close()

	slots := f.slotsWithReceiver(recv)
	return rt.Fastcall(callable, slots, f.Positional()+1, f.Names())
}

// CallMethod resolves obj's attribute name and calls it.
func CallMethod(rt pycall.Runtime, obj pycall.Handle, name string, args Args, kw Kwargs) (pycall.Handle, error) {
	nameH, err := rt.NewString(name)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindAllocation, err, "interning method name")
	}
	m, err := rt.GetAttr(obj, nameH)
	rt.DecRef(nameH)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindNotFound, err, "resolving method "+name)
	}
	defer rt.DecRef(m)
	return Call(rt, m, args, kw)
}

// callGeneric is the tuple-plus-dict convention.
func callGeneric(rt pycall.Runtime, callable pycall.Handle, args Args, kw Kwargs) (pycall.Handle, error) {
	tuple, owned, err := positionalTuple(rt, args)
	if err != nil {
		return 0, err
	}
	if owned {
		defer rt.DecRef(tuple)
	}

	if kw.Empty() {
		Logger().Debug("generic call", zap.Bool("kwargs", false))
		return rt.Call(callable, tuple, 0)
	}

	// A lone mapping passes straight through; dedupe is moot with one source.
	if m, ok := kw.asMapping(rt); ok {
		return rt.Call(callable, tuple, m)
	}

	dict, err := rt.NewDict()
	if err != nil {
		return 0, errors.Wrap(errors.PhaseAssemble, errors.KindAllocation, err, "creating kwargs dict")
	}
	defer rt.DecRef(dict)

	written, err := kw.writeToDict(rt, dict)
	if err != nil {
		return 0, err
	}
	// Overwritten keys leave the dict shorter than the pair count.
	n, err := rt.DictLen(dict)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseAssemble, errors.KindNotMapping, err, "sizing kwargs dict")
	}
	if n != written {
		return 0, errors.New(errors.PhaseAssemble, errors.KindDuplicateKeyword).
			Detail("keyword argument supplied more than once across sources").
			Build()
	}

	Logger().Debug("generic call", zap.Bool("kwargs", true), zap.Int("pairs", n))
	return rt.Call(callable, tuple, dict)
}

// positionalTuple produces the positional tuple for the generic convention,
// borrowing a foreign tuple when the source already is one and building one
// from a frame otherwise.
func positionalTuple(rt pycall.Runtime, args Args) (pycall.Handle, bool, error) {
	if t, ok := args.foreignTuple(rt); ok {
		return t, false, nil
	}

	var f Frame
	if err := Build(rt, &f, args, NoKwargs()); err != nil {
		return 0, false, err
	}
	defer f.Close()

	slots := f.Slots()
	t, err := rt.NewTuple(len(slots))
	if err != nil {
		return 0, false, errors.Wrap(errors.PhaseFinalize, errors.KindAllocation, err, "building positional tuple")
	}
	for i, h := range slots {
		rt.IncRef(h)
		rt.TupleSet(t, i, h)
	}
	return t, true, nil
}
