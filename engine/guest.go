package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// Guest is one instantiated WebAssembly object runtime. It implements
// pycall.Runtime by forwarding every operation to the guest's exports,
// marshalling strings and handle arrays through guest linear memory.
//
// A Guest is not safe for concurrent use: wazero module instances execute
// one call at a time.
type Guest struct {
	ctx context.Context
	mod api.Module
	mem api.Memory
	fns map[string]api.Function
}

// call invokes a guest export and returns its raw results.
func (g *Guest) call(name string, params ...uint64) ([]uint64, error) {
	res, err := g.fns[name].Call(g.ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "guest trap in "+name)
	}
	return res, nil
}

// callH invokes an export whose i64 result is a handle or a negative error
// code.
func (g *Guest) callH(phase errors.Phase, name string, params ...uint64) (pycall.Handle, error) {
	res, err := g.call(name, params...)
	if err != nil {
		return 0, err
	}
	v := int64(res[0])
	if v < 0 {
		return 0, codeError(phase, v)
	}
	return pycall.Handle(v), nil
}

// alloc reserves n bytes of guest memory. free releases them.
func (g *Guest) alloc(n int) (uint32, error) {
	res, err := g.call(expAlloc, uint64(uint32(n)))
	if err != nil {
		return 0, err
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindAllocation).Detail("guest out of memory").Build()
	}
	return ptr, nil
}

func (g *Guest) free(ptr uint32, n int) {
	if _, err := g.call(expFree, uint64(ptr), uint64(uint32(n))); err != nil {
		Logger().Warn("guest free failed", zap.Error(err))
	}
}

// IncRef takes an additional guest reference. The zero handle is ignored.
func (g *Guest) IncRef(h pycall.Handle) {
	if h == 0 {
		return
	}
	if _, err := g.call(expIncRef, uint64(h)); err != nil {
		Logger().Warn("incref failed", zap.Uint32("handle", uint32(h)), zap.Error(err))
	}
}

// DecRef drops one guest reference. The zero handle is ignored.
func (g *Guest) DecRef(h pycall.Handle) {
	if h == 0 {
		return
	}
	if _, err := g.call(expDecRef, uint64(h)); err != nil {
		Logger().Warn("decref failed", zap.Uint32("handle", uint32(h)), zap.Error(err))
	}
}

// NewString copies s into guest memory and creates a string object there.
func (g *Guest) NewString(s string) (pycall.Handle, error) {
	if len(s) == 0 {
		return g.callH(errors.PhaseRuntime, expStrNew, 0, 0)
	}
	ptr, err := g.alloc(len(s))
	if err != nil {
		return 0, err
	}
	defer g.free(ptr, len(s))
	if !g.mem.Write(ptr, []byte(s)) {
		return 0, errors.InvalidInput(errors.PhaseRuntime, "string write out of guest memory range")
	}
	return g.callH(errors.PhaseRuntime, expStrNew, uint64(ptr), uint64(uint32(len(s))))
}

// StringValue reads a guest string object back into Go.
func (g *Guest) StringValue(h pycall.Handle) (string, error) {
	res, err := g.call(expStrLen, uint64(h))
	if err != nil {
		return "", err
	}
	n := int64(res[0])
	if n < 0 {
		return "", codeError(errors.PhaseRuntime, n)
	}
	if n == 0 {
		return "", nil
	}

	ptr, err := g.alloc(int(n))
	if err != nil {
		return "", err
	}
	defer g.free(ptr, int(n))

	res, err = g.call(expStrRead, uint64(h), uint64(ptr), uint64(uint32(n)))
	if err != nil {
		return "", err
	}
	if int64(res[0]) < 0 {
		return "", codeError(errors.PhaseRuntime, int64(res[0]))
	}
	buf, ok := g.mem.Read(ptr, uint32(n))
	if !ok {
		return "", errors.InvalidInput(errors.PhaseRuntime, "string read out of guest memory range")
	}
	return string(buf), nil
}

// NewTuple creates a guest tuple with n zeroed slots.
func (g *Guest) NewTuple(n int) (pycall.Handle, error) {
	return g.callH(errors.PhaseRuntime, expTupleNew, uint64(uint32(n)))
}

// TupleSet stores h at index i, stealing the caller's reference.
func (g *Guest) TupleSet(t pycall.Handle, i int, h pycall.Handle) {
	if _, err := g.call(expTupleSet, uint64(t), uint64(uint32(i)), uint64(h)); err != nil {
		Logger().Warn("tuple set failed", zap.Error(err))
	}
}

// TupleSlice snapshots a tuple's elements. The handles are borrowed from
// the tuple.
func (g *Guest) TupleSlice(t pycall.Handle) ([]pycall.Handle, bool) {
	return g.readElements(t, expTupleLen, expTupleGet)
}

// SequenceSlice snapshots a contiguous sequence's elements, borrowed.
func (g *Guest) SequenceSlice(h pycall.Handle) ([]pycall.Handle, bool) {
	return g.readElements(h, expSeqLen, expSeqGet)
}

func (g *Guest) readElements(h pycall.Handle, lenExp, getExp string) ([]pycall.Handle, bool) {
	res, err := g.call(lenExp, uint64(h))
	if err != nil || int64(res[0]) < 0 {
		return nil, false
	}
	n := int(int64(res[0]))
	out := make([]pycall.Handle, n)
	for i := 0; i < n; i++ {
		res, err = g.call(getExp, uint64(h), uint64(uint32(i)))
		if err != nil || int64(res[0]) <= 0 {
			return nil, false
		}
		out[i] = pycall.Handle(res[0])
	}
	return out, true
}

// NewDict creates an empty guest mapping.
func (g *Guest) NewDict() (pycall.Handle, error) {
	return g.callH(errors.PhaseRuntime, expDictNew)
}

// DictSet inserts a pair; the guest takes its own references.
func (g *Guest) DictSet(d, key, value pycall.Handle) error {
	res, err := g.call(expDictSet, uint64(d), uint64(key), uint64(value))
	if err != nil {
		return err
	}
	if v := int64(res[0]); v < 0 {
		return codeError(errors.PhaseRuntime, v)
	}
	return nil
}

// DictLen reports the number of entries in a mapping.
func (g *Guest) DictLen(d pycall.Handle) (int, error) {
	res, err := g.call(expDictLen, uint64(d))
	if err != nil {
		return 0, err
	}
	v := int64(res[0])
	if v < 0 {
		return 0, codeError(errors.PhaseRuntime, v)
	}
	return int(v), nil
}

// DictUpdate merges src into dst with guest-native overwrite semantics.
func (g *Guest) DictUpdate(dst, src pycall.Handle) error {
	res, err := g.call(expDictUpdate, uint64(dst), uint64(src))
	if err != nil {
		return err
	}
	if v := int64(res[0]); v < 0 {
		return codeError(errors.PhaseRuntime, v)
	}
	return nil
}

// IsMapping reports whether h is usable as a keyword mapping.
func (g *Guest) IsMapping(h pycall.Handle) bool {
	res, err := g.call(expIsMapping, uint64(h))
	return err == nil && res[0] != 0
}

// guestIterator drains a guest iterator object. The iterator handle itself
// is owned and dropped on exhaustion or error.
type guestIterator struct {
	g    *Guest
	it   pycall.Handle
	done bool
}

func (it *guestIterator) Next() (pycall.Handle, bool, error) {
	if it.done {
		return 0, false, nil
	}
	res, err := it.g.call(expIterNext, uint64(it.it))
	if err != nil {
		it.close()
		return 0, false, err
	}
	v := int64(res[0])
	if v < 0 {
		it.close()
		return 0, false, codeError(errors.PhaseAssemble, v)
	}
	if v == 0 {
		it.close()
		return 0, false, nil
	}
	return pycall.Handle(v), true, nil
}

func (it *guestIterator) close() {
	if !it.done {
		it.done = true
		it.g.DecRef(it.it)
	}
}

// Iterate returns an iterator over h's elements, if the guest can produce
// one.
func (g *Guest) Iterate(h pycall.Handle) (pycall.Iterator, bool) {
	res, err := g.call(expIterNew, uint64(h))
	if err != nil || int64(res[0]) <= 0 {
		return nil, false
	}
	return &guestIterator{g: g, it: pycall.Handle(res[0])}, true
}

// HasFastcall reports whether f takes the flat-frame convention.
func (g *Guest) HasFastcall(f pycall.Handle) bool {
	res, err := g.call(expHasFastcall, uint64(f))
	return err == nil && res[0] != 0
}

// Fastcall invokes f with a flat frame. The handle slots are copied into a
// scratch array in guest memory for the duration of the call.
func (g *Guest) Fastcall(f pycall.Handle, args []pycall.Handle, positional int, names pycall.Handle) (pycall.Handle, error) {
	var ptr uint32
	size := 4 * len(args)
	if size > 0 {
		var err error
		ptr, err = g.alloc(size)
		if err != nil {
			return 0, err
		}
		defer g.free(ptr, size)
		for i, h := range args {
			if !g.mem.WriteUint32Le(ptr+uint32(4*i), uint32(h)) {
				return 0, errors.InvalidInput(errors.PhaseCall, "frame write out of guest memory range")
			}
		}
	}
	return g.callH(errors.PhaseCall, expFastcall,
		uint64(f), uint64(ptr), uint64(uint32(len(args))), uint64(uint32(positional)), uint64(names))
}

// Call invokes f with the generic convention.
func (g *Guest) Call(f pycall.Handle, args pycall.Handle, kwargs pycall.Handle) (pycall.Handle, error) {
	return g.callH(errors.PhaseCall, expCall, uint64(f), uint64(args), uint64(kwargs))
}

// GetAttr resolves an attribute, returning an owned handle.
func (g *Guest) GetAttr(obj pycall.Handle, name pycall.Handle) (pycall.Handle, error) {
	return g.callH(errors.PhaseRuntime, expGetAttr, uint64(obj), uint64(name))
}

// Close tears down the guest instance.
func (g *Guest) Close() error {
	return g.mod.Close(g.ctx)
}

var _ pycall.Runtime = (*Guest)(nil)
