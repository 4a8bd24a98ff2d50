package pycall

// Handle is an opaque reference to an object owned by the foreign runtime.
// The zero handle is never a valid object. Owning a handle means being
// responsible for exactly one DecRef.
type Handle uint32

// Converter turns one application value into one foreign object handle.
// The returned handle is owned by the caller. Converters are invoked once
// per element, in source order, and only until the first failure.
type Converter[T any] func(rt Runtime, v T) (Handle, error)

// Iterator yields owned handles from a foreign iterable.
// Next returns (0, false, nil) when exhausted.
type Iterator interface {
	Next() (Handle, bool, error)
}

// Runtime is the foreign runtime's object API as consumed by the frame
// marshalling layer. Implementations: runtime.Local (in-memory) and
// engine.Guest (WebAssembly guest via wazero).
type Runtime interface {
	// IncRef and DecRef adjust an object's reference count. Both must accept
	// the zero handle as a no-op.
	IncRef(h Handle)
	DecRef(h Handle)

	// NewString creates a string object. StringValue reads one back; it is
	// used for keyword-name bookkeeping and fails on non-string handles.
	NewString(s string) (Handle, error)
	StringValue(h Handle) (string, error)

	// NewTuple creates a tuple of n uninitialized slots. TupleSet stores h at
	// index i, stealing the caller's reference (CPython PyTuple_SET_ITEM
	// semantics). TupleSlice returns a borrowed view of the elements when h
	// is a tuple.
	NewTuple(n int) (Handle, error)
	TupleSet(t Handle, i int, h Handle)
	TupleSlice(t Handle) ([]Handle, bool)

	// NewDict creates an empty insertion-ordered mapping. DictSet inserts a
	// pair, taking its own references to key and value. A duplicate key
	// overwrites in place, which is why callers re-check DictLen.
	NewDict() (Handle, error)
	DictSet(d, key, value Handle) error
	DictLen(d Handle) (int, error)
	// DictUpdate merges every pair of src into dst, overwriting on key
	// collision (CPython PyDict_Update semantics). src may be any mapping.
	DictUpdate(dst, src Handle) error
	IsMapping(h Handle) bool

	// SequenceSlice returns a borrowed contiguous view of h's elements when
	// the runtime can expose one without conversion.
	SequenceSlice(h Handle) ([]Handle, bool)
	// Iterate returns an iterator over h's elements, if h is iterable.
	Iterate(h Handle) (Iterator, bool)

	// HasFastcall reports whether f can be invoked with the fast-call
	// convention. Fastcall invokes it: args holds positional values followed
	// by keyword values; names is a tuple of keyword names aligned with the
	// trailing len(names) slots, or zero when there are none. The args slice
	// is borrowed by the callee for the duration of the call.
	HasFastcall(f Handle) bool
	Fastcall(f Handle, args []Handle, positional int, names Handle) (Handle, error)

	// Call invokes f with the generic convention: a positional tuple and an
	// optional (possibly zero) kwargs mapping. Both are borrowed.
	Call(f Handle, args Handle, kwargs Handle) (Handle, error)

	// GetAttr resolves an attribute, returning an owned handle.
	GetAttr(obj Handle, name Handle) (Handle, error)
}
