package runtime

import (
	"sync"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/errors"
)

// Func is the signature of callables hosted by Local. Arguments arrive
// normalized regardless of the convention the caller used: positional
// handles, then keyword names aligned with keyword values. All handles are
// borrowed for the duration of the call; the returned handle is owned by
// the caller.
type Func func(rt *Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error)

type objKind uint8

const (
	kindInvalid objKind = iota
	kindInt
	kindString
	kindTuple
	kindList
	kindDict
	kindFunc
)

type dictEntry struct {
	key, val pycall.Handle
	name     string
}

type object struct {
	kind  objKind
	refs  uint32
	valid bool

	i     int64
	s     string
	items []pycall.Handle // tuple/list elements, owned
	pairs []dictEntry     // dict entries in insertion order, owned
	index map[string]int  // dict name -> pairs index

	fn       Func
	fastcall bool

	attrs map[string]pycall.Handle // owned
}

// Local is an in-memory object runtime with reference counting. Handles
// index an entries table; freed slots are recycled through a free list.
// It implements pycall.Runtime and doubles as the leak oracle in tests:
// Live reports how many objects are still alive.
type Local struct {
	entries  []object
	freeList []pycall.Handle
	mu       sync.Mutex
	closed   bool
}

// NewLocal creates an empty runtime.
func NewLocal() *Local {
	return &Local{
		entries:  make([]object, 0, 64),
		freeList: make([]pycall.Handle, 0, 16),
	}
}

// alloc stores o with an initial reference count of one.
func (rt *Local) alloc(o object) pycall.Handle {
	o.refs = 1
	o.valid = true

	if n := len(rt.freeList); n > 0 {
		h := rt.freeList[n-1]
		rt.freeList = rt.freeList[:n-1]
		rt.entries[h-1] = o
		return h
	}
	rt.entries = append(rt.entries, o)
	return pycall.Handle(len(rt.entries))
}

// get returns the live object for h, or nil.
func (rt *Local) get(h pycall.Handle) *object {
	if h == 0 || int(h) > len(rt.entries) {
		return nil
	}
	o := &rt.entries[h-1]
	if !o.valid {
		return nil
	}
	return o
}

// IncRef takes an additional reference. The zero handle is ignored.
func (rt *Local) IncRef(h pycall.Handle) {
	if h == 0 {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if o := rt.get(h); o != nil {
		o.refs++
	}
}

// DecRef drops one reference, destroying the object (and releasing its
// children) when the count reaches zero. The zero handle is ignored.
func (rt *Local) DecRef(h pycall.Handle) {
	if h == 0 {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.decref(h)
}

func (rt *Local) decref(h pycall.Handle) {
	o := rt.get(h)
	if o == nil {
		return
	}
	if o.refs > 1 {
		o.refs--
		return
	}

	for _, c := range o.items {
		rt.decref(c)
	}
	for _, p := range o.pairs {
		rt.decref(p.key)
		rt.decref(p.val)
	}
	for _, a := range o.attrs {
		rt.decref(a)
	}
	*o = object{}
	rt.freeList = append(rt.freeList, h)
}

// NewInt creates an integer object.
func (rt *Local) NewInt(v int64) (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return 0, errors.Closed("runtime is closed")
	}
	return rt.alloc(object{kind: kindInt, i: v}), nil
}

// IntValue reads an integer object back.
func (rt *Local) IntValue(h pycall.Handle) (int64, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(h)
	if o == nil {
		return 0, errors.InvalidHandle(errors.PhaseRuntime, uint32(h))
	}
	if o.kind != kindInt {
		return 0, errors.TypeMismatch(errors.PhaseRuntime, "int", kindName(o.kind))
	}
	return o.i, nil
}

// NewString creates a string object.
func (rt *Local) NewString(s string) (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return 0, errors.Closed("runtime is closed")
	}
	return rt.alloc(object{kind: kindString, s: s}), nil
}

// StringValue reads a string object back.
func (rt *Local) StringValue(h pycall.Handle) (string, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(h)
	if o == nil {
		return "", errors.InvalidHandle(errors.PhaseRuntime, uint32(h))
	}
	if o.kind != kindString {
		return "", errors.TypeMismatch(errors.PhaseRuntime, "str", kindName(o.kind))
	}
	return o.s, nil
}

// NewTuple creates a tuple with n zeroed slots. Fill every slot with
// TupleSet before sharing the handle.
func (rt *Local) NewTuple(n int) (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return 0, errors.Closed("runtime is closed")
	}
	return rt.alloc(object{kind: kindTuple, items: make([]pycall.Handle, n)}), nil
}

// TupleSet stores h at index i, stealing the caller's reference.
func (rt *Local) TupleSet(t pycall.Handle, i int, h pycall.Handle) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(t)
	if o == nil || o.kind != kindTuple || i < 0 || i >= len(o.items) {
		panic("runtime: TupleSet on invalid tuple slot")
	}
	if old := o.items[i]; old != 0 {
		rt.decref(old)
	}
	o.items[i] = h
}

// TupleSlice returns a borrowed view of a tuple's elements.
func (rt *Local) TupleSlice(t pycall.Handle) ([]pycall.Handle, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(t)
	if o == nil || o.kind != kindTuple {
		return nil, false
	}
	return o.items, true
}

// NewList creates a list from elems, taking its own references.
func (rt *Local) NewList(elems ...pycall.Handle) (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return 0, errors.Closed("runtime is closed")
	}
	items := make([]pycall.Handle, len(elems))
	for i, e := range elems {
		if o := rt.get(e); o != nil {
			o.refs++
		}
		items[i] = e
	}
	return rt.alloc(object{kind: kindList, items: items}), nil
}

// SequenceSlice returns a borrowed contiguous view for tuples and lists.
func (rt *Local) SequenceSlice(h pycall.Handle) ([]pycall.Handle, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(h)
	if o == nil || (o.kind != kindTuple && o.kind != kindList) {
		return nil, false
	}
	return o.items, true
}

// NewDict creates an empty insertion-ordered dict.
func (rt *Local) NewDict() (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return 0, errors.Closed("runtime is closed")
	}
	return rt.alloc(object{kind: kindDict, index: make(map[string]int)}), nil
}

// DictSet inserts key/value, taking its own references. String keys only;
// a duplicate key overwrites the value in place, keeping insertion order.
func (rt *Local) DictSet(d, key, value pycall.Handle) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.dictSet(d, key, value)
}

func (rt *Local) dictSet(d, key, value pycall.Handle) error {
	o := rt.get(d)
	if o == nil {
		return errors.InvalidHandle(errors.PhaseRuntime, uint32(d))
	}
	if o.kind != kindDict {
		return errors.TypeMismatch(errors.PhaseRuntime, "dict", kindName(o.kind))
	}
	k := rt.get(key)
	if k == nil {
		return errors.InvalidHandle(errors.PhaseRuntime, uint32(key))
	}
	if k.kind != kindString {
		return errors.TypeMismatch(errors.PhaseRuntime, "str key", kindName(k.kind))
	}

	if i, ok := o.index[k.s]; ok {
		old := o.pairs[i].val
		if v := rt.get(value); v != nil {
			v.refs++
		}
		o.pairs[i].val = value
		rt.decref(old)
		return nil
	}

	k.refs++
	if v := rt.get(value); v != nil {
		v.refs++
	}
	o.index[k.s] = len(o.pairs)
	o.pairs = append(o.pairs, dictEntry{key: key, val: value, name: k.s})
	return nil
}

// DictLen reports the number of entries in a dict.
func (rt *Local) DictLen(d pycall.Handle) (int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(d)
	if o == nil {
		return 0, errors.InvalidHandle(errors.PhaseRuntime, uint32(d))
	}
	if o.kind != kindDict {
		return 0, errors.TypeMismatch(errors.PhaseRuntime, "dict", kindName(o.kind))
	}
	return len(o.pairs), nil
}

// DictUpdate merges src into dst, overwriting on key collision.
func (rt *Local) DictUpdate(dst, src pycall.Handle) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s := rt.get(src)
	if s == nil {
		return errors.InvalidHandle(errors.PhaseRuntime, uint32(src))
	}
	if s.kind != kindDict {
		return errors.TypeMismatch(errors.PhaseRuntime, "dict", kindName(s.kind))
	}
	for _, p := range s.pairs {
		if err := rt.dictSet(dst, p.key, p.val); err != nil {
			return err
		}
	}
	return nil
}

// IsMapping reports whether h is usable as a keyword mapping.
func (rt *Local) IsMapping(h pycall.Handle) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(h)
	return o != nil && o.kind == kindDict
}

// localIterator walks a snapshot of a container's elements, handing out an
// owned reference per item.
type localIterator struct {
	rt    *Local
	items []pycall.Handle
	pos   int
}

func (it *localIterator) Next() (pycall.Handle, bool, error) {
	if it.pos >= len(it.items) {
		return 0, false, nil
	}
	h := it.items[it.pos]
	it.pos++
	it.rt.IncRef(h)
	return h, true, nil
}

// Iterate returns an iterator for tuples, lists, and dicts (over keys).
func (rt *Local) Iterate(h pycall.Handle) (pycall.Iterator, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(h)
	if o == nil {
		return nil, false
	}
	switch o.kind {
	case kindTuple, kindList:
		items := make([]pycall.Handle, len(o.items))
		copy(items, o.items)
		return &localIterator{rt: rt, items: items}, true
	case kindDict:
		keys := make([]pycall.Handle, len(o.pairs))
		for i, p := range o.pairs {
			keys[i] = p.key
		}
		return &localIterator{rt: rt, items: keys}, true
	}
	return nil, false
}

// NewFunc registers a callable. fastcall selects the flat-frame convention;
// generic-only callables receive the same normalized arguments either way.
func (rt *Local) NewFunc(fn Func, fastcall bool) (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return 0, errors.Closed("runtime is closed")
	}
	return rt.alloc(object{kind: kindFunc, fn: fn, fastcall: fastcall}), nil
}

// HasFastcall reports whether f takes the flat-frame convention.
func (rt *Local) HasFastcall(f pycall.Handle) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(f)
	return o != nil && o.kind == kindFunc && o.fastcall
}

// Fastcall invokes f with a flat frame: args holds positional values
// followed by one value per name in names. args is borrowed.
func (rt *Local) Fastcall(f pycall.Handle, args []pycall.Handle, positional int, names pycall.Handle) (pycall.Handle, error) {
	rt.mu.Lock()
	o := rt.get(f)
	if o == nil {
		rt.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseCall, uint32(f))
	}
	if o.kind != kindFunc {
		rt.mu.Unlock()
		return 0, errors.NotCallable("object is not callable")
	}
	fn := o.fn

	var kwnames []string
	if names != 0 {
		no := rt.get(names)
		if no == nil || no.kind != kindTuple {
			rt.mu.Unlock()
			return 0, errors.TypeMismatch(errors.PhaseCall, "names tuple", "invalid handle")
		}
		kwnames = make([]string, len(no.items))
		for i, nh := range no.items {
			ko := rt.get(nh)
			if ko == nil || ko.kind != kindString {
				rt.mu.Unlock()
				return 0, errors.TypeMismatch(errors.PhaseCall, "str name", "non-string")
			}
			kwnames[i] = ko.s
		}
	}
	rt.mu.Unlock()

	if positional < 0 || positional+len(kwnames) != len(args) {
		return 0, errors.InvalidInput(errors.PhaseCall, "frame slot count does not match names")
	}
	return fn(rt, args[:positional], kwnames, args[positional:])
}

// Call invokes f with the generic convention: a positional tuple and an
// optional kwargs dict. Both are borrowed.
func (rt *Local) Call(f pycall.Handle, args pycall.Handle, kwargs pycall.Handle) (pycall.Handle, error) {
	rt.mu.Lock()
	o := rt.get(f)
	if o == nil {
		rt.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseCall, uint32(f))
	}
	if o.kind != kindFunc {
		rt.mu.Unlock()
		return 0, errors.NotCallable("object is not callable")
	}
	fn := o.fn

	to := rt.get(args)
	if to == nil || to.kind != kindTuple {
		rt.mu.Unlock()
		return 0, errors.TypeMismatch(errors.PhaseCall, "args tuple", "invalid handle")
	}
	pos := make([]pycall.Handle, len(to.items))
	copy(pos, to.items)

	var kwnames []string
	var kwvals []pycall.Handle
	if kwargs != 0 {
		ko := rt.get(kwargs)
		if ko == nil || ko.kind != kindDict {
			rt.mu.Unlock()
			return 0, errors.TypeMismatch(errors.PhaseCall, "kwargs dict", "invalid handle")
		}
		kwnames = make([]string, len(ko.pairs))
		kwvals = make([]pycall.Handle, len(ko.pairs))
		for i, p := range ko.pairs {
			kwnames[i] = p.name
			kwvals[i] = p.val
		}
	}
	rt.mu.Unlock()

	return fn(rt, pos, kwnames, kwvals)
}

// SetAttr binds an attribute on obj, taking its own reference to value.
func (rt *Local) SetAttr(obj pycall.Handle, name string, value pycall.Handle) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(obj)
	if o == nil {
		return errors.InvalidHandle(errors.PhaseRuntime, uint32(obj))
	}
	if o.attrs == nil {
		o.attrs = make(map[string]pycall.Handle)
	}
	if old, ok := o.attrs[name]; ok {
		rt.decref(old)
	}
	if v := rt.get(value); v != nil {
		v.refs++
	}
	o.attrs[name] = value
	return nil
}

// GetAttr resolves an attribute, returning an owned handle.
func (rt *Local) GetAttr(obj pycall.Handle, name pycall.Handle) (pycall.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o := rt.get(obj)
	if o == nil {
		return 0, errors.InvalidHandle(errors.PhaseRuntime, uint32(obj))
	}
	n := rt.get(name)
	if n == nil || n.kind != kindString {
		return 0, errors.TypeMismatch(errors.PhaseRuntime, "str name", "non-string")
	}
	a, ok := o.attrs[n.s]
	if !ok {
		return 0, errors.NotFound(errors.PhaseRuntime, "attribute", n.s)
	}
	if ao := rt.get(a); ao != nil {
		ao.refs++
	}
	return a, nil
}

// Live reports how many objects are currently alive. The leak oracle for
// tests: after releasing everything it must return to its baseline.
func (rt *Local) Live() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	n := 0
	for i := range rt.entries {
		if rt.entries[i].valid {
			n++
		}
	}
	return n
}

// Refs reports the current reference count of h, zero for dead handles.
func (rt *Local) Refs(h pycall.Handle) uint32 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if o := rt.get(h); o != nil {
		return o.refs
	}
	return 0
}

// Close destroys every remaining object. Further allocation fails.
func (rt *Local) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil
	}
	rt.closed = true
	rt.entries = nil
	rt.freeList = nil
	return nil
}

var _ pycall.Runtime = (*Local)(nil)

func kindName(k objKind) string {
	switch k {
	case kindInt:
		return "int"
	case kindString:
		return "str"
	case kindTuple:
		return "tuple"
	case kindList:
		return "list"
	case kindDict:
		return "dict"
	case kindFunc:
		return "function"
	default:
		return "invalid"
	}
}
