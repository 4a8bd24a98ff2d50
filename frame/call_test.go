package frame

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/pycall"
	perrors "github.com/wippyai/pycall/errors"
	"github.com/wippyai/pycall/runtime"
)

// sumFunc adds its integer arguments; keyword values are added in too so
// tests can see them arrive.
func sumFunc(rt *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
	var total int64
	for _, h := range args {
		v, err := rt.IntValue(h)
		if err != nil {
			return 0, err
		}
		total += v
	}
	for _, h := range kwvals {
		v, err := rt.IntValue(h)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return rt.NewInt(total)
}

func callAndRead(t *testing.T, rt *runtime.Local, fn pycall.Handle, args Args, kw Kwargs) int64 {
	t.Helper()
	res, err := Call(rt, fn, args, kw)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	defer rt.DecRef(res)
	v, err := rt.IntValue(res)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	return v
}

func TestCallFastcall(t *testing.T) {
	rt := newTestRuntime(t)

	var gotNames []string
	var gotPositional int
	fn, err := rt.NewFunc(func(r *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
		gotNames = kwnames
		gotPositional = len(args)
		return sumFunc(r, args, kwnames, kwvals)
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(fn)

	base := rt.Live()
	kn := Names("bias")
	defer kn.Release(rt)

	got := callAndRead(t, rt, fn,
		FromSlice(runtime.FromInt, []int64{1, 2, 3}),
		KwargsNamed(kn, Val(runtime.FromInt, int64(10))))
	if got != 16 {
		t.Errorf("sum = %d, want 16", got)
	}
	if gotPositional != 3 {
		t.Errorf("positional = %d, want 3", gotPositional)
	}
	if len(gotNames) != 1 || gotNames[0] != "bias" {
		t.Errorf("kwnames = %v, want [bias]", gotNames)
	}

	kn.Release(rt)
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func TestCallGenericTupleAndDict(t *testing.T) {
	rt := newTestRuntime(t)

	fn, err := rt.NewFunc(sumFunc, false)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(fn)

	base := rt.Live()
	got := callAndRead(t, rt, fn,
		FromSlice(runtime.FromInt, []int64{5, 6}),
		KwargsPairs(runtime.FromInt, []Pair[int64]{{Name: "a", Value: 100}}))
	if got != 111 {
		t.Errorf("sum = %d, want 111", got)
	}
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func TestCallForeignTupleAndMappingPassThrough(t *testing.T) {
	rt := newTestRuntime(t)

	fn, err := rt.NewFunc(sumFunc, false)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(fn)

	tup, err := rt.NewTuple(2)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range []int64{7, 8} {
		h, err := rt.NewInt(v)
		if err != nil {
			t.Fatal(err)
		}
		rt.TupleSet(tup, i, h)
	}
	defer rt.DecRef(tup)

	d, err := rt.NewDict()
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(d)
	k, _ := rt.NewString("extra")
	v, _ := rt.NewInt(1)
	if err := rt.DictSet(d, k, v); err != nil {
		t.Fatal(err)
	}
	rt.DecRef(k)
	rt.DecRef(v)

	base := rt.Live()
	got := callAndRead(t, rt, fn, ForeignSequence(tup), ForeignMapping(d))
	if got != 16 {
		t.Errorf("sum = %d, want 16", got)
	}
	if live := rt.Live(); live != base {
		t.Errorf("pass-through call created %d objects", live-base)
	}
}

func TestCallDictPathDetectsDuplicates(t *testing.T) {
	rt := newTestRuntime(t)

	fn, err := rt.NewFunc(sumFunc, false)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(fn)

	d, err := rt.NewDict()
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(d)
	k, _ := rt.NewString("x")
	v, _ := rt.NewInt(1)
	if err := rt.DictSet(d, k, v); err != nil {
		t.Fatal(err)
	}
	rt.DecRef(k)
	rt.DecRef(v)

	kw := ConcatKwargs(
		KwargsPairs(runtime.FromInt, []Pair[int64]{{Name: "x", Value: 2}}),
		ForeignMapping(d),
	)

	_, callErr := Call(rt, fn, Empty(), kw)
	var pe *perrors.Error
	if !stderrors.As(callErr, &pe) || pe.Kind != perrors.KindDuplicateKeyword {
		t.Errorf("want duplicate_keyword, got %v", callErr)
	}
}

func TestCallUnsizedKwargsStream(t *testing.T) {
	rt := newTestRuntime(t)

	var gotNames []string
	fn, err := rt.NewFunc(func(r *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
		gotNames = append([]string(nil), kwnames...)
		return sumFunc(r, args, kwnames, kwvals)
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(fn)

	stream := func(yield func(string, int64) bool) {
		if !yield("p", 1) {
			return
		}
		yield("q", 2)
	}

	// Fastcall support notwithstanding, an unsized keyword source takes
	// the generic dict path.
	got := callAndRead(t, rt, fn, Empty(), KwargsSeq(runtime.FromInt, stream))
	if got != 3 {
		t.Errorf("sum = %d, want 3", got)
	}
	if len(gotNames) != 2 || gotNames[0] != "p" || gotNames[1] != "q" {
		t.Errorf("kwnames = %v, want [p q]", gotNames)
	}
}

func TestCallWithReceiverUsesReservedSlot(t *testing.T) {
	rt := newTestRuntime(t)

	var first int64
	fn, err := rt.NewFunc(func(r *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
		v, err := r.IntValue(args[0])
		if err != nil {
			return 0, err
		}
		first = v
		return sumFunc(r, args, kwnames, kwvals)
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(fn)

	recv, err := rt.NewInt(1000)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(recv)

	base := rt.Live()
	res, err := CallWithReceiver(rt, fn, recv, FromSlice(runtime.FromInt, []int64{1, 2}), NoKwargs())
	if err != nil {
		t.Fatalf("CallWithReceiver: %v", err)
	}
	v, err := rt.IntValue(res)
	rt.DecRef(res)
	if err != nil || v != 1003 {
		t.Errorf("sum = %d (%v), want 1003", v, err)
	}
	if first != 1000 {
		t.Errorf("first positional = %d, want the receiver", first)
	}
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func TestCallMethod(t *testing.T) {
	rt := newTestRuntime(t)

	obj, err := rt.NewInt(0)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(obj)

	fn, err := rt.NewFunc(sumFunc, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.SetAttr(obj, "add", fn); err != nil {
		t.Fatal(err)
	}
	rt.DecRef(fn)

	got, err := CallMethod(rt, obj, "add", FromSlice(runtime.FromInt, []int64{2, 3}), NoKwargs())
	if err != nil {
		t.Fatalf("CallMethod: %v", err)
	}
	defer rt.DecRef(got)
	v, err := rt.IntValue(got)
	if err != nil || v != 5 {
		t.Errorf("sum = %d (%v), want 5", v, err)
	}

	_, err = CallMethod(rt, obj, "missing", Empty(), NoKwargs())
	var pe *perrors.Error
	if !stderrors.As(err, &pe) || pe.Kind != perrors.KindNotFound {
		t.Errorf("want not_found, got %v", err)
	}
}

func TestCallNotCallable(t *testing.T) {
	rt := newTestRuntime(t)

	n, err := rt.NewInt(1)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(n)

	_, callErr := Call(rt, n, Empty(), NoKwargs())
	var pe *perrors.Error
	if !stderrors.As(callErr, &pe) || pe.Kind != perrors.KindNotCallable {
		t.Errorf("want not_callable, got %v", callErr)
	}
}
