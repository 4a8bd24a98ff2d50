package frame

import (
	stderrors "errors"
	"fmt"
	"iter"
	"testing"

	"github.com/wippyai/pycall"
	perrors "github.com/wippyai/pycall/errors"
	"github.com/wippyai/pycall/runtime"
)

func newTestRuntime(t *testing.T) *runtime.Local {
	t.Helper()
	rt := runtime.NewLocal()
	t.Cleanup(func() { rt.Close() })
	return rt
}

// intSeq yields vals as an iterator source.
func intSeq(vals ...int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, v := range vals {
			if !yield(v) {
				return
			}
		}
	}
}

func slotInts(t *testing.T, rt *runtime.Local, slots []pycall.Handle) []int64 {
	t.Helper()
	out := make([]int64, len(slots))
	for i, h := range slots {
		v, err := rt.IntValue(h)
		if err != nil {
			t.Fatalf("slot %d: %v", i, err)
		}
		out[i] = v
	}
	return out
}

func TestBuildFromSliceOrdering(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	var f Frame
	if err := Build(rt, &f, FromSlice(runtime.FromInt, []int64{10, 20, 30}), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if f.Positional() != 3 || f.Len() != 3 {
		t.Fatalf("positional=%d len=%d, want 3/3", f.Positional(), f.Len())
	}
	if f.Names() != 0 {
		t.Fatalf("unexpected names tuple %d", f.Names())
	}
	got := slotInts(t, rt, f.Slots())
	for i, want := range []int64{10, 20, 30} {
		if got[i] != want {
			t.Errorf("slot %d = %d, want %d", i, got[i], want)
		}
	}

	f.Close()
	if live := rt.Live(); live != base {
		t.Fatalf("leaked %d objects after Close", live-base)
	}
}

func TestBuildEmptyFastPath(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	var f Frame
	if err := Build(rt, &f, Empty(), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if f.Len() != 0 || f.Positional() != 0 || f.Names() != 0 {
		t.Fatalf("empty frame has content: len=%d pos=%d names=%d", f.Len(), f.Positional(), f.Names())
	}
	if len(f.Slots()) != 0 {
		t.Fatalf("empty frame has %d slots", len(f.Slots()))
	}
	f.Close()

	if live := rt.Live(); live != base {
		t.Fatalf("empty frame allocated %d objects", live-base)
	}
}

func TestInlineStorageForSmallSizedFrames(t *testing.T) {
	rt := newTestRuntime(t)

	var f Frame
	vals := []int64{1, 2, 3, 4, 5}
	if err := Build(rt, &f, FromSlice(runtime.FromInt, vals), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer f.Close()

	if &f.Slots()[0] != &f.inline[1] {
		t.Error("small sized frame did not use the inline buffer")
	}
	if !f.offset {
		t.Error("inline frame should keep the receiver slot free")
	}
	if f.pooled != nil {
		t.Error("inline frame took a pooled buffer")
	}
}

func TestLargeFrameSpillsToPooledBuffer(t *testing.T) {
	rt := newTestRuntime(t)

	vals := make([]int64, MaxInlineArgs+3)
	for i := range vals {
		vals[i] = int64(i)
	}

	var f Frame
	if err := Build(rt, &f, FromSlice(runtime.FromInt, vals), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer f.Close()

	if f.pooled == nil {
		t.Error("oversized frame did not take a pooled buffer")
	}
	if f.Len() != len(vals) {
		t.Errorf("len = %d, want %d", f.Len(), len(vals))
	}
	if !f.offset {
		t.Error("sized pooled frame should keep the receiver slot free")
	}
}

func TestZeroCopyExistingSlice(t *testing.T) {
	rt := newTestRuntime(t)

	handles := make([]pycall.Handle, 3)
	for i := range handles {
		h, err := rt.NewInt(int64(i))
		if err != nil {
			t.Fatal(err)
		}
		handles[i] = h
	}
	defer func() {
		for _, h := range handles {
			rt.DecRef(h)
		}
	}()

	var f Frame
	if err := Build(rt, &f, Existing(handles), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	slots := f.Slots()
	if len(slots) != 3 || &slots[0] != &handles[0] {
		t.Error("existing slice was copied instead of borrowed")
	}

	before := rt.Refs(handles[0])
	f.Close()
	if after := rt.Refs(handles[0]); after != before {
		t.Errorf("Close changed refcount of borrowed handle: %d -> %d", before, after)
	}
}

func TestFailingIteratorReleasesPrefix(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	boom := stderrors.New("bad element")
	converted := 0
	conv := func(r pycall.Runtime, v int64) (pycall.Handle, error) {
		if v == 3 {
			return 0, boom
		}
		converted++
		return runtime.FromInt(r, v)
	}

	var f Frame
	err := Build(rt, &f, FromSeq(conv, intSeq(1, 2, 3, 4)), NoKwargs())
	if err == nil {
		t.Fatal("Build succeeded with a failing element")
	}
	if !stderrors.Is(err, boom) {
		t.Errorf("cause not preserved: %v", err)
	}
	var pe *perrors.Error
	if !stderrors.As(err, &pe) || pe.Kind != perrors.KindConversion || pe.Arg != 2 {
		t.Errorf("want conversion error at argument 2, got %v", err)
	}

	if converted != 2 {
		t.Errorf("converted %d elements past the failure, want 2", converted)
	}
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects after failed build", live-base)
	}
}

func TestFromSeqExactWrongCountPanics(t *testing.T) {
	rt := newTestRuntime(t)

	defer func() {
		if recover() == nil {
			t.Error("short exact-length source did not panic")
		}
	}()
	var f Frame
	_ = Build(rt, &f, FromSeqExact(runtime.FromInt, intSeq(1, 2), 3), NoKwargs())
}

func TestConcatOrderAndCancellation(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	a := FromSlice(runtime.FromInt, []int64{1, 2})
	b := FromSeq(runtime.FromInt, intSeq(3, 4, 5))

	if got := Concat(Empty(), a); got.Len() != a.Len() || !got.Sized() {
		t.Error("Concat with empty left side did not collapse")
	}
	if got := Concat(a, Empty()); got.Len() != a.Len() || !got.Sized() {
		t.Error("Concat with empty right side did not collapse")
	}

	c := Concat(a, b)
	if c.Sized() {
		t.Error("concat with unsized side claims to be sized")
	}

	var f Frame
	if err := Build(rt, &f, c, NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := slotInts(t, rt, f.Slots())
	for i, want := range []int64{1, 2, 3, 4, 5} {
		if got[i] != want {
			t.Errorf("slot %d = %d, want %d", i, got[i], want)
		}
	}

	f.Close()
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func TestConcatFailureInSecondSourceReleasesFirst(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	bad := func(pycall.Runtime, int64) (pycall.Handle, error) {
		return 0, stderrors.New("nope")
	}

	var f Frame
	err := Build(rt, &f,
		Concat(FromSlice(runtime.FromInt, []int64{1, 2}), FromSlice(bad, []int64{3})),
		NoKwargs())
	if err == nil {
		t.Fatal("Build succeeded with a failing second source")
	}
	if live := rt.Live(); live != base {
		t.Errorf("first source's handles leaked: %d", live-base)
	}
}

func TestKwargsNamedLayoutAndCaching(t *testing.T) {
	rt := newTestRuntime(t)

	kn := Names("x", "y")
	defer kn.Release(rt)

	build := func() (*Frame, pycall.Handle) {
		var f Frame
		err := Build(rt, &f,
			FromSlice(runtime.FromInt, []int64{1}),
			KwargsNamed(kn, Val(runtime.FromInt, int64(7)), Val(runtime.FromInt, int64(8))))
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return &f, f.Names()
	}

	f1, names1 := build()
	if f1.Positional() != 1 || f1.Len() != 3 {
		t.Fatalf("positional=%d len=%d, want 1/3", f1.Positional(), f1.Len())
	}
	got := slotInts(t, rt, f1.Slots())
	if got[0] != 1 || got[1] != 7 || got[2] != 8 {
		t.Errorf("slots = %v, want [1 7 8]", got)
	}

	elems, ok := rt.TupleSlice(names1)
	if !ok || len(elems) != 2 {
		t.Fatalf("names tuple malformed")
	}
	for i, want := range []string{"x", "y"} {
		s, err := rt.StringValue(elems[i])
		if err != nil || s != want {
			t.Errorf("name %d = %q (%v), want %q", i, s, err, want)
		}
	}
	f1.Close()

	f2, names2 := build()
	f2.Close()
	if names1 != names2 {
		t.Error("interned names tuple was rebuilt between calls")
	}
}

func TestDuplicateKeywordAcrossSources(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	kw := ConcatKwargs(
		KwargsPairs(runtime.FromInt, []Pair[int64]{{Name: "x", Value: 1}}),
		KwargsPairs(runtime.FromInt, []Pair[int64]{{Name: "x", Value: 2}}),
	)

	var f Frame
	err := Build(rt, &f, Empty(), kw)
	if err == nil {
		t.Fatal("duplicate keyword accepted")
	}
	var pe *perrors.Error
	if !stderrors.As(err, &pe) || pe.Kind != perrors.KindDuplicateKeyword || pe.Keyword != "x" {
		t.Errorf("want duplicate_keyword for x, got %v", err)
	}
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func TestForeignSequenceZeroCopy(t *testing.T) {
	rt := newTestRuntime(t)

	elems := make([]pycall.Handle, 3)
	for i := range elems {
		h, err := rt.NewInt(int64(100 + i))
		if err != nil {
			t.Fatal(err)
		}
		elems[i] = h
	}
	list, err := rt.NewList(elems...)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range elems {
		rt.DecRef(h)
	}
	defer rt.DecRef(list)

	var f Frame
	if err := Build(rt, &f, ForeignSequence(list), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer f.Close()

	got := slotInts(t, rt, f.Slots())
	if len(got) != 3 || got[0] != 100 || got[2] != 102 {
		t.Errorf("slots = %v, want [100 101 102]", got)
	}
	if f.pooled != nil {
		t.Error("borrowed view took a pooled buffer")
	}
}

func TestForeignIterableDrains(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	elems := make([]pycall.Handle, 4)
	for i := range elems {
		h, err := rt.NewInt(int64(i))
		if err != nil {
			t.Fatal(err)
		}
		elems[i] = h
	}
	list, err := rt.NewList(elems...)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range elems {
		rt.DecRef(h)
	}

	var f Frame
	if err := Build(rt, &f, ForeignIterable(list), NoKwargs()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if f.Len() != 4 {
		t.Errorf("len = %d, want 4", f.Len())
	}
	f.Close()
	rt.DecRef(list)

	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func TestNotIterableError(t *testing.T) {
	rt := newTestRuntime(t)

	n, err := rt.NewInt(5)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(n)

	var f Frame
	buildErr := Build(rt, &f, ForeignIterable(n), NoKwargs())
	var pe *perrors.Error
	if !stderrors.As(buildErr, &pe) || pe.Kind != perrors.KindNotIterable {
		t.Errorf("want not_iterable, got %v", buildErr)
	}
}

func TestNamesPanicsOnDuplicateLiterals(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate name literals did not panic")
		}
	}()
	Names("a", "b", "a")
}

func TestFrameReuseAfterClose(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	var f Frame
	for i := 0; i < 3; i++ {
		vals := []int64{int64(i), int64(i + 1)}
		if err := Build(rt, &f, FromSlice(runtime.FromInt, vals), NoKwargs()); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		got := slotInts(t, rt, f.Slots())
		if got[0] != int64(i) {
			t.Errorf("round %d: slot 0 = %d", i, got[0])
		}
		f.Close()
		f.Close() // idempotent
	}
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects across reuse", live-base)
	}
}

func TestUnsizedKwargsRejectedByBuild(t *testing.T) {
	rt := newTestRuntime(t)

	d, err := rt.NewDict()
	if err != nil {
		t.Fatal(err)
	}
	defer rt.DecRef(d)

	var f Frame
	buildErr := Build(rt, &f, Empty(), ForeignMapping(d))
	var pe *perrors.Error
	if !stderrors.As(buildErr, &pe) || pe.Kind != perrors.KindInvalidInput {
		t.Errorf("want invalid_input, got %v", buildErr)
	}
}

func TestManyStrategiesLeakFree(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.Live()

	sources := []Args{
		Empty(),
		FromSlice(runtime.FromInt, []int64{1, 2, 3}),
		FromSeqExact(runtime.FromInt, intSeq(4, 5), 2),
		FromSeqHint(runtime.FromInt, intSeq(6, 7, 8), 2),
		FromSeq(runtime.FromInt, intSeq(9)),
		Positional(Val(runtime.FromInt, int64(10)), Val(runtime.FromString, "s")),
	}

	for i, src := range sources {
		var f Frame
		if err := Build(rt, &f, src, NoKwargs()); err != nil {
			t.Fatalf("source %d: %v", i, err)
		}
		f.Close()
	}
	if live := rt.Live(); live != base {
		t.Errorf("leaked %d objects", live-base)
	}
}

func BenchmarkBuildInline(b *testing.B) {
	rt := runtime.NewLocal()
	defer rt.Close()
	vals := []int64{1, 2, 3, 4}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var f Frame
		if err := Build(rt, &f, FromSlice(runtime.FromInt, vals), NoKwargs()); err != nil {
			b.Fatal(err)
		}
		f.Close()
	}
}

func ExampleBuild() {
	rt := runtime.NewLocal()
	defer rt.Close()

	var f Frame
	if err := Build(rt, &f, FromSlice(runtime.FromInt, []int64{1, 2, 3}), NoKwargs()); err != nil {
		panic(err)
	}
	defer f.Close()

	fmt.Println(f.Positional(), f.Len())
	// Output: 3 3
}
