package engine

import (
	"context"
	stderrors "errors"
	"testing"

	perrors "github.com/wippyai/pycall/errors"
)

// emptyModule is the smallest valid wasm binary: magic and version only.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	eng, err := NewEngine(ctx)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Close(ctx); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLoadModuleRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	eng, err := NewEngine(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close(ctx)

	if _, err := eng.LoadModule(ctx, []byte("not wasm")); err == nil {
		t.Error("garbage bytes compiled")
	}
}

func TestInstantiateRequiresABIExports(t *testing.T) {
	ctx := context.Background()
	eng, err := NewEngineWithConfig(ctx, &Config{MemoryLimitPages: 256})
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close(ctx)

	mod, err := eng.LoadModule(ctx, emptyModule)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	defer mod.Close(ctx)

	_, err = mod.Instantiate(ctx, "empty")
	if err == nil {
		t.Fatal("module without the guest ABI instantiated")
	}
	// The empty module has no memory export; that is the first check.
	var pe *perrors.Error
	if stderrors.As(err, &pe) && pe.Kind != perrors.KindInvalidInput && pe.Kind != perrors.KindNotFound {
		t.Errorf("unexpected error kind %q: %v", pe.Kind, err)
	}
}

func TestCodeErrorMapping(t *testing.T) {
	cases := []struct {
		code int64
		kind perrors.Kind
	}{
		{codeInvalidHandle, perrors.KindInvalidHandle},
		{codeTypeMismatch, perrors.KindTypeMismatch},
		{codeNotCallable, perrors.KindNotCallable},
		{codeNotIterable, perrors.KindNotIterable},
		{codeNotMapping, perrors.KindNotMapping},
		{codeAllocation, perrors.KindAllocation},
		{codeFault, perrors.KindInvalidInput},
	}
	for _, tc := range cases {
		err := codeError(perrors.PhaseRuntime, tc.code)
		var pe *perrors.Error
		if !stderrors.As(err, &pe) || pe.Kind != tc.kind {
			t.Errorf("code %d: got %v, want kind %q", tc.code, err, tc.kind)
		}
	}
}
