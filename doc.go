// Package pycall marshals Go values into the call frames of a Python-style
// foreign object runtime.
//
// The heart of the library is the frame package: it takes a description of
// positional and keyword arguments, picks a storage strategy per source,
// converts elements one at a time, and produces the exact layout the
// runtime's fast-call convention expects — while guaranteeing that a failed
// conversion releases exactly the handles created so far and nothing else.
//
// # Architecture Overview
//
//	pycall/          Root package: Handle, the Runtime port, Converter
//	├── frame/       Storage, guards, argument strategies, call orchestration
//	├── runtime/     In-memory refcounted object runtime (tests, demos)
//	├── engine/      WebAssembly guest object runtime via wazero
//	├── errors/      Structured error types
//	└── cmd/run      Demo CLI and interactive frame tracer
//
// # Quick Start
//
// Call a runtime object with mixed arguments:
//
//	rt := runtime.NewLocal()
//	defer rt.Close()
//
//	res, err := frame.Call(rt, fn,
//	    frame.FromSlice(runtime.FromInt, []int64{1, 2, 3}),
//	    frame.KwargsNamed(names, frame.Val(runtime.FromString, "x")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.DecRef(res)
//
// Argument sources are chosen by constructor, best strategy first: Empty,
// fixed-size groups (FromSlice, Positional), zero-copy existing slices
// (Existing), length-reporting iterators (FromSeqExact, FromSeqHint),
// arbitrary iterators (FromSeq), and foreign objects (ForeignSequence,
// ForeignIterable). Keyword sources mirror the same ladder.
package pycall
