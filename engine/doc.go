// Package engine hosts WebAssembly guest object runtimes behind the
// pycall.Runtime interface, using wazero as the execution engine.
//
// A guest module implements the object runtime itself (reference counting,
// strings, tuples, dicts, callables) and exports it through a small ABI:
//
//	po_alloc / po_free          - scratch memory for marshalling
//	po_incref / po_decref       - reference counting
//	po_str_* / po_tuple_* / ... - object constructors and accessors
//	po_fastcall / po_call       - the two calling conventions
//
// Handles cross the boundary as i32 values; fallible exports return i64
// with negative values carrying an error code. Frame slots for po_fastcall
// are written as a little-endian u32 array into guest memory allocated per
// call.
//
// Usage:
//
//	eng, _ := engine.NewEngine(ctx)
//	defer eng.Close(ctx)
//	mod, _ := eng.LoadModule(ctx, wasmBytes)
//	guest, _ := mod.Instantiate(ctx, "py")
//	res, err := frame.Call(guest, fn, args, kwargs)
package engine
