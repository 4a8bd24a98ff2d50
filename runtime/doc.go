// Package runtime provides Local, an in-memory reference-counted object
// runtime implementing pycall.Runtime.
//
// Local exists for two reasons: it is the reference implementation the
// frame layer is tested against, and it is a working runtime for hosting
// Go callables behind the calling conventions. Objects live in an entries
// table indexed by handle; freed slots are recycled through a free list,
// so a leaked reference keeps its slot occupied and shows up in Live.
//
// Supported object kinds: int, str, tuple, list, dict (string keys,
// insertion ordered), and function. Functions are Go closures registered
// with NewFunc; they receive normalized arguments whichever convention the
// caller used.
package runtime
