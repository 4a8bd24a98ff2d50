// Package frame assembles call frames for a foreign object runtime.
//
// A frame is the flat argument layout of the fast-call convention:
// positional handles first, then one handle per keyword, with the keyword
// names carried in a separate interned tuple:
//
//	┌──────────────────────────────────────────────────────┐
//	│ [recv?] a0 a1 ... aN │ kw0 kw1 ... kwM │ names tuple │
//	└──────────────────────────────────────────────────────┘
//
// # Argument Sources
//
// Every way of supplying arguments is a constructor returning an Args or
// Kwargs value; the constructor fixes the storage strategy, so the frame
// itself performs no type tests:
//
//	Empty()                 - no arguments
//	FromSlice(conv, vals)   - homogeneous, length known up front
//	Existing(handles)       - borrowed slice, zero-copy when used alone
//	FromSeqExact(c, s, n)   - iterator with a trusted exact length
//	FromSeqHint(c, s, n)    - iterator with a cheap length hint
//	FromSeq(conv, seq)      - iterator with no length information
//	ForeignSequence(obj)    - runtime sequence, contiguous borrowed view
//	ForeignIterable(obj)    - any runtime iterable, drained item by item
//	Positional(vals...)     - heterogeneous fixed group
//
//	NoKwargs()              - no keywords
//	KwargsNamed(names, v..) - interned name set, cached names tuple
//	KwargsPairs(conv, ps)   - sized name/value pairs
//	KwargsSeq(conv, seq)    - unsized stream, dict path
//	ForeignMapping(obj)     - runtime mapping, zero-copy on the dict path
//
// # Storage
//
// Frames of up to MaxInlineArgs slots with statically-sized sources live in
// an inline buffer inside the Frame value; everything else spills to a
// pooled heap buffer. Slot 0 ahead of the arguments is kept free so a
// receiver can be prepended without copying.
//
// # Ownership
//
// Converted handles are owned by the frame and released by Close; borrowed
// sources (Existing, ForeignSequence, ForeignMapping) are never released
// and must outlive the call. During assembly, guards track the initialized
// prefix so a mid-sequence conversion failure releases exactly the handles
// created so far.
//
// # Calling
//
// Call picks the convention: fast-call with a flat frame when the callable
// supports it, generic tuple-plus-dict otherwise. Foreign tuples and
// mappings pass through the generic path without copying.
//
// A keyword name supplied more than once across the sources of one call is
// an error (errors.KindDuplicateKeyword), on both conventions: the names
// builder tracks seen names, and the dict path compares the pair count
// against the dict's final length.
package frame
