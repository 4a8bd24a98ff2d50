package engine

import (
	"github.com/wippyai/pycall/errors"
)

// Guest ABI: the exports a WebAssembly object runtime must provide. Handles
// cross the boundary as i32; fallible operations return i64 with negative
// values carrying an error code.
const (
	expMemory = "memory"

	expAlloc = "po_alloc"
	expFree  = "po_free"

	expIncRef = "po_incref"
	expDecRef = "po_decref"

	expStrNew  = "po_str_new"
	expStrLen  = "po_str_len"
	expStrRead = "po_str_read"

	expTupleNew = "po_tuple_new"
	expTupleSet = "po_tuple_set"
	expTupleLen = "po_tuple_len"
	expTupleGet = "po_tuple_get"

	expSeqLen = "po_seq_len"
	expSeqGet = "po_seq_get"

	expDictNew    = "po_dict_new"
	expDictSet    = "po_dict_set"
	expDictLen    = "po_dict_len"
	expDictUpdate = "po_dict_update"
	expIsMapping  = "po_is_mapping"

	expIterNew  = "po_iter_new"
	expIterNext = "po_iter_next"

	expHasFastcall = "po_has_fastcall"
	expFastcall    = "po_fastcall"
	expCall        = "po_call"
	expGetAttr     = "po_getattr"
)

// requiredExports lists every function the guest must export. Instantiate
// rejects modules missing any of them up front, so calls never fail late on
// a nil export.
var requiredExports = []string{
	expAlloc, expFree,
	expIncRef, expDecRef,
	expStrNew, expStrLen, expStrRead,
	expTupleNew, expTupleSet, expTupleLen, expTupleGet,
	expSeqLen, expSeqGet,
	expDictNew, expDictSet, expDictLen, expDictUpdate, expIsMapping,
	expIterNew, expIterNext,
	expHasFastcall, expFastcall, expCall, expGetAttr,
}

// Guest error codes, returned as negative i64 values.
const (
	codeInvalidHandle = -1
	codeTypeMismatch  = -2
	codeNotCallable   = -3
	codeNotIterable   = -4
	codeNotMapping    = -5
	codeAllocation    = -6
	codeFault         = -7
)

// codeError maps a guest error code to the structured error space.
func codeError(phase errors.Phase, code int64) error {
	switch code {
	case codeInvalidHandle:
		return errors.New(phase, errors.KindInvalidHandle).Detail("guest rejected handle").Build()
	case codeTypeMismatch:
		return errors.New(phase, errors.KindTypeMismatch).Detail("guest object has the wrong type").Build()
	case codeNotCallable:
		return errors.NotCallable("guest object is not callable")
	case codeNotIterable:
		return errors.NotIterable("guest object is not iterable")
	case codeNotMapping:
		return errors.NotMapping("guest object is not a mapping")
	case codeAllocation:
		return errors.New(phase, errors.KindAllocation).Detail("guest allocation failed").Build()
	default:
		return errors.New(phase, errors.KindInvalidInput).Detail("guest fault (code %d)", code).Build()
	}
}
