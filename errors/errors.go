package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in frame construction the error occurred
type Phase string

const (
	PhaseConvert  Phase = "convert"  // element conversion
	PhaseAssemble Phase = "assemble" // storage initialization
	PhaseFinalize Phase = "finalize" // ownership transfer into the frame
	PhaseCall     Phase = "call"     // callable invocation
	PhaseRuntime  Phase = "runtime"  // object runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindConversion       Kind = "conversion"
	KindDuplicateKeyword Kind = "duplicate_keyword"
	KindTypeMismatch     Kind = "type_mismatch"
	KindNotCallable      Kind = "not_callable"
	KindNotIterable      Kind = "not_iterable"
	KindNotMapping       Kind = "not_mapping"
	KindInvalidHandle    Kind = "invalid_handle"
	KindOverflow         Kind = "overflow"
	KindAllocation       Kind = "allocation"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindClosed           Kind = "closed"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	Keyword string
	Detail  string
	Arg     int // argument position, -1 when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Arg >= 0 {
		fmt.Fprintf(&b, " at argument %d", e.Arg)
	}
	if e.Keyword != "" {
		fmt.Fprintf(&b, " for keyword %q", e.Keyword)
	}
	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Arg:   -1,
		},
	}
}

// Arg sets the argument position
func (b *Builder) Arg(i int) *Builder {
	b.err.Arg = i
	return b
}

// Keyword sets the keyword name
func (b *Builder) Keyword(name string) *Builder {
	b.err.Keyword = name
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Conversion wraps a Conversion Port failure for the element at position arg
func Conversion(arg int, cause error) *Error {
	return &Error{
		Phase: PhaseConvert,
		Kind:  KindConversion,
		Arg:   arg,
		Cause: cause,
	}
}

// KeywordConversion wraps a Conversion Port failure for a keyword value
func KeywordConversion(name string, cause error) *Error {
	return &Error{
		Phase:   PhaseConvert,
		Kind:    KindConversion,
		Arg:     -1,
		Keyword: name,
		Cause:   cause,
	}
}

// DuplicateKeyword reports the same keyword name supplied twice
func DuplicateKeyword(name string) *Error {
	return &Error{
		Phase:   PhaseAssemble,
		Kind:    KindDuplicateKeyword,
		Arg:     -1,
		Keyword: name,
		Detail:  "got multiple values for keyword argument",
	}
}

// NotCallable reports an attempt to call a non-callable object
func NotCallable(detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNotCallable,
		Arg:    -1,
		Detail: detail,
	}
}

// NotIterable reports an object that cannot be iterated
func NotIterable(detail string) *Error {
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   KindNotIterable,
		Arg:    -1,
		Detail: detail,
	}
}

// NotMapping reports an object that is not usable as a keyword mapping
func NotMapping(detail string) *Error {
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   KindNotMapping,
		Arg:    -1,
		Detail: detail,
	}
}

// InvalidHandle reports an operation on a dead or foreign handle
func InvalidHandle(phase Phase, handle uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Arg:    -1,
		Detail: fmt.Sprintf("handle %d is not a live object", handle),
	}
}

// TypeMismatch reports an object of the wrong runtime type
func TypeMismatch(phase Phase, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Arg:    -1,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// Overflow reports a size or count outside the representable range
func Overflow(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Arg:    -1,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Arg:    -1,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Arg:    -1,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Closed reports use of a runtime after Close
func Closed(detail string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindClosed,
		Arg:    -1,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Arg:    -1,
		Detail: detail,
		Cause:  cause,
	}
}
