// Package errors provides structured error types for the pycall library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the argument position or
// keyword name, Go type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindConversion).
//		Arg(2).
//		GoType("chan int").
//		Detail("no conversion to a runtime object").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Conversion(3, cause)
//	err := errors.DuplicateKeyword("x")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
