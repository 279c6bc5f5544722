// Package errors provides structured error types for the script bridge.
//
// Errors are categorized by Phase (which bridge component failed) and Kind
// (error category). The Error type carries the lookup path (handle, field,
// method), Go and managed type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseField, errors.KindTypeMismatch).
//		Path("Cube", "Position").
//		GoType("string").
//		ManagedType("vec3").
//		Detail("cannot assign string to vector field").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseNative, "native function", "NativeRaycast")
//	err := errors.MissingCapability("world-object base")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
