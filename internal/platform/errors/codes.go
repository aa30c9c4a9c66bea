// Package errors provides machine-readable error codes shared across the
// service and their mapping to HTTP status codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unexpected internal error.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation indicates a request was rejected before any side effect.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound indicates a requested card or order does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeCopyProcessing indicates one physical copy failed to process.
	// Copy failures are isolated and never abort the whole order.
	CodeCopyProcessing Code = "COPY_PROCESSING"

	// CodeExternalService indicates an archive, email, or storage
	// collaborator was unreachable.
	CodeExternalService Code = "EXTERNAL_SERVICE"

	// CodeConflict indicates a write conflicted with existing state.
	CodeConflict Code = "CONFLICT"
)
