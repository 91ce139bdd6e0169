// Package errors provides structured error handling for the daemon.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Registry errors
	CodeInvalidRange     Code = "INVALID_RANGE"
	CodeAlreadyMonitored Code = "ALREADY_MONITORED"
	CodeProcessNotFound  Code = "PROCESS_NOT_FOUND"

	// Pass errors
	CodeReadFailure   Code = "READ_FAILURE"
	CodeMergeConflict Code = "MERGE_CONFLICT"

	// Control errors
	CodeBusy         Code = "BUSY"
	CodeShuttingDown Code = "SHUTTING_DOWN"

	// Backend errors
	CodeDriverUnavailable Code = "DRIVER_UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidRange:
		return codes.InvalidArgument

	// AlreadyExists - duplicate or overlapping registration
	case CodeAlreadyMonitored:
		return codes.AlreadyExists

	// NotFound - target process is gone
	case CodeProcessNotFound:
		return codes.NotFound

	// Aborted - content raced the merge
	case CodeMergeConflict:
		return codes.Aborted

	// ResourceExhausted - command queue is saturated
	case CodeBusy:
		return codes.ResourceExhausted

	// Unavailable - daemon is draining
	case CodeShuttingDown:
		return codes.Unavailable

	// FailedPrecondition - kernel facility missing or unusable
	case CodeDriverUnavailable:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
