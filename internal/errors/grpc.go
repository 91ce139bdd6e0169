package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HandleError converts domain errors to gRPC status for client responses.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ToGRPCStatus()
	}

	// Unknown error - return internal with generic message
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
// Returns nil if the error is not a domain error or has no metadata.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

// ReasonFromStatus extracts the domain error code carried in a gRPC
// status ErrorInfo detail. Returns the empty string when the error has
// no ErrorInfo from this domain.
func ReasonFromStatus(err error) string {
	if info := errorInfoFromStatus(err); info != nil {
		return info.GetReason()
	}
	return ""
}

// MetadataFromStatus extracts ErrorInfo metadata from a gRPC status
// error. Returns nil when the error carries no ErrorInfo detail.
func MetadataFromStatus(err error) map[string]string {
	if info := errorInfoFromStatus(err); info != nil {
		return info.GetMetadata()
	}
	return nil
}

func errorInfoFromStatus(err error) *errdetails.ErrorInfo {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return info
		}
	}
	return nil
}
