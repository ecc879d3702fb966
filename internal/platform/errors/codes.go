// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeBadArgs indicates syntactically invalid input, such as a blank
	// identifier or a whitespace-only story name.
	CodeBadArgs Code = "BAD_ARGS"

	// CodeObjectNotFound indicates a referenced session, story, user or vote
	// does not exist in the store.
	CodeObjectNotFound Code = "OBJECT_NOT_FOUND"

	// CodePermissionDenied indicates the caller's role or session affiliation
	// does not allow the attempted operation.
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// CodeUnauthorized indicates the request carries no usable authentication
	// context (missing, malformed or expired principal token).
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeDuplicateIdentifier indicates an identifier that must be unique is
	// already taken, such as a connected username inside a session.
	CodeDuplicateIdentifier Code = "DUPLICATE_IDENTIFIER"

	// CodeInternal indicates an unexpected storage or infrastructure failure.
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps the code to the HTTP status the transport layer reports.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadArgs:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeObjectNotFound:
		return http.StatusNotFound
	case CodeDuplicateIdentifier:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
