// Package shared defines sentinel errors and small utilities used across
// the server layers. Callers should use errors.Is to match these values.
package shared

import "errors"

var (

	// repository-level errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service-level errors (generic/internal flow control)
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// auth-specific errors
	ErrorInvalidToken   = errors.New("invalid token")
	ErrorNoPendingNonce = errors.New("no pending nonce")

	// upload-specific errors
	ErrorFileTooLarge = errors.New("File too large")
	ErrorNotAnImage   = errors.New("Only image files are allowed")
	ErrorMissingFile  = errors.New("no file uploaded")
)
