package auth

import "errors"

// Verification failures are distinct so logs and metrics can tell a forged
// signature from an expired or garbled token. The HTTP boundary collapses
// them into a single opaque rejection.
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token signature invalid")
	ErrInvalidRole      = errors.New("invalid role claim")
	ErrRoleNotPermitted = errors.New("role not permitted")
)
