// Package auth implements the credential lifecycle of the CRM API: login,
// refresh-token rotation, logout and per-request access verification. It owns
// the stable error taxonomy surfaced to clients; no raw store or codec error
// crosses this package's boundary.
package auth

import "net/http"

// Error is an authentication failure with a stable machine-readable code.
// The taxonomy values below are the only auth errors callers ever observe;
// handlers map Status straight onto the HTTP response.
type Error struct {
	Code    string // stable machine-readable code, e.g. "TOKEN_EXPIRED"
	Message string // human-readable description, safe to show to clients
	Status  int    // HTTP status the boundary should respond with
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrNoToken: the request carried no bearer token at all.
	ErrNoToken = &Error{Code: "NO_TOKEN", Message: "access token required", Status: http.StatusUnauthorized}

	// ErrTokenExpired: signature fine, expiry elapsed.
	ErrTokenExpired = &Error{Code: "TOKEN_EXPIRED", Message: "token expired", Status: http.StatusUnauthorized}

	// ErrTokenInvalid: bad signature, malformed token, or a refresh token
	// whose row no longer exists (consumed, revoked or never issued).
	ErrTokenInvalid = &Error{Code: "INVALID_TOKEN", Message: "invalid token", Status: http.StatusUnauthorized}

	// ErrUserNotFound: a well-signed token names a user that no longer
	// resolves to an active row.
	ErrUserNotFound = &Error{Code: "USER_NOT_FOUND", Message: "user not found or inactive", Status: http.StatusUnauthorized}

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "invalid credentials", Status: http.StatusUnauthorized}

	// ErrRoleNotAuthorized: credentials are correct but the account's role is
	// outside the configured login allow-list.
	ErrRoleNotAuthorized = &Error{Code: "ROLE_NOT_AUTHORIZED", Message: "access denied: administrative staff only", Status: http.StatusForbidden}

	// ErrInsufficientPermissions: authenticated, but the role gate for the
	// route rejects the caller's role.
	ErrInsufficientPermissions = &Error{Code: "INSUFFICIENT_PERMISSIONS", Message: "you do not have permission to perform this action", Status: http.StatusForbidden}

	// ErrNotAuthenticated: a role gate ran without an identity in context.
	ErrNotAuthenticated = &Error{Code: "NOT_AUTHENTICATED", Message: "user not authenticated", Status: http.StatusUnauthorized}

	// ErrInternal: store or codec failure not otherwise classified. Detail is
	// logged server-side and never surfaced.
	ErrInternal = &Error{Code: "INTERNAL_ERROR", Message: "internal server error", Status: http.StatusInternalServerError}
)
