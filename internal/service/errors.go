package service

import "errors"

// Failure taxonomy of the auth service. Every operation recovers its
// internal failures into exactly one of these; anything else escaping
// an operation is an infrastructure fault (store or directory
// connectivity) and is wrapped, never folded into this set.
var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password. The two are deliberately indistinguishable to callers
	// so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidTokenFormat means the presented refresh token is
	// malformed, unsigned or corrupt.
	ErrInvalidTokenFormat = errors.New("invalid token format")

	// ErrInvalidOrRevokedToken means a well-formed token that is not
	// currently valid: unknown jti, expired, or already revoked. A
	// rotation that lost a concurrent race reports this too.
	ErrInvalidOrRevokedToken = errors.New("invalid or revoked token")

	// ErrUserNotFound means a valid token references a user that no
	// longer exists; the session is invalid rather than resurrected.
	ErrUserNotFound = errors.New("user not found")
)
