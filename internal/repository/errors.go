// Package repository defines sentinel errors shared by the
// repositories. Higher layers (the auth service, handlers) use these
// to distinguish expected failure states from infrastructure faults:
// a duplicate jti is retried with a fresh identifier, a duplicate
// username becomes an HTTP 409, while a raw *sql.DB error propagates
// untouched as a server-side failure.
package repository

import "errors"

// ErrDuplicateJti is returned when inserting a refresh token record
// whose jti already exists. Under correct generation this should not
// happen; callers regenerate the jti rather than surfacing the error.
var ErrDuplicateJti = errors.New("duplicate jti")

// ErrUsernameExists is returned when creating a user with a username
// that is already taken.
var ErrUsernameExists = errors.New("username already exists")
