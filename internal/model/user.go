package model

import "time"

// User represents an application user record as stored in the
// `users` table. The session core treats it as read-only except
// for the last-login timestamp; creation and deletion happen on
// the admin surface. Role and Status are free-form classification
// strings that the session logic never interprets.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique, case-sensitive login name.
//  PasswordHash – bcrypt hash of the password; never compared as plaintext.
//  Email        – optional contact address (may be empty).
//  Role         – classification string (e.g. USER, ADMIN).
//  Status       – classification string (e.g. ACTIVE).
//  LastLoginAt  – most recent successful login (nil if never logged in).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // users.id
	Username     string     // users.username
	PasswordHash string     // users.password_hash
	Email        string     // users.email
	Role         string     // users.role
	Status       string     // users.status
	LastLoginAt  *time.Time // users.last_login_at (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. One
// row exists per issued refresh token; only the SHA-256 hash of the
// raw token is stored, never the token itself. The jti is embedded
// in the raw token so the row can be located without a scan when a
// token is presented.
//
// Fields:
//  Jti       – globally unique token identifier, the lookup key.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the raw token string.
//  ExpiresAt – absolute UTC expiration timestamp.
//  Revoked   – true once the token is dead; never flips back.
//  CreatedAt – issuance timestamp.
type RefreshToken struct {
	Jti       string    // refresh_tokens.jti
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	Revoked   bool      // refresh_tokens.revoked
	CreatedAt time.Time // refresh_tokens.created_at
}
