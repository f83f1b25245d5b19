package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/benwyw/botboard/internal/model"
)

// TokenRepo persists refresh token records keyed by jti. Only the
// SHA-256 hash of a raw token is ever stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token record.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (jti, user_id, token_hash, expires_at, revoked, created_at) VALUES (?,?,?,?,0,?)",
		t.Jti, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), t.CreatedAt.UTC())
	if err != nil && isDuplicateErr(err) {
		return ErrDuplicateJti
	}
	return err
}

// IsValid reports whether a record exists for (jti, tokenHash) that is
// neither revoked nor expired.
func (r *TokenRepo) IsValid(ctx context.Context, jti, tokenHash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM refresh_tokens WHERE jti=? AND token_hash=? AND revoked=0 AND expires_at > ? LIMIT 1",
		jti, tokenHash, time.Now().UTC()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke marks a token as revoked. Revoking an already-revoked or
// unknown jti is a no-op success.
func (r *TokenRepo) Revoke(ctx context.Context, jti string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE jti=?", jti)
	return err
}

// RevokeIfActive flips revoked on the record only if no other caller
// has done so yet, and reports whether this caller won. The rotation
// flow uses this as its conditional check-and-set: under concurrent
// presentations of the same token exactly one caller observes true.
func (r *TokenRepo) RevokeIfActive(ctx context.Context, jti string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE jti=? AND revoked=0", jti)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeAllForUser revokes every active token owned by the user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	return err
}

// DeleteAllForUser hard-deletes every token row for the user. Used
// only on user deletion, before the user row itself goes away.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountExpiredOrRevoked counts rows the purge would delete, using the
// same predicate so a dry run matches the destructive run exactly.
func (r *TokenRepo) CountExpiredOrRevoked(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_tokens WHERE revoked=1 OR expires_at <= ?",
		time.Now().UTC()).Scan(&n)
	return n, err
}

// PurgeExpiredOrRevoked deletes expired and revoked rows, returning
// the number removed.
func (r *TokenRepo) PurgeExpiredOrRevoked(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE revoked=1 OR expires_at <= ?",
		time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
