package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/benwyw/botboard/internal/model"
)

// UserRepo is the user directory backed by the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with an already-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash, email, role, status string) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, email, role, status, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		username, passwordHash, email, role, status, now, now)
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByUsername fetches a user by exact (case-sensitive) username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var (
		u         model.User
		email     sql.NullString
		lastLogin sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,email,role,status,last_login_at,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &u.Role, &u.Status, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if email.Valid {
		u.Email = email.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=?, updated_at=? WHERE id=?",
		time.Now().UTC(), time.Now().UTC(), id)
	return err
}

// DeleteByUsername removes the user row and reports affected rows.
func (r *UserRepo) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE username=?", username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the total number of users ("user base" figure).
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// isDuplicateErr detects a unique-key violation. MySQL reports error
// 1062; SQLite reports a UNIQUE constraint failure.
func isDuplicateErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}
