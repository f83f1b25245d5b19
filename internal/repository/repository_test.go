package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/benwyw/botboard/internal/model"
)

// testDB creates a temporary SQLite database with the schema applied.
// The SQL in this package is written driver-portably (placeholders,
// timestamps passed as arguments) so the repositories run unchanged
// against SQLite in tests and MySQL in production.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "botboard-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email         TEXT,
			role          TEXT NOT NULL DEFAULT 'USER',
			status        TEXT NOT NULL DEFAULT 'ACTIVE',
			last_login_at DATETIME,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);

		CREATE TABLE refresh_tokens (
			jti        TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL,
			token_hash TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked    INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX idx_refresh_tokens_user_id ON refresh_tokens(user_id);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

// seedUser inserts a user row and returns its id.
func seedUser(t *testing.T, db *sql.DB, username string) uint64 {
	t.Helper()
	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), username, "$2a$10$hash", "", "USER", "ACTIVE")
	if err != nil {
		t.Fatalf("seeding user %q: %v", username, err)
	}
	return id
}

// tokenRecord builds a refresh token record for tests.
func tokenRecord(jti string, userID uint64, hash string, expiresAt time.Time) model.RefreshToken {
	return model.RefreshToken{
		Jti:       jti,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
}

// seedToken inserts a refresh token record for the user.
func seedToken(t *testing.T, db *sql.DB, jti string, userID uint64, hash string, expiresAt time.Time) {
	t.Helper()
	repo := NewTokenRepo(db)
	err := repo.Store(context.Background(), model.RefreshToken{
		Jti:       jti,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seeding token %q: %v", jti, err)
	}
}
