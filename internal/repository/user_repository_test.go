package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestUserRepo_CreateAndFind(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "alice", "$2a$10$somehash", "alice@example.com", "USER", "ACTIVE")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Create() should return a non-zero id")
	}

	u, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if u.ID != id {
		t.Errorf("ID = %d, want %d", u.ID, id)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Role != "USER" || u.Status != "ACTIVE" {
		t.Errorf("Role/Status = %q/%q, want USER/ACTIVE", u.Role, u.Status)
	}
	if u.LastLoginAt != nil {
		t.Error("new user should have no last login")
	}
}

func TestUserRepo_UsernameIsCaseSensitiveLookup(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "Bob", "$2a$10$hash", "", "USER", "ACTIVE"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.FindByUsername(ctx, "bob"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("FindByUsername(lowercase) error = %v, want sql.ErrNoRows", err)
	}
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "carol", "$2a$10$hash", "", "USER", "ACTIVE"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := repo.Create(ctx, "carol", "$2a$10$other", "", "USER", "ACTIVE")
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("Create() error = %v, want ErrUsernameExists", err)
	}
}

func TestUserRepo_UpdateLastLogin(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "dave", "$2a$10$hash", "", "USER", "ACTIVE")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateLastLogin(ctx, id); err != nil {
		t.Fatalf("UpdateLastLogin() error = %v", err)
	}

	u, err := repo.FindByUsername(ctx, "dave")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if u.LastLoginAt == nil {
		t.Fatal("LastLoginAt should be set after UpdateLastLogin()")
	}
}

func TestUserRepo_DeleteByUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "erin", "$2a$10$hash", "", "USER", "ACTIVE"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	n, err := repo.DeleteByUsername(ctx, "erin")
	if err != nil {
		t.Fatalf("DeleteByUsername() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteByUsername() = %d rows, want 1", n)
	}

	n, err = repo.DeleteByUsername(ctx, "erin")
	if err != nil {
		t.Fatalf("second DeleteByUsername() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second DeleteByUsername() = %d rows, want 0", n)
	}
}

func TestUserRepo_Count(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	for _, name := range []string{"u1", "u2", "u3"} {
		if _, err := repo.Create(ctx, name, "$2a$10$hash", "", "USER", "ACTIVE"); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}
