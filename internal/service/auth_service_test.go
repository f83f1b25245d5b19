package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benwyw/botboard/internal/model"
	"github.com/benwyw/botboard/internal/repository"
	"github.com/benwyw/botboard/internal/utils"
)

// fakeDirectory is an in-memory UserDirectory.
type fakeDirectory struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (d *fakeDirectory) FindByUsername(_ context.Context, username string) (model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[username]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (d *fakeDirectory) UpdateLastLogin(_ context.Context, id uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, u := range d.users {
		if u.ID == id {
			now := time.Now().UTC()
			u.LastLoginAt = &now
			d.users[name] = u
		}
	}
	return nil
}

func (d *fakeDirectory) DeleteByUsername(_ context.Context, username string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[username]; !ok {
		return 0, nil
	}
	delete(d.users, username)
	return 1, nil
}

// fakeStore is an in-memory TokenStore with the same conditional-update
// semantics as the SQL implementation.
type fakeStore struct {
	mu         sync.Mutex
	records    map[string]*model.RefreshToken
	failStores int // next N Store calls fail with ErrDuplicateJti
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*model.RefreshToken)}
}

func (s *fakeStore) Store(_ context.Context, t model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStores > 0 {
		s.failStores--
		return repository.ErrDuplicateJti
	}
	if _, exists := s.records[t.Jti]; exists {
		return repository.ErrDuplicateJti
	}
	rec := t
	s.records[t.Jti] = &rec
	return nil
}

func (s *fakeStore) IsValid(_ context.Context, jti, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jti]
	if !ok {
		return false, nil
	}
	return !rec.Revoked && rec.TokenHash == tokenHash && time.Now().UTC().Before(rec.ExpiresAt), nil
}

func (s *fakeStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[jti]; ok {
		rec.Revoked = true
	}
	return nil
}

func (s *fakeStore) RevokeIfActive(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jti]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (s *fakeStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.UserID == userID {
			rec.Revoked = true
		}
	}
	return nil
}

func (s *fakeStore) DeleteAllForUser(_ context.Context, userID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for jti, rec := range s.records {
		if rec.UserID == userID {
			delete(s.records, jti)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountExpiredOrRevoked(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, rec := range s.records {
		if rec.Revoked || !rec.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) PurgeExpiredOrRevoked(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for jti, rec := range s.records {
		if rec.Revoked || !rec.ExpiresAt.After(now) {
			delete(s.records, jti)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) get(jti string) (model.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jti]
	if !ok {
		return model.RefreshToken{}, false
	}
	return *rec, true
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

const testPassword = "password123"

func newTestService(t *testing.T) (*AuthService, *fakeDirectory, *fakeStore) {
	t.Helper()
	hash, err := utils.HashPassword(testPassword, 4)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	dir := &fakeDirectory{users: map[string]model.User{
		"alice": {ID: 1, Username: "alice", PasswordHash: hash, Role: "USER", Status: "ACTIVE"},
	}}
	store := newFakeStore()
	return NewAuthService("test-secret", 15, 7, dir, store), dir, store
}

func TestLogin_Success(t *testing.T) {
	svc, dir, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if pair.Access.Token == "" || pair.Refresh.Raw == "" {
		t.Fatal("Login() should return both tokens")
	}

	rec, ok := store.get(pair.Refresh.Jti)
	if !ok {
		t.Fatal("refresh record should be persisted")
	}
	if rec.Revoked {
		t.Error("fresh record must not be revoked")
	}
	if rec.TokenHash != utils.HashRefreshRaw(pair.Refresh.Raw) {
		t.Error("stored hash should match the raw token's hash")
	}
	if u := dir.users["alice"]; u.LastLoginAt == nil {
		t.Error("last login should be stamped")
	}
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, ghostErr := svc.Login(ctx, "ghost", "x")
	_, wrongErr := svc.Login(ctx, "alice", "wrongpass")

	if !errors.Is(ghostErr, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", ghostErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Errorf("bad password error = %v, want ErrInvalidCredentials", wrongErr)
	}
	if ghostErr.Error() != wrongErr.Error() {
		t.Error("both failures must have the same shape")
	}
}

func TestRefresh_RotationIsOneShot(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	oldRaw := pair.Refresh.Raw
	oldJti := pair.Refresh.Jti

	next, err := svc.Refresh(ctx, oldRaw)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if next.Refresh.Raw == oldRaw || next.Refresh.Jti == oldJti {
		t.Error("rotation must mint a brand-new refresh token")
	}
	if rec, _ := store.get(oldJti); !rec.Revoked {
		t.Error("the presented record must be revoked by rotation")
	}

	// Any replay of the consumed token fails, a legitimate retry included.
	if _, err := svc.Refresh(ctx, oldRaw); !errors.Is(err, ErrInvalidOrRevokedToken) {
		t.Errorf("replayed refresh error = %v, want ErrInvalidOrRevokedToken", err)
	}

	// The successor keeps working.
	if _, err := svc.Refresh(ctx, next.Refresh.Raw); err != nil {
		t.Errorf("refresh of successor token error = %v", err)
	}
}

func TestRefresh_ConcurrentSingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, pair.Refresh.Raw)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidOrRevokedToken):
			losses++
		default:
			t.Errorf("unexpected refresh error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if losses != callers-1 {
		t.Errorf("losses = %d, want %d", losses, callers-1)
	}
}

func TestRefresh_MalformedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Refresh(context.Background(), raw); !errors.Is(err, ErrInvalidTokenFormat) {
			t.Errorf("Refresh(%q) error = %v, want ErrInvalidTokenFormat", raw, err)
		}
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Force the record past its deadline; revoked stays false.
	store.mu.Lock()
	store.records[pair.Refresh.Jti].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	store.mu.Unlock()

	if _, err := svc.Refresh(ctx, pair.Refresh.Raw); !errors.Is(err, ErrInvalidOrRevokedToken) {
		t.Errorf("expired refresh error = %v, want ErrInvalidOrRevokedToken", err)
	}
}

func TestRefresh_UserDeleted(t *testing.T) {
	svc, dir, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := dir.DeleteByUsername(ctx, "alice"); err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.Refresh.Raw); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("refresh for deleted user error = %v, want ErrUserNotFound", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(ctx, pair.Refresh.Raw); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if rec, _ := store.get(pair.Refresh.Jti); !rec.Revoked {
		t.Fatal("record should be revoked after logout")
	}
	if err := svc.Logout(ctx, pair.Refresh.Raw); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
	if rec, _ := store.get(pair.Refresh.Jti); !rec.Revoked {
		t.Error("record should stay revoked")
	}
	if err := svc.Logout(ctx, "not-even-a-token"); err != nil {
		t.Errorf("Logout() of garbage error = %v, want nil", err)
	}
}

func TestLogoutAll(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	var pairs []TokenPair
	for i := 0; i < 3; i++ {
		p, err := svc.Login(ctx, "alice", testPassword)
		if err != nil {
			t.Fatalf("Login() #%d error = %v", i, err)
		}
		pairs = append(pairs, p)
	}

	if err := svc.LogoutAll(ctx, "alice"); err != nil {
		t.Fatalf("LogoutAll() error = %v", err)
	}
	for _, p := range pairs {
		if rec, _ := store.get(p.Refresh.Jti); !rec.Revoked {
			t.Errorf("record %s should be revoked", p.Refresh.Jti)
		}
	}

	// Unknown usernames are a no-op success.
	if err := svc.LogoutAll(ctx, "ghost"); err != nil {
		t.Errorf("LogoutAll(ghost) error = %v, want nil", err)
	}
}

func TestDeleteUser_Cascade(t *testing.T) {
	svc, dir, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "alice", testPassword); err != nil {
			t.Fatalf("Login() #%d error = %v", i, err)
		}
	}

	tokenRows, userRows, err := svc.DeleteUser(ctx, "alice")
	if err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if tokenRows != 3 {
		t.Errorf("tokenRows = %d, want 3", tokenRows)
	}
	if userRows != 1 {
		t.Errorf("userRows = %d, want 1", userRows)
	}
	if store.count() != 0 {
		t.Errorf("store still holds %d records", store.count())
	}
	if _, err := dir.FindByUsername(ctx, "alice"); !errors.Is(err, sql.ErrNoRows) {
		t.Error("user record should be gone")
	}
}

func TestPurge_DryRunMatchesRealRun(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	// One revoked, one expired, one live.
	p1, _ := svc.Login(ctx, "alice", testPassword)
	p2, _ := svc.Login(ctx, "alice", testPassword)
	if _, err := svc.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(ctx, p1.Refresh.Raw); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	store.mu.Lock()
	store.records[p2.Refresh.Jti].ExpiresAt = time.Now().UTC().Add(-time.Hour)
	store.mu.Unlock()

	predicted, err := svc.Purge(ctx, true)
	if err != nil {
		t.Fatalf("Purge(dryRun) error = %v", err)
	}
	if predicted != 2 {
		t.Fatalf("dry-run count = %d, want 2", predicted)
	}

	deleted, err := svc.Purge(ctx, false)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if deleted != predicted {
		t.Errorf("deleted %d, dry run predicted %d", deleted, predicted)
	}

	again, _ := svc.Purge(ctx, true)
	if again != 0 {
		t.Errorf("post-purge dry-run count = %d, want 0", again)
	}
}

func TestIssuePair_RetriesJtiCollision(t *testing.T) {
	svc, _, store := newTestService(t)
	store.failStores = 1 // first insert collides

	pair, err := svc.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if store.count() != 1 {
		t.Errorf("store holds %d records, want 1", store.count())
	}
	if _, ok := store.get(pair.Refresh.Jti); !ok {
		t.Error("retried record should be persisted under the fresh jti")
	}
}
