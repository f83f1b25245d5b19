package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/benwyw/botboard/internal/model"
	"github.com/benwyw/botboard/internal/repository"
	"github.com/benwyw/botboard/internal/utils"
)

// UserDirectory is the view of the user store the auth service needs.
// *repository.UserRepo satisfies it; tests inject fakes.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	UpdateLastLogin(ctx context.Context, id uint64) error
	DeleteByUsername(ctx context.Context, username string) (int64, error)
}

// TokenStore is the refresh token record store. All durable session
// state lives here; the service itself holds no mutable state.
type TokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	IsValid(ctx context.Context, jti, tokenHash string) (bool, error)
	Revoke(ctx context.Context, jti string) error
	RevokeIfActive(ctx context.Context, jti string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
	DeleteAllForUser(ctx context.Context, userID uint64) (int64, error)
	CountExpiredOrRevoked(ctx context.Context) (int64, error)
	PurgeExpiredOrRevoked(ctx context.Context) (int64, error)
}

// TokenPair is what a successful login or refresh hands back: a fresh
// access token and a fresh refresh token, plus the resolved user for
// the presentation layer to render as it pleases.
type TokenPair struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// dummyHash is a bcrypt hash compared against when the username does
// not exist, so that the missing-user path costs roughly the same as
// a wrong-password check.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService owns the session invariants: token uniqueness, one-shot
// rotation, revocation-before-reuse. It orchestrates the codec, the
// token store and the user directory and is safe for concurrent use.
type AuthService struct {
	Secret         string // JWT signing key, immutable for the process lifetime
	AccessTTLMin   int
	RefreshTTLDays int
	Users          UserDirectory
	Tokens         TokenStore
}

func NewAuthService(secret string, accessTTLMin, refreshTTLDays int, users UserDirectory, tokens TokenStore) *AuthService {
	return &AuthService{
		Secret:         secret,
		AccessTTLMin:   accessTTLMin,
		RefreshTTLDays: refreshTTLDays,
		Users:          users,
		Tokens:         tokens,
	}
}

// Login verifies credentials and, on success, issues a first-generation
// token pair, persists the refresh record and stamps the user's last
// login. Unknown user and bad password both come back as
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a comparable amount of time before failing.
			utils.VerifyPassword(dummyHash, password)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Users.UpdateLastLogin(ctx, u.ID); err != nil {
		// Last-login is advisory; a failed stamp must not undo a login.
		log.Printf("auth: update last login for %s: %v", username, err)
	}
	return pair, nil
}

// Refresh redeems a refresh token for a brand-new pair. Rotation is
// one-shot: the presented record is revoked before the successor is
// issued, via a conditional update that exactly one concurrent caller
// can win. A second presentation of the same raw token, retry or
// replay alike, fails with ErrInvalidOrRevokedToken.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (TokenPair, error) {
	jti, username, err := utils.ParseRefreshToken(s.Secret, rawToken)
	if err != nil {
		return TokenPair{}, ErrInvalidTokenFormat
	}

	ok, err := s.Tokens.IsValid(ctx, jti, utils.HashRefreshRaw(rawToken))
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: validate token: %w", err)
	}
	if !ok {
		return TokenPair{}, ErrInvalidOrRevokedToken
	}

	u, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The user was deleted after issuance; the session dies
			// with them rather than silently succeeding.
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("auth: lookup user: %w", err)
	}

	// Revoke-then-issue. Losing the conditional update means another
	// caller already redeemed this token.
	won, err := s.Tokens.RevokeIfActive(ctx, jti)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: revoke token: %w", err)
	}
	if !won {
		return TokenPair{}, ErrInvalidOrRevokedToken
	}

	return s.issuePair(ctx, u)
}

// Logout revokes the single record behind the presented refresh token.
// Malformed tokens and already-revoked records are success: there is
// nothing meaningfully left to undo. Only store connectivity faults
// surface, and callers typically just log those.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	jti, _, err := utils.ParseRefreshToken(s.Secret, rawToken)
	if err != nil {
		return nil
	}
	if err := s.Tokens.Revoke(ctx, jti); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// LogoutAll revokes every active refresh token of the named user
// ("sign out everywhere"). An unknown username is a no-op success.
func (s *AuthService) LogoutAll(ctx context.Context, username string) error {
	u, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("auth: lookup user: %w", err)
	}
	if err := s.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return fmt.Errorf("auth: revoke all for user: %w", err)
	}
	return nil
}

// DeleteUser removes every refresh token record for the user and then
// the user row itself, in that order so no token row is left pointing
// at a vanished user id. Returns rows removed from each table.
func (s *AuthService) DeleteUser(ctx context.Context, username string) (tokenRows, userRows int64, err error) {
	u, err := s.Users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("auth: lookup user: %w", err)
	}
	if err == nil {
		tokenRows, err = s.Tokens.DeleteAllForUser(ctx, u.ID)
		if err != nil {
			return 0, 0, fmt.Errorf("auth: delete tokens: %w", err)
		}
	}
	userRows, err = s.Users.DeleteByUsername(ctx, username)
	if err != nil {
		return tokenRows, 0, fmt.Errorf("auth: delete user: %w", err)
	}
	return tokenRows, userRows, nil
}

// Purge removes expired and revoked token records. With dryRun the
// exact count a destructive run would remove is reported instead,
// using the same predicate, so automation can be verified first.
func (s *AuthService) Purge(ctx context.Context, dryRun bool) (int64, error) {
	if dryRun {
		n, err := s.Tokens.CountExpiredOrRevoked(ctx)
		if err != nil {
			return 0, fmt.Errorf("auth: count purgeable: %w", err)
		}
		return n, nil
	}
	n, err := s.Tokens.PurgeExpiredOrRevoked(ctx)
	if err != nil {
		return 0, fmt.Errorf("auth: purge: %w", err)
	}
	return n, nil
}

// issuePair mints an access/refresh pair for the user and persists the
// refresh record. A jti collision is an internal fault, not a client
// error: the refresh token is regenerated with a fresh jti.
func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.Secret, u.Username, u.Role, s.AccessTTLMin)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue access: %w", err)
	}

	var refresh utils.RefreshToken
	for attempt := 0; ; attempt++ {
		refresh, err = utils.NewRefreshToken(s.Secret, u.Username, s.RefreshTTLDays)
		if err != nil {
			return TokenPair{}, fmt.Errorf("auth: issue refresh: %w", err)
		}
		err = s.Tokens.Store(ctx, model.RefreshToken{
			Jti:       refresh.Jti,
			UserID:    u.ID,
			TokenHash: utils.HashRefreshRaw(refresh.Raw),
			ExpiresAt: refresh.Exp,
			CreatedAt: time.Now().UTC(),
		})
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateJti) || attempt >= 2 {
			return TokenPair{}, fmt.Errorf("auth: save refresh: %w", err)
		}
		log.Printf("auth: jti collision for %s, regenerating", u.Username)
	}

	return TokenPair{User: u, Access: access, Refresh: refresh}, nil
}
