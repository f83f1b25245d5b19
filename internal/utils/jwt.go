package utils // package utils provides token creation, parsing and hashing helpers

import (
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // jti generation
)

// ErrMalformedToken is returned by ParseRefreshToken when the token is
// not a well-formed, correctly signed refresh token.
var ErrMalformedToken = errors.New("malformed or unsigned token")

// AccessToken is a signed, self-contained JWT plus its expiry. Access
// tokens are short-lived and verified statelessly; no store lookup is
// needed to accept one.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is a long-lived token used to obtain new access tokens.
// Raw is the string handed to the client; Jti is the unique identifier
// embedded in it, under which the token's record is stored. Only a
// SHA-256 hash of Raw is ever persisted.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Jti string    // unique token identifier, the store lookup key
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT
// carries standard claims: subject (sub = username), role, typ,
// expiration (exp) and issued at (iat).
func NewAccessToken(secret, username, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  username,
		"role": role,
		"typ":  "access",
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs a refresh JWT carrying a freshly
// generated jti alongside the username. Embedding the jti in the token
// lets the record be located on presentation without scanning; whether
// the token is still good is always the store's decision.
func NewRefreshToken(secret, username string, ttlDays int) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": username,
		"jti": jti,
		"typ": "refresh",
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, Jti: jti, Exp: exp}, nil
}

// ParseRefreshToken verifies the signature of a raw refresh token and
// extracts its jti and username. Expiry is deliberately not enforced
// here: the stored record carries the same deadline and validity is a
// single store-side check, so an expired and a revoked token fail the
// same way. Any structural or signature problem yields ErrMalformedToken.
func ParseRefreshToken(secret, raw string) (jti, username string, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return []byte(secret), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !tok.Valid {
		return "", "", ErrMalformedToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrMalformedToken
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return "", "", ErrMalformedToken
	}
	jti, _ = claims["jti"].(string)
	username, _ = claims["sub"].(string)
	if jti == "" || username == "" {
		return "", "", ErrMalformedToken
	}
	return jti, username, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as
// a hex string. Storing only the hash keeps a leaked database from
// yielding usable refresh tokens.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
