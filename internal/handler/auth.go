package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/benwyw/botboard/internal/queue"
	"github.com/benwyw/botboard/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints. It is a thin
// translation layer: the auth service returns plain results and errors,
// the handler turns them into HTTP responses and never leaks which
// sub-check failed.
type AuthHandler struct {
	Svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type logoutAllReq struct {
	Username string `json:"username"`
}

type tokenResp struct {
	AccessToken    string    `json:"accessToken"`
	RefreshToken   string    `json:"refreshToken"`
	AccessExpires  time.Time `json:"accessExpires"`
	RefreshExpires time.Time `json:"refreshExpires"`
}

func pairResp(p service.TokenPair) tokenResp {
	return tokenResp{
		AccessToken:    p.Access.Token,
		RefreshToken:   p.Refresh.Raw, // raw back to client, only its hash is stored
		AccessExpires:  p.Access.Exp,
		RefreshExpires: p.Refresh.Exp,
	}
}

// Login verifies credentials and returns a fresh token pair. Bad
// username and bad password are the same 401 on purpose.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Printf("login: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:     queue.EventLoginSuccess,
		Username: pair.User.Username,
		UserID:   pair.User.ID,
		Jti:      pair.Refresh.Jti,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, pairResp(pair))
}

// Refresh redeems a refresh token for a brand-new pair. The old token
// is dead afterwards whether or not the client receives this response,
// so clients must persist the returned pair before retrying anything.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Svc.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTokenFormat),
			errors.Is(err, service.ErrInvalidOrRevokedToken),
			errors.Is(err, service.ErrUserNotFound):
			_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
				Type:   queue.EventRefreshDenied,
				Detail: err.Error(),
				At:     time.Now().UTC().Format(time.RFC3339),
			})
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		log.Printf("refresh: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, pairResp(pair))
}

// Logout revokes the presented refresh token. It always answers 204:
// a malformed or already-revoked token leaves nothing to undo, and a
// store fault is logged rather than shown.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		log.Printf("logout: %v", err)
	} else {
		_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
			Type: queue.EventLogout,
			At:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every active session of the named user. Unknown
// usernames are a no-op success.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	var req logoutAllReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	username := strings.TrimSpace(req.Username)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.LogoutAll(ctx, username); err != nil {
		log.Printf("logout-all: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:     queue.EventLogoutAll,
		Username: username,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"username": c.Get("username"),
		"role":     c.Get("role"),
	})
}
