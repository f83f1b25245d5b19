package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/benwyw/botboard/internal/config"
	"github.com/benwyw/botboard/internal/queue"
	"github.com/benwyw/botboard/internal/repository"
	"github.com/benwyw/botboard/internal/service"
	"github.com/benwyw/botboard/internal/utils"
)

// AdminHandler exposes the operator surface: user management and
// refresh token maintenance. All routes are JWT-protected and gated
// on the ADMIN role.
type AdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Svc   *service.AuthService
	RDB   *redis.Client // nil when Redis is unavailable; cache eviction degrades to a no-op
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo, svc *service.AuthService, rdb *redis.Client) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: users, Svc: svc, RDB: rdb}
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// CreateUser inserts a user record with a bcrypt-hashed password.
// Role and status default to USER/ACTIVE when blank.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = "USER"
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = "ACTIVE"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	id, err := h.Users.Create(ctx, req.Username, hash, strings.TrimSpace(req.Email), role, status)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		log.Printf("admin: create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	h.evictUserBase(ctx)
	_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:     queue.EventUserCreated,
		Username: req.Username,
		UserID:   id,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       id,
		"username": req.Username,
		"role":     role,
		"status":   status,
	})
}

// DeleteUser removes a user and all of their refresh token records.
// Tokens go first so no record is left referencing a vanished user id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tokenRows, userRows, err := h.Svc.DeleteUser(ctx, username)
	if err != nil {
		log.Printf("admin: delete user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if userRows == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	h.evictUserBase(ctx)
	_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:     queue.EventUserDeleted,
		Username: username,
		Count:    tokenRows,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{
		"usersDeleted":  userRows,
		"tokensDeleted": tokenRows,
	})
}

// PurgeTokens removes expired/revoked refresh token rows. With
// ?dryrun=true it only reports the count the destructive run would
// delete, so scheduled automation can be verified first.
func (h *AdminHandler) PurgeTokens(c echo.Context) error {
	dryRun := strings.EqualFold(c.QueryParam("dryrun"), "true") || c.QueryParam("dryrun") == "1"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Svc.Purge(ctx, dryRun)
	if err != nil {
		log.Printf("admin: purge tokens: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purge failed"})
	}
	if !dryRun {
		_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
			Type:  queue.EventTokensPurged,
			Count: n,
			At:    time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"dryRun": dryRun, "affected": n})
}

// evictUserBase drops the cached /misc/userBase figure after a user
// mutation.
func (h *AdminHandler) evictUserBase(ctx context.Context) {
	if h.RDB == nil {
		return
	}
	if err := h.RDB.Del(ctx, userBaseCacheKey).Err(); err != nil {
		log.Printf("admin: evict user base cache: %v", err)
	}
}
