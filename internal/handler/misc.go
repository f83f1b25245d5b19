package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/benwyw/botboard/internal/config"
	"github.com/benwyw/botboard/internal/repository"
)

// userBaseCacheKey holds the cached user count. Admin user mutations
// evict it so the figure is never stale for long.
const userBaseCacheKey = "userBase:count"

const userBaseCacheTTL = 5 * time.Minute

// MiscHandler serves small informational endpoints for the dashboard.
type MiscHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	RDB   *redis.Client // nil disables caching
}

func NewMiscHandler(cfg config.Config, users *repository.UserRepo, rdb *redis.Client) *MiscHandler {
	return &MiscHandler{Cfg: cfg, Users: users, RDB: rdb}
}

// Title returns the configured application title.
func (h *MiscHandler) Title(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"title": h.Cfg.AppTitle})
}

// UserBase returns the total registered user count, cached in Redis.
func (h *MiscHandler) UserBase(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if h.RDB != nil {
		if v, err := h.RDB.Get(ctx, userBaseCacheKey).Result(); err == nil {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSON(http.StatusOK, echo.Map{"userBase": n})
			}
		}
	}

	n, err := h.Users.Count(ctx)
	if err != nil {
		log.Printf("misc: count users: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if h.RDB != nil {
		if err := h.RDB.SetEx(ctx, userBaseCacheKey, strconv.FormatInt(n, 10), userBaseCacheTTL).Err(); err != nil {
			log.Printf("misc: cache user base: %v", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"userBase": n})
}
