package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/benwyw/botboard/internal/config"
	"github.com/benwyw/botboard/internal/database"
	"github.com/benwyw/botboard/internal/handler"
	"github.com/benwyw/botboard/internal/middleware"
	"github.com/benwyw/botboard/internal/queue"
	"github.com/benwyw/botboard/internal/repository"
	"github.com/benwyw/botboard/internal/router"
	"github.com/benwyw/botboard/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it the response cache, the login rate
	// limit and the userBase cache all degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; caching and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	auth := service.NewAuthService(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, users, tokens)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterContent(e, handler.NewContentHandler(),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterMisc(e, handler.NewMiscHandler(cfg, users, rdb))
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, users, auth, rdb), cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background consumer mirrors auth events into logs/auth.log.
	go func() {
		if err := queue.StartAuthEventConsumer(); err != nil {
			log.Printf("auth-consumer: %v", err)
		}
	}()

	if cfg.PurgeIntervalMin > 0 {
		go auth.StartPurgeLoop(ctx, time.Duration(cfg.PurgeIntervalMin)*time.Minute)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
