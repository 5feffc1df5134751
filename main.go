package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"DemoHub/middleware"
	"DemoHub/pkg/cache"
	"DemoHub/pkg/config"
	"DemoHub/pkg/database"
	svc "DemoHub/pkg/services"
	"DemoHub/pkg/token"
	"DemoHub/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	db, err := database.OpenAndMigrate(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.Error("failed to connect database", slog.Any("err", err))
		os.Exit(1)
	}

	ctx := context.Background()
	registry := svc.NewRegistry(db, cfg.DefaultModelID)
	builtin := svc.BuiltinModels(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err := registry.Seed(ctx, builtin); err != nil {
		log.Error("failed to seed models", slog.Any("err", err))
		os.Exit(1)
	}

	store := cache.Default()
	store.SetMaxItems(cfg.CacheMaxItems)

	gateway := svc.NewGateway(registry, cfg.LLMEnabled, log)
	titles := svc.NewTitleService(gateway, cfg.TitleModelName, store, cfg.CacheTTL(), log)
	avatars, err := svc.NewAvatarStore(cfg.UploadDir, "/uploads")
	if err != nil {
		log.Error("failed to prepare uploads", slog.Any("err", err))
		os.Exit(1)
	}

	middleware.SetRateLimitConfig(cfg.RateLimitWindow(), cfg.RateLimitCapacity, cfg.UserConcurrencyLimit)
	middleware.SetDuplicateTTL(cfg.DuplicateWindow())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		DB:      db,
		Cfg:     cfg,
		Log:     log,
		Tokens:  token.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Gateway: gateway,
		Titles:  titles,
		Cache:   store,
		Avatars: avatars,
	})

	log.Info("listening", slog.String("port", cfg.Port), slog.String("env", cfg.AppEnv), slog.Bool("llm", cfg.LLMEnabled))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}
