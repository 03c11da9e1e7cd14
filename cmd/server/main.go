package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumegen/internal/config"
	"resumegen/internal/llm"
	_ "resumegen/internal/llm/gemini"
	_ "resumegen/internal/llm/openai"
	"resumegen/internal/models"
	"resumegen/internal/prompts"
	"resumegen/internal/routers"
	"resumegen/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.User{}, &models.Resume{}, &models.Template{}, &models.UserProfile{}); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	provider, err := llm.NewProvider(cfg.AIProvider)
	if err != nil {
		logger.Fatal("failed to initialize AI provider", zap.Error(err))
	}
	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("failed to load prompt templates", zap.Error(err))
	}

	hub := session.NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunTypingSweeper(ctx, cfg.TypingIdleTimeout, cfg.TypingIdleTimeout/2)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		backplane := session.NewRedisBackplane(rdb, uuid.New().String(), logger)
		hub.SetBackplane(backplane)
		go backplane.Run(ctx, hub.DeliverRemote)
		logger.Info("broadcast backplane enabled", zap.String("redis", cfg.RedisAddr))
	}

	r := chi.NewRouter()
	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)
	r.Mount("/", routers.New(routers.Deps{
		Log:      logger,
		Cfg:      cfg,
		DB:       db,
		Hub:      hub,
		Provider: provider,
		Prompts:  promptManager,
	}))

	addr := ":" + cfg.Port
	log.Printf("resumegen listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openDatabase uses Postgres when a DSN is configured and falls back to a
// local SQLite file for development.
func openDatabase(dsn string) (*gorm.DB, error) {
	if dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open("resumegen.db"), &gorm.Config{})
}
