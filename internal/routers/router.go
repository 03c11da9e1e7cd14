package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resumegen/internal/api"
	"resumegen/internal/config"
	"resumegen/internal/handlers"
	"resumegen/internal/llm"
	"resumegen/internal/metrics"
	"resumegen/internal/middleware"
	"resumegen/internal/prompts"
	"resumegen/internal/repositories"
	"resumegen/internal/session"
)

// Deps carries everything the route tree needs.
type Deps struct {
	Log      *zap.Logger
	Cfg      *config.Config
	DB       *gorm.DB
	Hub      *session.Hub
	Provider llm.Provider
	Prompts  prompts.PromptProvider
}

func New(d Deps) http.Handler {
	userRepo := &repositories.UserRepository{DB: d.DB}
	resumeRepo := &repositories.ResumeRepository{DB: d.DB}
	templateRepo := &repositories.TemplateRepository{DB: d.DB}
	profileRepo := &repositories.ProfileRepository{DB: d.DB}

	authHandler := handlers.NewAuthHandler(userRepo, d.Cfg.JWTSecret)
	resumeHandler := handlers.NewResumeHandler(resumeRepo, d.Log)
	aiHandler := handlers.NewAIHandler(d.Provider, d.Prompts, resumeRepo, d.Log)
	templateHandler := &handlers.TemplateHandler{Repo: templateRepo}
	profileHandler := &handlers.ProfileHandler{Repo: profileRepo}
	wsHandler := api.NewWSHandler(d.Log, d.Hub, d.Cfg.JWTSecret)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Post("/api/v1/auth/register", authHandler.RegisterHandler)
	r.Post("/api/v1/auth/login", authHandler.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Cfg.JWTSecret))

		r.Route("/api/v1/resumes", func(r chi.Router) {
			r.Get("/", resumeHandler.List)
			r.Post("/", resumeHandler.Create)
			r.Get("/{id}", resumeHandler.Get)
			r.Put("/{id}", resumeHandler.Update)
			r.Delete("/{id}", resumeHandler.Delete)

			r.Post("/{id}/generate-content", aiHandler.GenerateContent)
			r.Post("/{id}/optimize", aiHandler.Optimize)
			r.Post("/{id}/cover-letter", aiHandler.CoverLetter)
		})

		r.Post("/api/v1/ai/suggest-skills", aiHandler.SuggestSkills)

		r.Get("/api/v1/templates", templateHandler.List)
		r.Get("/api/v1/profile", profileHandler.Get)
		r.Put("/api/v1/profile", profileHandler.Put)
	})

	// Websocket endpoint does its own credential check (query param fallback).
	r.Get("/ws/collab", wsHandler.Serve)

	return r
}
