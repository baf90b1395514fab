// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webui serves the browser dashboard: live pipeline control, bank
// statistics, and a validation queue.
package webui

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/bank"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/gemini"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/pipeline"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// Server is the HTTP server for the question bank dashboard.
type Server struct {
	router    chi.Router
	store     *bank.Store
	backend   gemini.Backend
	runner    *pipeline.Runner
	cfg       types.AutomatorConfig
	log       *slog.Logger
	templates *template.Template
}

// NewServer creates and configures the dashboard server. Templates are
// loaded from cfg.Serve.TemplatesDir.
func NewServer(store *bank.Store, backend gemini.Backend, runner *pipeline.Runner, cfg types.AutomatorConfig, log *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseGlob(filepath.Join(cfg.Serve.TemplatesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		store:     store,
		backend:   backend,
		runner:    runner,
		cfg:       cfg,
		log:       log,
		templates: tmpl,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/get_stats", s.handleStats)
	r.Get("/status", s.handleStatus)
	r.Post("/start-augmentation", s.handleStartAugmentation)
	r.Post("/stop-process", s.handleStopProcess)
	r.Post("/setup-database", s.handleSetupDatabase)
	r.Get("/validate", s.handleValidate)
	r.Post("/submit-validation", s.handleSubmitValidation)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
