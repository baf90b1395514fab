// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/yuin/goldmark"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/pipeline"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/workspace"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

type indexData struct {
	Stats    types.BankStats
	Running  bool
	Chapters []types.ChapterMapping
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		jsonError(w, "loading stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	// Chapter list is optional: a missing map just means no chapter picker.
	chapters, _ := workspace.LoadChapterMap(filepath.Join(s.cfg.Pipeline.ConfigDir, workspace.ChapterMapName))

	data := indexData{Stats: stats, Running: s.runner.Running(), Chapters: chapters}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Error("rendering index", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"running": s.runner.Running(),
		"log":     s.runner.Log(),
	})
}

func (s *Server) handleStartAugmentation(w http.ResponseWriter, r *http.Request) {
	opts, err := s.runOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := func(ctx context.Context, out io.Writer) error {
		_, err := pipeline.Run(ctx, s.backend, s.store, s.cfg.Pipeline, opts, out)
		return err
	}
	if err := s.runner.Start(job); err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// runOptions narrows the run to one chapter when the form names it.
func (s *Server) runOptions(r *http.Request) (pipeline.Options, error) {
	subject := r.FormValue("subject")
	chapter := r.FormValue("chapter")
	if subject == "" && chapter == "" {
		return pipeline.Options{}, nil
	}

	chapters, err := workspace.LoadChapterMap(filepath.Join(s.cfg.Pipeline.ConfigDir, workspace.ChapterMapName))
	if err != nil {
		return pipeline.Options{}, err
	}
	for i := range chapters {
		if chapters[i].Subject == subject && chapters[i].Chapter == chapter {
			return pipeline.Options{Chapter: &chapters[i]}, nil
		}
	}
	return pipeline.Options{}, fmt.Errorf("no chapter mapping for %s / %s", subject, chapter)
}

func (s *Server) handleStopProcess(w http.ResponseWriter, r *http.Request) {
	s.runner.Stop()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "stopped"})
}

func (s *Server) handleSetupDatabase(w http.ResponseWriter, r *http.Request) {
	if s.runner.Running() {
		jsonError(w, "cannot reset the database while a run is active", http.StatusConflict)
		return
	}
	if err := s.store.Reset(r.Context()); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "database reset"})
}

type validateData struct {
	Question    *types.GeneratedQuestion
	Source      *types.SourceQuestion
	Explanation template.HTML
	Remaining   int
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	gen, src, err := s.store.NextPending(r.Context(), nil)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := validateData{Question: gen, Source: src}
	if gen != nil {
		data.Explanation = renderMarkdown(gen.Explanation)
		stats, err := s.store.Stats(r.Context())
		if err == nil {
			data.Remaining = stats.Pending
		}
	}
	if err := s.templates.ExecuteTemplate(w, "validate.html", data); err != nil {
		s.log.Error("rendering validate", "error", err)
	}
}

func (s *Server) handleSubmitValidation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.FormValue("question_id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid question_id", http.StatusBadRequest)
		return
	}

	var status types.ValidationStatus
	switch action := r.FormValue("action"); action {
	case "approve":
		status = types.StatusApproved
	case "reject":
		status = types.StatusRejected
	default:
		jsonError(w, "action must be approve or reject", http.StatusBadRequest)
		return
	}

	if err := s.store.SetValidationStatus(r.Context(), id, status); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/validate", http.StatusSeeOther)
}

// renderMarkdown converts model-written markdown explanations to HTML for
// the validation page.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
