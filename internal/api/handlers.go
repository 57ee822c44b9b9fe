package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleStatus reports recent executions and which jobs are running.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.StatusHistoryLimit
	if limit <= 0 {
		limit = 20
	}
	history, err := s.store.History(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to read history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	var active []string
	for job, on := range s.running {
		if on {
			active = append(active, job)
		}
	}
	s.mu.Unlock()

	body := map[string]any{
		"environment": s.cfg.Environment,
		"running":     active,
		"history":     history,
	}
	if s.llm != nil {
		body["llm"] = s.llm.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// handleConfig exposes the non-secret configuration for debugging.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"environment":        s.cfg.Environment,
		"jira_base_url":      s.cfg.JiraBaseURL,
		"jira_boards":        s.cfg.JiraBoards,
		"sheet_count":        len(s.cfg.SheetIDs),
		"drive_folder_id":    s.cfg.DriveFolderID,
		"openai_model":       s.cfg.OpenAIModel,
		"from_email":         s.cfg.FromEmail,
		"preview_recipients": len(s.cfg.PreviewRecipients),
		"final_recipients":   len(s.cfg.FinalRecipients),
	})
}

// handleTrigger starts a report phase in the background. The HTTP
// request returns immediately; the run's outcome lands in /status.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	jobType := chi.URLParam(r, "jobType")

	var run func(context.Context) error
	switch jobType {
	case "preview":
		run = s.runner.Preview
	case "final":
		run = s.runner.Final
	default:
		jsonError(w, "unknown job type: "+jobType, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running[jobType] {
		s.mu.Unlock()
		jsonError(w, jobType+" run already in progress", http.StatusConflict)
		return
	}
	s.running[jobType] = true
	s.mu.Unlock()

	go func() {
		// Detached from the request context: the run outlives the
		// HTTP response.
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		defer func() {
			s.mu.Lock()
			s.running[jobType] = false
			s.mu.Unlock()
		}()
		if err := run(ctx); err != nil {
			s.log.Error("triggered run failed", "job_type", jobType, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":   "started",
		"job_type": jobType,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
