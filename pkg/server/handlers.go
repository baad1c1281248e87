package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"datolab/autoseo/pkg/limits/ratelimit"
	"datolab/autoseo/pkg/telemetry/logging"
)

// envelope is the response body shape for every /api route.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// GET /api/logs?level=&source=&search=&page=
func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := s.deps.Logs.Query(logging.Query{
		Level:  q.Get("level"),
		Source: q.Get("source"),
		Search: q.Get("search"),
		Page:   page,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read logs: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /api/logs/raw?lines=N
func (s *Server) handleRawLogs(w http.ResponseWriter, r *http.Request) {
	lines := 0
	if v := r.URL.Query().Get("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "lines must be a non-negative integer")
			return
		}
		lines = n
	}

	text, err := s.deps.Logs.GetLogs(lines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read logs: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="autoseo-`+time.Now().Format("2006-01-02")+`.log"`)
	_, _ = w.Write([]byte(text))
}

// DELETE /api/logs
func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Logs.ClearLogs(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear logs: "+err.Error())
		return
	}
	s.deps.Logs.Log(r.Context(), logging.LevelInfo, "Logs cleared", nil)
	writeJSON(w, http.StatusOK, "Logs cleared successfully")
}

// POST /api/logs/rotate
func (s *Server) handleRotateLogs(w http.ResponseWriter, r *http.Request) {
	rotated, err := s.deps.Logs.RotateIfNeeded()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rotate logs: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"rotated": rotated})
}

// GET /api/ratelimits
func (s *Server) handleListLimits(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.deps.Limits.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rate limits: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

// GET /api/ratelimits/{provider}
func (s *Server) handleGetLimit(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Limits.Status(r.Context(), r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read rate limit: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type setLimitRequest struct {
	Limit int `json:"limit"`
}

// PUT /api/ratelimits/{provider} {"limit": N}
func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req setLimitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	provider := strings.ToLower(r.PathValue("provider"))
	if err := s.deps.Limits.SetRateLimit(r.Context(), provider, req.Limit); err != nil {
		if errors.Is(err, ratelimit.ErrInvalidLimit) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to set rate limit: "+err.Error())
		return
	}

	status, err := s.deps.Limits.Status(r.Context(), provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read rate limit: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// POST /api/ratelimits/{provider}/reset
func (s *Server) handleResetLimit(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(r.PathValue("provider"))
	if err := s.deps.Limits.ResetCounter(r.Context(), provider); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset rate limit: "+err.Error())
		return
	}

	status, err := s.deps.Limits.Status(r.Context(), provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read rate limit: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}

	status := http.StatusOK
	if s.deps.Providers != nil {
		summary := s.deps.Providers.GetHealthSummary()
		response["providers"] = summary
		if summary.Total > 0 && summary.Healthy == 0 {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
