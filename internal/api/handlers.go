package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/punctfix/core/cas"
	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/core/sqlite"
	"github.com/FocuswithJustin/punctfix/internal/journal"
	"github.com/FocuswithJustin/punctfix/internal/logging"
	"github.com/FocuswithJustin/punctfix/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status      string      `json:"status"`
	Version     string      `json:"version"`
	Uptime      string      `json:"uptime"`
	Jobs        int         `json:"jobs"`
	WSClients   int         `json:"ws_clients"`
	CacheHits   uint64      `json:"cache_hits"`
	CacheMisses uint64      `json:"cache_misses"`
	Journal     bool        `json:"journal"`
	SQLite      sqlite.Info `json:"sqlite"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"name":    "punctfix API",
		"version": s.version,
		"endpoints": []string{
			"GET /health",
			"POST /normalize",
			"POST /jobs",
			"GET /jobs",
			"GET /jobs/:id",
			"DELETE /jobs/:id",
			"GET /results/:sha256",
			"GET /runs",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	hits, misses := s.svc.CacheStats()
	respond(w, http.StatusOK, HealthInfo{
		Status:      "healthy",
		Version:     s.version,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Jobs:        len(s.jobs.List()),
		WSClients:   s.hub.ClientCount(),
		CacheHits:   hits,
		CacheMisses: misses,
		Journal:     s.journal != nil,
		SQLite:      sqlite.GetInfo(),
	})
}

// decodeRequest reads a NormalizeRequest from JSON, or from a text/plain
// body with options in the query string.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (NormalizeRequest, bool) {
	// JSON escaping can grow text up to six times (\uXXXX); the decoded
	// text is checked against the real limit afterwards.
	body := http.MaxBytesReader(w, r.Body, int64(s.cfg.bodyLimit())*6+4096)

	var req NormalizeRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		data, err := io.ReadAll(body)
		if err != nil {
			respondBodyError(w, err)
			return req, false
		}
		req.Text = string(data)
		q := r.URL.Query()
		req.Options.FoldWidth, _ = strconv.ParseBool(q.Get("fold_width"))
		req.IncludeChanges, _ = strconv.ParseBool(q.Get("include_changes"))
		if v := q.Get("workers"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "INVALID_INPUT", "workers must be an integer")
				return req, false
			}
			req.Options.Workers = n
		}
		return req, true
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondBodyError(w, err)
		return req, false
	}
	return req, true
}

func respondBodyError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		respondError(w, http.StatusRequestEntityTooLarge, "TEXT_TOO_LARGE", "Request body too large")
		return
	}
	respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.svc.Normalize(r.Context(), req, "api")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

// handleJobs handles POST /jobs (create) and GET /jobs (list).
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs := s.jobs.List()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(APIResponse{
			Success: true,
			Data:    jobs,
			Meta:    &APIMeta{Total: len(jobs), Timestamp: now()},
		})
	case http.MethodPost:
		req, ok := s.decodeRequest(w, r)
		if !ok {
			return
		}
		// Reject bad input now rather than in a failed job.
		if err := validation.ValidateText(req.Text, s.cfg.bodyLimit()); err != nil {
			respondErr(w, r, err)
			return
		}
		if err := validation.ValidateWorkers(req.Options.Workers); err != nil {
			respondErr(w, r, err)
			return
		}
		job := s.jobs.Create(req)
		if !s.submit(job) {
			s.jobs.Cancel(job.ID)
			respondError(w, http.StatusServiceUnavailable, "QUEUE_FULL", "Too many pending jobs")
			return
		}
		logging.JobEvent(job.ID, string(JobStatusPending), "input_bytes", job.InputBytes)
		snapshot, _ := s.jobs.Get(job.ID)
		respond(w, http.StatusAccepted, snapshot)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

// handleJobByID handles GET /jobs/{id} and DELETE /jobs/{id}.
func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Job ID must be a UUID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, err := s.jobs.Get(id)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respond(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := s.jobs.Cancel(id); err != nil {
			respondErr(w, r, err)
			return
		}
		logging.JobEvent(id, string(JobStatusCancelled))
		respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

// handleResult serves a stored result as plain text.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	hash := r.PathValue("hash")
	etag := `"` + hash + `"`
	if r.Header.Get("If-None-Match") == etag && s.svc.store.Has(hash) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	rc, size, err := s.svc.store.Open(hash)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		io.Copy(w, rc)
	}
}

// handleRuns lists journal rows: GET /runs?limit=N&source=S&changed=true.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	if s.journal == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Run journal is disabled")
		return
	}
	q := r.URL.Query()
	f := journal.Filter{Source: q.Get("source")}
	f.ChangedOnly, _ = strconv.ParseBool(q.Get("changed"))
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be between 1 and 1000")
			return
		}
		f.Limit = n
	}
	runs, err := s.journal.List(r.Context(), f)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, runs)
}

// errorStatus maps core errors onto HTTP statuses and codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, validation.ErrTextTooLarge):
		return http.StatusRequestEntityTooLarge, "TEXT_TOO_LARGE"
	case errors.Is(err, cas.ErrInvalidHash):
		return http.StatusBadRequest, "INVALID_HASH"
	case errors.Is(err, perrors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, perrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, perrors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, perrors.ErrUnsupported):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "CANCELLED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "Internal server error"
	}
	respondError(w, status, code, msg)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: now()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: now()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("encode response", "error", err)
	}
}
