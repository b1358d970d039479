// Package chi is the HTTP API surface.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	chatuc "github.com/kailas-cloud/cinerag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/cinerag/internal/usecase/health"
)

// ChatService is the consumer interface for the chat pipeline (ISP).
type ChatService interface {
	ProcessMessage(ctx context.Context, query string, history []domain.Message) (chatuc.Result, error)
}

// StatsProvider is the consumer interface for catalog statistics (ISP).
type StatsProvider interface {
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// MovieReader is the consumer interface for single-movie lookups (ISP).
type MovieReader interface {
	ByID(ctx context.Context, id int64) (domain.Movie, error)
}

// CacheFlusher is the consumer interface for cache invalidation (ISP).
type CacheFlusher interface {
	Flush(ctx context.Context, patterns ...string)
}

// HealthService is the consumer interface for health checks (ISP).
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server handles the HTTP API.
type Server struct {
	chat           ChatService
	stats          StatsProvider
	movies         MovieReader
	cache          CacheFlusher
	health         HealthService
	historyLimit   int
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewServer creates an HTTP API server. historyLimit bounds the conversation
// history a single request may carry; requestTimeout bounds the whole pipeline
// per request, so a hung provider call fails the request instead of pinning
// the handler goroutine.
func NewServer(
	chat ChatService,
	stats StatsProvider,
	movies MovieReader,
	cache CacheFlusher,
	health HealthService,
	historyLimit int,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	return &Server{
		chat:           chat,
		stats:          stats,
		movies:         movies,
		cache:          cache,
		health:         health,
		historyLimit:   historyLimit,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Routes mounts the API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/stats", s.handleStats)
	r.Get("/v1/movies/{id}", s.handleMovie)
	r.Delete("/v1/cache", s.handleCacheFlush)
	r.Get("/healthz", s.handleHealth)
}

// boundedContext derives a deadline-carrying context for downstream calls.
// The server write timeout only covers the connection, not the handler.
func (s *Server) boundedContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.requestTimeout)
	}
	return r.Context(), func() {}
}

type chatRequest struct {
	Message string           `json:"message"`
	History []domain.Message `json:"history"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleChat handles POST /v1/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "message is required")
		return
	}
	if s.historyLimit > 0 && len(req.History) > s.historyLimit {
		writeError(w, http.StatusBadRequest, "validation_failed", "history is too long")
		return
	}
	for _, m := range req.History {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			writeError(w, http.StatusBadRequest, "validation_failed", "history roles must be user or assistant")
			return
		}
	}

	ctx, cancel := s.boundedContext(r)
	defer cancel()

	result, err := s.chat.ProcessMessage(ctx, req.Message, req.History)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStats handles GET /v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.boundedContext(r)
	defer cancel()

	stats, err := s.stats.Statistics(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleMovie handles GET /v1/movies/{id}.
func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "id must be an integer")
		return
	}

	ctx, cancel := s.boundedContext(r)
	defer cancel()

	movie, err := s.movies.ByID(ctx, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// handleCacheFlush handles DELETE /v1/cache. Flushes derived data only; the
// persistent hit/miss counters survive.
func (s *Server) handleCacheFlush(w http.ResponseWriter, r *http.Request) {
	s.cache.Flush(r.Context(), "search:*", "emb:*", "stats:*")
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrSynthesisFailed),
		errors.Is(err, domain.ErrCompletionProviderError),
		errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, "provider_error", "language model provider failed")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
