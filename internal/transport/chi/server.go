package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scholarqa/internal/domain"
	"github.com/kailas-cloud/scholarqa/internal/domain/answer"
	askuc "github.com/kailas-cloud/scholarqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/scholarqa/internal/usecase/health"
)

// Error codes returned to clients.
const (
	CodeBadRequest            = "bad_request"
	CodeQueryEmpty            = "query_empty"
	CodeQueryTooShort         = "query_too_short"
	CodeQueryTooLong          = "query_too_long"
	CodeInvalidParameter      = "invalid_parameter"
	CodeRetrievalUnavailable  = "retrieval_unavailable"
	CodeCompletionUnavailable = "completion_unavailable"
	CodeInternalError         = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question    string  `json:"question"`
	TopK        int     `json:"top_k,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// SourceItem is one cited source in an answer.
type SourceItem struct {
	Rank     int               `json:"rank"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StatsItem summarizes retrieval quality for an answer.
type StatsItem struct {
	SourceCount       int     `json:"source_count"`
	AvgRelevance      float64 `json:"avg_relevance"`
	ContextChars      int     `json:"context_chars"`
	ProcessingSeconds float64 `json:"processing_time_seconds"`
}

// AskResponse is the body of a successful POST /v1/ask.
type AskResponse struct {
	RequestID   string       `json:"request_id"`
	Query       string       `json:"query"`
	Answer      string       `json:"answer"`
	NoResults   bool         `json:"no_results,omitempty"`
	Sources     []SourceItem `json:"sources"`
	Stats       StatsItem    `json:"stats"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ExamplesResponse is the body of GET /v1/examples.
type ExamplesResponse struct {
	Queries []string `json:"queries"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the question answering pipeline over HTTP.
type Server struct {
	ask           *askuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ask *askuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		ask:    ask,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrQueryEmpty, http.StatusBadRequest, CodeQueryEmpty),
		sentinelHandler(domain.ErrQueryTooShort, http.StatusBadRequest, CodeQueryTooShort),
		sentinelHandler(domain.ErrQueryTooLong, http.StatusBadRequest, CodeQueryTooLong),
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest, CodeInvalidParameter),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusBadGateway, CodeRetrievalUnavailable),
		sentinelHandler(domain.ErrCompletionUnavailable, http.StatusBadGateway, CodeCompletionUnavailable),
	}
	return s
}

// Register mounts all routes onto the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/ask", s.Ask)
	r.Get("/v1/examples", s.Examples)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := s.ask.Ask(r.Context(), req.Question, askuc.Params{
		TopK:        req.TopK,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToResponse(outcome))
}

// Examples handles GET /v1/examples.
func (s *Server) Examples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ExamplesResponse{Queries: askuc.ExampleQueries()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
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

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func outcomeToResponse(o answer.Outcome) AskResponse {
	sources := make([]SourceItem, 0, len(o.Sources()))
	for _, src := range o.Sources() {
		sources = append(sources, SourceItem{
			Rank:     src.Rank(),
			Text:     src.Text(),
			Score:    src.Score(),
			Metadata: src.Metadata(),
		})
	}

	stats := o.Stats()
	return AskResponse{
		RequestID: o.RequestID(),
		Query:     o.Query(),
		Answer:    o.Text(),
		NoResults: o.NoResults(),
		Sources:   sources,
		Stats: StatsItem{
			SourceCount:       stats.SourceCount,
			AvgRelevance:      stats.AvgRelevance,
			ContextChars:      stats.ContextChars,
			ProcessingSeconds: stats.ProcessingSeconds,
		},
		GeneratedAt: o.GeneratedAt().UTC(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrQueryEmpty,
		domain.ErrQueryTooShort,
		domain.ErrQueryTooLong,
		domain.ErrInvalidParameter,
		domain.ErrRetrievalUnavailable,
		domain.ErrCompletionUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
