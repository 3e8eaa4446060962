// Package server exposes the engine over HTTP: run graphs (inline or
// stored), manage stored definitions, health and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// Engine is the slice of the facade the HTTP surface needs.
type Engine interface {
	Run(ctx context.Context, def *domain.Definition, input map[string]any, opts ...weft.RunOption) (*domain.State, error)
	RunStored(ctx context.Context, graphID string, input map[string]any, opts ...weft.RunOption) (*domain.State, error)
	Validate(def *domain.Definition) error
	Graphs() ports.GraphStore
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsGatherer exposes the given Prometheus gatherer on /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.runInline)
		r.Get("/graphs", s.listGraphs)
		r.Post("/graphs", s.saveGraph)
		r.Get("/graphs/{id}", s.getGraph)
		r.Post("/graphs/{id}/runs", s.runStored)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// runRequest is the body shared by both run endpoints. Workflow is only
// honored by POST /api/runs.
type runRequest struct {
	Workflow  *domain.Definition `json:"workflow,omitempty"`
	Input     map[string]any     `json:"input,omitempty"`
	StartNode string             `json:"startNode,omitempty"`
	RunID     string             `json:"runId,omitempty"`
	Persist   bool               `json:"persist,omitempty"`
}

type runResponse struct {
	RunID         string         `json:"runId"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failureReason,omitempty"`
	Output        any            `json:"output,omitempty"`
	NodeOutputs   map[string]any `json:"nodeOutputs,omitempty"`
	Steps         int            `json:"steps"`
	TotalSteps    int            `json:"totalSteps"`
}

func (s *Server) runInline(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("run: invalid request body", "err", err)
		return
	}
	if body.Workflow == nil {
		http.Error(w, "Missing workflow definition", http.StatusBadRequest)
		return
	}
	if err := s.engine.Validate(body.Workflow); err != nil {
		http.Error(w, fmt.Sprintf("Invalid workflow: %v", err), http.StatusUnprocessableEntity)
		return
	}

	state, err := s.engine.Run(r.Context(), body.Workflow, body.Input, body.runOptions()...)
	s.writeRunResult(w, state, err)
}

func (s *Server) runStored(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "id")

	var body runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("run: invalid request body", "graph", graphID, "err", err)
			return
		}
	}

	state, err := s.engine.RunStored(r.Context(), graphID, body.Input, body.runOptions()...)
	if errors.Is(err, domain.ErrGraphNotFound) {
		http.Error(w, fmt.Sprintf("Graph not found: %s", graphID), http.StatusNotFound)
		return
	}
	s.writeRunResult(w, state, err)
}

func (b *runRequest) runOptions() []weft.RunOption {
	var opts []weft.RunOption
	if b.StartNode != "" {
		opts = append(opts, weft.WithStartNode(b.StartNode))
	}
	if b.RunID != "" {
		opts = append(opts, weft.WithRunID(b.RunID))
	}
	if b.Persist {
		opts = append(opts, weft.WithPersistence())
	}
	return opts
}

// writeRunResult reports failed runs with their final state at 500; runs
// that never produced a state (store errors and the like) get a bare error.
func (s *Server) writeRunResult(w http.ResponseWriter, state *domain.State, err error) {
	if state == nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		s.logger.Error("run failed before execution", "err", err)
		return
	}

	resp := runResponse{
		RunID:         state.RunID,
		Status:        string(state.Status()),
		FailureReason: state.FailureReason(),
		Output:        state.Output(),
		NodeOutputs:   state.NodeOutputs(),
		Steps:         state.CurrentStep(),
		TotalSteps:    state.TotalSteps(),
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		s.logger.Error("run failed", "run_id", state.RunID, "err", err)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Graphs().List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("list graphs failed", "err", err)
		return
	}

	type summary struct {
		ID          string `json:"id"`
		Name        string `json:"name,omitempty"`
		Description string `json:"description,omitempty"`
		Nodes       int    `json:"nodes"`
	}
	out := make([]summary, 0, len(ids))
	for _, id := range ids {
		d, err := s.engine.Graphs().Load(r.Context(), id)
		if err != nil {
			s.logger.Warn("listed graph vanished", "graph", id, "err", err)
			continue
		}
		out = append(out, summary{ID: d.ID, Name: d.Name, Description: d.Description, Nodes: len(d.Nodes)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveGraph(w http.ResponseWriter, r *http.Request) {
	var def domain.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.engine.Validate(&def); err != nil {
		http.Error(w, fmt.Sprintf("Invalid workflow: %v", err), http.StatusUnprocessableEntity)
		return
	}
	if err := s.engine.Graphs().Save(r.Context(), &def); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.logger.Error("save graph failed", "graph", def.ID, "err", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": def.ID})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "id")
	def, err := s.engine.Graphs().Load(r.Context(), graphID)
	if errors.Is(err, domain.ErrGraphNotFound) {
		http.Error(w, fmt.Sprintf("Graph not found: %s", graphID), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "weft-http",
		"version": strings.TrimSpace(weft.Version),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
