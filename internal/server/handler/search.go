// Package handler implements the HTTP handlers for the search API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sevigo/code-atlas/internal/atlaserr"
	"github.com/sevigo/code-atlas/internal/metrics"
	"github.com/sevigo/code-atlas/internal/search"
)

// SearchHandler serves the search facade over HTTP.
type SearchHandler struct {
	service    *search.Service
	defaultCfg search.Config
	logger     *slog.Logger
}

// NewSearchHandler creates a SearchHandler with the configured search
// defaults.
func NewSearchHandler(service *search.Service, defaultCfg search.Config, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service:    service,
		defaultCfg: defaultCfg,
		logger:     logger,
	}
}

// SearchRequest is the POST /search payload.
type SearchRequest struct {
	Query               string   `json:"query"`
	MaxResults          int      `json:"max_results"`
	MinSimilarity       *float64 `json:"min_similarity"`
	NodeTypes           []string `json:"node_types"`
	IncludeContext      *bool    `json:"include_context"`
	IncludeSourceCode   bool     `json:"include_source_code"`
	ExpandCallHierarchy bool     `json:"expand_call_hierarchy"`
	ExpandInheritance   bool     `json:"expand_inheritance"`
}

// HierarchyRequest is the POST /hierarchy/* payload.
type HierarchyRequest struct {
	NodeID    string `json:"node_id"`
	Direction string `json:"direction"`
	MaxDepth  int    `json:"max_depth"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Search handles POST /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	cfg := h.configFor(&req)
	metrics.Get().SearchRequests.Inc()

	response, err := h.service.Search(r.Context(), req.Query, cfg)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

// SearchGet handles GET /search?q=… with a query-string subset of the POST
// parameters.
func (h *SearchHandler) SearchGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	req := SearchRequest{Query: query}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "max_results must be an integer")
			return
		}
		req.MaxResults = n
	}
	if raw := r.URL.Query().Get("min_similarity"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "min_similarity must be a number")
			return
		}
		req.MinSimilarity = &f
	}
	if raw := r.URL.Query().Get("node_types"); raw != "" {
		req.NodeTypes = strings.Split(raw, ",")
	}
	if raw := r.URL.Query().Get("include_context"); raw != "" {
		include := raw == "true" || raw == "1"
		req.IncludeContext = &include
	}

	cfg := h.configFor(&req)
	metrics.Get().SearchRequests.Inc()

	response, err := h.service.Search(r.Context(), req.Query, cfg)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

// Explain handles GET /explain?q=….
func (h *SearchHandler) Explain(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	h.writeJSON(w, http.StatusOK, h.service.Explain(query))
}

// CallHierarchy handles POST /hierarchy/call.
func (h *SearchHandler) CallHierarchy(w http.ResponseWriter, r *http.Request) {
	var req HierarchyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NodeID == "" {
		h.writeError(w, http.StatusBadRequest, "node_id must not be empty")
		return
	}

	hierarchy, err := h.service.CallHierarchy(r.Context(), req.NodeID, search.ParseDirection(req.Direction), req.MaxDepth)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hierarchy)
}

// InheritanceHierarchy handles POST /hierarchy/inheritance.
func (h *SearchHandler) InheritanceHierarchy(w http.ResponseWriter, r *http.Request) {
	var req HierarchyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NodeID == "" {
		h.writeError(w, http.StatusBadRequest, "node_id must not be empty")
		return
	}

	hierarchy, err := h.service.InheritanceHierarchy(r.Context(), req.NodeID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hierarchy)
}

// Node handles GET /node/{id}.
func (h *SearchHandler) Node(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "id")
	result, err := h.service.NodeDetails(r.Context(), nodeID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Stats handles GET /stats.
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *SearchHandler) configFor(req *SearchRequest) search.Config {
	cfg := h.defaultCfg
	if req.MaxResults > 0 {
		cfg.MaxTotalResults = req.MaxResults
	}
	if req.MinSimilarity != nil {
		cfg.MinSimilarity = *req.MinSimilarity
	}
	if req.IncludeContext != nil {
		cfg.EnableContextExpansion = *req.IncludeContext
	}
	cfg.NodeTypes = req.NodeTypes
	cfg.IncludeSourceCode = req.IncludeSourceCode
	cfg.ExpandCallHierarchy = req.ExpandCallHierarchy
	cfg.ExpandInheritance = req.ExpandInheritance
	return cfg
}

// writeServiceError maps error kinds to HTTP statuses without leaking
// internals: 404 for missing nodes, 503 for an unavailable store, 400 for
// configuration errors, 500 with an opaque request id otherwise.
func (h *SearchHandler) writeServiceError(w http.ResponseWriter, err error) {
	var typed *atlaserr.Error
	if errors.As(err, &typed) {
		switch typed.Kind {
		case atlaserr.KindNotFound:
			h.writeError(w, http.StatusNotFound, "node not found")
			return
		case atlaserr.KindStore:
			h.logger.Error("store failure", "error", err)
			h.writeError(w, http.StatusServiceUnavailable, "graph store unavailable")
			return
		case atlaserr.KindConfig:
			h.writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}

	requestID := uuid.NewString()
	h.logger.Error("unexpected failure", "request_id", requestID, "error", err)
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:     "internal error",
		RequestID: requestID,
	})
}

func (h *SearchHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *SearchHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}
