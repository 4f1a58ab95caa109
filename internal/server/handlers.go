package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/health"
	"github.com/modelmux/modelmux/internal/routing"
)

type handlers struct {
	engine  *routing.Engine
	monitor *health.Monitor
	logger  zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// orgHealth returns the organization health summary.
func (h *handlers) orgHealth(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	summary, err := h.monitor.OrgSummary(r.Context(), org)
	if err != nil {
		h.logger.Error().Err(err).Str("org", org).Msg("org health summary failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "summary unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// selectRequest is the wire form of a selection request. The org comes
// from the path, never the body.
type selectRequest struct {
	UserID            string  `json:"user_id"`
	ExecutionKind     string  `json:"execution_kind"`
	Model             string  `json:"model"`
	EstimatedCost     float64 `json:"estimated_cost"`
	MaxResponseTimeMS float64 `json:"max_response_time_ms"`
}

type selectResponse struct {
	ProviderID string              `json:"provider_id"`
	Name       string              `json:"name"`
	Kind       domain.ProviderKind `json:"kind"`
	Priority   int                 `json:"priority"`
}

func (h *handlers) selectProvider(w http.ResponseWriter, r *http.Request) {
	var body selectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req := domain.SelectionRequest{
		OrgID:             r.PathValue("org"),
		UserID:            body.UserID,
		ExecutionKind:     domain.ExecutionKind(body.ExecutionKind),
		Model:             body.Model,
		EstimatedCost:     body.EstimatedCost,
		MaxResponseTimeMS: body.MaxResponseTimeMS,
	}

	p, err := h.engine.SelectProvider(r.Context(), req)
	if err != nil {
		if errors.Is(err, routing.ErrNoProvidersAvailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error().Err(err).Str("org", req.OrgID).Msg("selection failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "selection failed"})
		return
	}

	writeJSON(w, http.StatusOK, selectResponse{
		ProviderID: p.ID,
		Name:       p.Name,
		Kind:       p.Kind,
		Priority:   p.Priority,
	})
}

func (h *handlers) createRule(w http.ResponseWriter, r *http.Request) {
	var spec routing.RuleSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	rule, err := h.engine.CreateRule(r.Context(), r.PathValue("org"), spec)
	if err != nil {
		var priErr routing.InvalidRulePriorityError
		switch {
		case errors.Is(err, routing.ErrRuleTargetNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.As(err, &priErr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (h *handlers) breakerStates(w http.ResponseWriter, _ *http.Request) {
	states := h.engine.Breakers().AllStates()
	out := make(map[string]string, len(states))
	for id, state := range states {
		out[id] = state.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
