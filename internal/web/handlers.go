package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/web/components"
	"github.com/go-chi/chi/v5"
)

// handleDashboard renders the list of features by group.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var groups []components.FeatureGroup
	for _, groupName := range core.Groups() {
		features := core.ByGroup(groupName)
		cards := make([]components.FeatureCard, len(features))
		for i, f := range features {
			cards[i] = components.FeatureCard{
				Key:         f.Key,
				Label:       f.Label,
				Description: f.Description,
				Href:        featurePath(f.Key),
			}
		}
		groups = append(groups, components.FeatureGroup{
			Name:     groupName,
			Features: cards,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	components.Dashboard(groups).Render(r.Context(), w)
}

// handleGrid renders a feature grid for the state in the query string.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	s.renderGrid(w, r, gr)
}

// handleFacet re-renders one filter popover while the user searches its
// options. The search text is not part of the grid state.
func (s *Server) handleFacet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := query.Get("search")
	query.Del("search")

	gr, ok := s.gridRequest(w, r, query)
	if !ok {
		return
	}
	column := chi.URLParam(r, "column")

	table, err := gr.load(r.Context())
	if errors.Is(err, core.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}

	g := s.gridModel(gr, table, map[string]string{column: search})
	for _, f := range g.Toolbar.Filters {
		if f.ColumnID == column {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			components.FacetedFilter(g, f).Render(r.Context(), w)
			return
		}
	}
	// the filter is unknown or its facets are not ready
	w.WriteHeader(http.StatusNoContent)
}

// handleAudit lists recent bulk actions as JSON, newest first. The feature,
// action and limit query parameters narrow the list.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.AuditFilter{
		Feature: q.Get("feature"),
		Action:  core.AuditAction(q.Get("action")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondStatus(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(n, maxAuditLimit)
	}

	entries, err := s.instances.AuditLog().Recent(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, auditResponse{Entries: entries})
}

const maxAuditLimit = 500

type auditResponse struct {
	Entries []core.AuditEntry `json:"entries"`
}
