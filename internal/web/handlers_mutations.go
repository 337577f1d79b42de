package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/logging"
	"github.com/go-chi/chi/v5"
)

// handleSelect changes the row selection. op "clear" drops it, op "page"
// selects or deselects every row on the current page, anything else sets
// one row.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	bulk := gr.inst.Bulk

	switch r.PostFormValue("op") {
	case "clear":
		bulk.ClearSelection()

	case "page":
		table, err := gr.load(r.Context())
		if errors.Is(err, core.ErrSuperseded) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			s.respondError(w, r, err, http.StatusBadGateway)
			return
		}
		selected := formBool(r.PostFormValue("selected"), true)
		for _, row := range table.Rows() {
			bulk.SetSelected(row.ID, selected)
		}

	default:
		id := r.PostFormValue("id")
		if id == "" {
			s.respondError(w, r, grid.ErrEmptySelection, http.StatusBadRequest)
			return
		}
		bulk.SetSelected(id, formBool(r.PostFormValue("selected"), !bulk.IsSelected(id)))
	}
	s.finish(w, r, gr)
}

// handleBulk triggers a bulk action. Destructive actions open the confirm
// dialog instead of running.
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	action := chi.URLParam(r, "action")
	log := logging.WithFields(r.Context(), "feature", gr.feature.Key, "action", action)
	log.Info("bulk action requested", "selected", gr.inst.Bulk.Count())

	needsConfirm, err := gr.inst.Bulk.Trigger(r.Context(), action)
	if errors.Is(err, grid.ErrUnknownAction) {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if needsConfirm {
		log.Debug("bulk action awaiting confirmation")
	}
	s.bulkOutcome(gr, needsConfirm, err)
	s.finish(w, r, gr)
}

// handleConfirm runs the action awaiting confirmation.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	s.bulkOutcome(gr, false, gr.inst.Bulk.Confirm(r.Context()))
	s.finish(w, r, gr)
}

// handleCancel closes the confirm dialog.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	gr.inst.Bulk.Cancel()
	s.finish(w, r, gr)
}

// handleRevise sets the bulk-revise column on every selected row.
func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	err := gr.inst.Revise(r.Context(), r.PostFormValue("value"))
	if errors.Is(err, grid.ErrUnknownAction) {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	s.bulkOutcome(gr, false, err)
	s.finish(w, r, gr)
}

// bulkOutcome reacts to a bulk panel result. Refusals become an info toast
// and leave the selection alone. An action that ran, successfully or not,
// has already been reported by the panel; the loaded page is marked stale
// but kept as the fallback. Opening a confirmation changes nothing.
func (s *Server) bulkOutcome(gr *gridRequest, needsConfirm bool, err error) {
	switch {
	case errors.Is(err, grid.ErrBulkBusy),
		errors.Is(err, grid.ErrEmptySelection),
		errors.Is(err, grid.ErrNoPendingAction):
		msg := core.MapError(err)
		gr.inst.Notify(grid.Notification{Level: grid.LevelInfo, Title: msg.Message, Message: msg.Action})
	case needsConfirm && err == nil:
	default:
		gr.inst.Loader.MarkStale()
	}
}
