package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/go-chi/chi/v5"
)

// handleFilter picks or clears a faceted filter value.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	column := chi.URLParam(r, "column")
	clearing := r.PostFormValue("clear") != ""
	value := r.PostFormValue("value")

	found := false
	gr.inst.UseToolbar(func(t *grid.Toolbar) {
		if f, ok := t.FacetedFilter(column); ok {
			found = true
			if clearing {
				f.Clear(gr.binder)
			} else if value != "" {
				f.Select(gr.binder, value)
			}
			return
		}
		if f, ok := t.TreeFilter(column); ok {
			found = true
			if clearing {
				f.Clear(gr.binder)
			} else if value != "" {
				f.Select(gr.binder, value)
			}
		}
	})
	if !found {
		s.respondError(w, r, fmt.Errorf("no filter for column %q", column), http.StatusNotFound)
		return
	}
	s.finish(w, r, gr)
}

// handleSearch writes the toolbar's search box.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	text := r.PostFormValue("q")
	gr.inst.UseToolbar(func(t *grid.Toolbar) {
		t.SetSearch(gr.binder, text)
	})
	s.finish(w, r, gr)
}

// handleDateRange applies or clears the toolbar's date range.
func (s *Server) handleDateRange(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}

	var dr grid.DateRange
	if r.PostFormValue("clear") == "" && r.PostFormValue("from") != "" {
		from, err := grid.ParseDate(r.PostFormValue("from"))
		if err != nil {
			s.respondError(w, r, fmt.Errorf("invalid date %q: %w", r.PostFormValue("from"), err), http.StatusBadRequest)
			return
		}
		dr.From = from
		if v := r.PostFormValue("to"); v != "" {
			to, err := grid.ParseDate(v)
			if err != nil {
				s.respondError(w, r, fmt.Errorf("invalid date %q: %w", v, err), http.StatusBadRequest)
				return
			}
			if to.Before(from) {
				from, to = to, from
				dr.From = from
			}
			dr.To, dr.HasTo = to, true
		}
	}

	gr.inst.UseToolbar(func(t *grid.Toolbar) {
		t.SetDateRange(gr.binder, dr)
	})
	s.finish(w, r, gr)
}

// handleReset clears every filter, the search and the date range.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	gr.inst.UseToolbar(func(t *grid.Toolbar) {
		t.Reset(gr.binder)
	})
	s.finish(w, r, gr)
}

// handleSort cycles a column's sort direction.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	gr.inst.ToggleSort(chi.URLParam(r, "column"))
	s.finish(w, r, gr)
}

// handleToggleColumn shows or hides a column.
func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	gr, ok := s.gridRequest(w, r, r.URL.Query())
	if !ok {
		return
	}
	gr.inst.ToggleColumn(chi.URLParam(r, "column"))
	s.finish(w, r, gr)
}
