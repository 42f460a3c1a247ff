package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"babymeasure/internal/app"
	"babymeasure/internal/domain"
)

// errStatus maps service errors to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func pathCategory(r *http.Request) (domain.Category, error) {
	c := domain.ParseCategory(r.PathValue("category"))
	if c == domain.CategoryUnknown {
		return c, fmt.Errorf("%w: unknown category %q", app.ErrNotFound, r.PathValue("category"))
	}
	return c, nil
}

func pathEntry(r *http.Request) (domain.Category, int64, error) {
	c, err := pathCategory(r)
	if err != nil {
		return c, 0, err
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return c, 0, fmt.Errorf("%w: invalid id %q", app.ErrInvalidInput, r.PathValue("id"))
	}
	return c, id, nil
}

func (s *Server) handleLogEntries(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Entries []app.EntryInput `json:"entries"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	items, err := s.svc.Measurements.LogEntries(r.Context(), body.Entries)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}

	labels := map[string]string{}
	for _, rec := range items {
		table := rec.Category.Table()
		if _, ok := labels[table]; ok {
			continue
		}
		if label, err := s.svc.Measurements.LastEntryLabel(r.Context(), rec.Category, ""); err == nil {
			labels[table] = label
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"items": items, "labels": labels})
}

func (s *Server) handleRecentEntries(w http.ResponseWriter, r *http.Request) {
	c, err := pathCategory(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	items, err := s.svc.Measurements.ListRecent(r.Context(), c, intQuery(r, "limit", 14))
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleLastEntry(w http.ResponseWriter, r *http.Request) {
	c, err := pathCategory(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	label, err := s.svc.Measurements.LastEntryLabel(r.Context(), c, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"label": label})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	c, id, err := pathEntry(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	rec, err := s.svc.Edits.Get(r.Context(), c, id)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": rec})
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	c, id, err := pathEntry(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	var patch app.EntryPatch
	if err := parseJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.svc.Edits.Update(r.Context(), c, id, patch)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": rec})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	c, id, err := pathEntry(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	if err := s.svc.Edits.Delete(r.Context(), c, id); err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": id})
}
