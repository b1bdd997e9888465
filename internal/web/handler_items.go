package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/quickcloset/internal/domain"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.writeError(w, r, err, "failed to list items")
		return
	}

	q := r.URL.Query()
	filter := domain.ItemFilter{Search: strings.TrimSpace(q.Get("search"))}
	if v := q.Get("category"); v != "" {
		filter.Category = domain.NormalizeCategory(v)
		if filter.Category == "" {
			jsonError(w, http.StatusBadRequest, "unknown category "+v)
			return
		}
	}

	result, err := s.service.ListItems(r.Context(), filter, page)
	if err != nil {
		s.writeError(w, r, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if !decodeJSON(w, r, &in) {
		return
	}

	item, err := s.service.CreateItem(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if !decodeJSON(w, r, &in) {
		return
	}

	item, err := s.service.UpdateItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// handleDeleteItem succeeds whether or not the item existed.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err, "failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, successResponse{Success: true})
}
