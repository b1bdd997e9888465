package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vbonduro/quickcloset/internal/domain"
	"github.com/vbonduro/quickcloset/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into target. On failure it writes
// the error response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	err := json.NewDecoder(r.Body).Decode(target)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	jsonError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// writeError maps a service error onto a status code. Anything that is not a
// client error is logged and reported as msg with a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrEmptySelection):
		jsonError(w, http.StatusBadRequest, domain.ErrEmptySelection.Error())
	case errors.Is(err, domain.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrSuggestionsDisabled):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, msg)
	}
}

// parsePage reads page and limit from the query string. Missing values take
// the defaults; anything non-numeric or below 1 is a validation error.
func parsePage(r *http.Request) (domain.PageRequest, error) {
	page := domain.PageRequest{Page: defaultPage, Limit: defaultLimit}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, &domain.ValidationError{Field: "page", Reason: "must be a positive integer"}
		}
		page.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, &domain.ValidationError{Field: "limit", Reason: "must be a positive integer"}
		}
		page.Limit = n
	}
	return page, page.Validate()
}

type successResponse struct {
	Success bool `json:"success"`
}
