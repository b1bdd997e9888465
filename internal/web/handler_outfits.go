package web

import (
	"net/http"

	"github.com/vbonduro/quickcloset/internal/domain"
)

// outfitRequest is the body of POST /tables/saved_outfits.
type outfitRequest struct {
	Name string `json:"outfit_name"`
	domain.Selection
	Notes string `json:"notes"`
}

func (s *Server) handleListOutfits(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.writeError(w, r, err, "failed to list outfits")
		return
	}

	result, err := s.service.ListOutfits(r.Context(), page)
	if err != nil {
		s.writeError(w, r, err, "failed to list outfits")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetOutfit(w http.ResponseWriter, r *http.Request) {
	outfit, err := s.service.GetOutfit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "failed to get outfit")
		return
	}
	jsonResponse(w, http.StatusOK, outfit)
}

func (s *Server) handleResolveOutfit(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.service.ResolveOutfit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "failed to resolve outfit")
		return
	}
	jsonResponse(w, http.StatusOK, resolved)
}

func (s *Server) handleCreateOutfit(w http.ResponseWriter, r *http.Request) {
	var req outfitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outfit, err := s.service.SaveOutfit(r.Context(), req.Name, req.Notes, req.Selection)
	if err != nil {
		s.writeError(w, r, err, "failed to save outfit")
		return
	}
	jsonResponse(w, http.StatusCreated, outfit)
}

func (s *Server) handleDeleteOutfit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.DeleteOutfit(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err, "failed to delete outfit")
		return
	}
	jsonResponse(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleRandomOutfit(w http.ResponseWriter, r *http.Request) {
	sel, err := s.service.RandomOutfit(r.Context())
	if err != nil {
		s.writeError(w, r, err, "failed to pick random outfit")
		return
	}
	jsonResponse(w, http.StatusOK, sel)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err, "failed to load stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
