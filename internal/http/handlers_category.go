package http

import (
	"net/http"

	"github.com/google/uuid"

	"contas/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Categories.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	category := core.Category{
		ID:   uuid.New(),
		Name: sanitizeInput(payload.Name),
		Kind: core.TransactionKind(payload.Kind),
	}
	if err := category.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.deps.Categories.CreateCategory(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	category, err := s.deps.Categories.GetCategory(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload categoryPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	category := core.Category{
		ID:   id,
		Name: sanitizeInput(payload.Name),
		Kind: core.TransactionKind(payload.Kind),
	}
	if err := category.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.deps.Categories.UpdateCategory(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.deps.Categories.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
