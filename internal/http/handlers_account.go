package http

import (
	"net/http"

	"github.com/google/uuid"

	"contas/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.ListAccounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	opening, err := parseSignedCents(payload.OpeningBalance)
	if err != nil {
		respondError(w, r, err)
		return
	}

	account := core.Account{
		ID:             uuid.New(),
		Name:           sanitizeInput(payload.Name),
		OpeningBalance: core.Money{Cents: opening},
	}
	if err := account.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.deps.Accounts.CreateAccount(r.Context(), account); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	account, err := s.deps.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	opening, err := parseSignedCents(payload.OpeningBalance)
	if err != nil {
		respondError(w, r, err)
		return
	}

	account := core.Account{
		ID:             id,
		Name:           sanitizeInput(payload.Name),
		OpeningBalance: core.Money{Cents: opening},
	}
	if err := account.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.deps.Accounts.UpdateAccount(r.Context(), account); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.deps.Accounts.DeleteAccount(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleAccountForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	balances, err := s.deps.Forecast.ProjectBalance(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toBalanceResponses(balances))
}
