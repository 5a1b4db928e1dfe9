package http

import (
	"net/http"

	"contas/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	txns, err := s.deps.Transactions.ListMonth(r.Context(), year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	txn, ok := s.transactionFromPayload(w, r)
	if !ok {
		return
	}

	created, err := s.deps.Transactions.Create(r.Context(), txn)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateForTransaction(created)
	respondJSON(w, r, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	txn, err := s.deps.Transactions.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	txn, ok := s.transactionFromPayload(w, r)
	if !ok {
		return
	}
	txn.ID = id

	// Fetch first so the old month's cache keys are known: an update may
	// move the transaction to another month.
	existing, err := s.deps.Transactions.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.deps.Transactions.Update(r.Context(), txn)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateForTransaction(existing)
	s.invalidateForTransaction(updated)
	respondJSON(w, r, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// Fetch first so the cache keys are known after the delete.
	txn, err := s.deps.Transactions.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.deps.Transactions.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateForTransaction(txn)
	respondJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleSetTransactionPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload struct {
		Paid bool `json:"paid"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	updated, err := s.deps.Transactions.SetPaid(r.Context(), id, payload.Paid)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateForTransaction(updated)
	respondJSON(w, r, http.StatusOK, toTransactionResponse(updated))
}

// transactionFromPayload decodes and converts a transaction payload. On
// failure it writes the error response and returns ok=false.
func (s *Server) transactionFromPayload(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return core.Transaction{}, false
	}

	cents, err := core.ParseDecimalToCents(payload.Amount)
	if err != nil {
		respondError(w, r, err)
		return core.Transaction{}, false
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		respondError(w, r, err)
		return core.Transaction{}, false
	}

	txn := core.Transaction{
		Description: sanitizeInput(payload.Description),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Kind:        core.TransactionKind(payload.Kind),
		AccountID:   payload.AccountID,
		CategoryID:  payload.CategoryID,
		CardID:      payload.CardID,
	}
	if payload.Paid != nil {
		txn.Paid = *payload.Paid
	}
	return txn, true
}
