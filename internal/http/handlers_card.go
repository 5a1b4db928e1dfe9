package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.deps.Cards.ListCards(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	card, ok := s.cardFromPayload(w, r, uuid.New())
	if !ok {
		return
	}

	if err := s.deps.Cards.CreateCard(r.Context(), card); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toCardResponse(card))
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	card, err := s.deps.Cards.GetCard(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCardResponse(card))
}

// handleUpdateCard changes the card settings. Billing cycles already
// assigned to transactions are untouched; only future purchases see the
// new closing day.
func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	card, ok := s.cardFromPayload(w, r, id)
	if !ok {
		return
	}

	if err := s.deps.Cards.UpdateCard(r.Context(), card); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateInvoices(id)
	respondJSON(w, r, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.deps.Cards.DeleteCard(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateInvoices(id)
	respondJSON(w, r, http.StatusNoContent, nil)
}

// handlePreviewCycle reports which billing cycle a purchase on the given
// date would fall into. Defaults to today.
func (s *Server) handlePreviewCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	date := core.Date{Time: time.Now().UTC()}
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		date, err = parseDate(v)
		if err != nil {
			respondError(w, r, err)
			return
		}
	}

	cycle, err := s.deps.Invoices.PreviewCycle(r.Context(), id, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{
		"date":          date.ISO(),
		"billing_cycle": cycle,
	})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := id.String()
	invoices, found := s.invoiceCache.Get(key)
	if !found {
		invoices, err = s.deps.Invoices.ListInvoices(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.invoiceCache.Set(key, invoices)
	}

	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cycle := r.PathValue("cycle")

	invoice, err := s.deps.Invoices.GetInvoice(r.Context(), id, cycle)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toInvoiceResponse(invoice))
}

// cardFromPayload decodes and validates a card payload. On failure it
// writes the error response and returns ok=false.
func (s *Server) cardFromPayload(w http.ResponseWriter, r *http.Request, id uuid.UUID) (core.CreditCard, bool) {
	var payload cardPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return core.CreditCard{}, false
	}

	var limit int64
	if strings.TrimSpace(payload.Limit) != "" {
		var err error
		limit, err = parseSignedCents(payload.Limit)
		if err != nil {
			respondError(w, r, err)
			return core.CreditCard{}, false
		}
	}

	card := core.CreditCard{
		ID:         id,
		Name:       sanitizeInput(payload.Name),
		ClosingDay: payload.ClosingDay,
		DueDay:     payload.DueDay,
		Limit:      core.Money{Cents: limit},
	}
	if err := card.Validate(); err != nil {
		respondError(w, r, err)
		return core.CreditCard{}, false
	}
	return card, true
}
