package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"contas/internal/billing"
	"contas/internal/core"
	"contas/internal/storage"
)

// InvoiceService derives card invoices on demand from stored
// transactions. Nothing here writes.
type InvoiceService struct {
	txns  storage.TransactionStore
	cards storage.CardStore
}

func NewInvoiceService(txns storage.TransactionStore, cards storage.CardStore) *InvoiceService {
	return &InvoiceService{txns: txns, cards: cards}
}

// ListInvoices returns one invoice per billing cycle of the card, in
// chronological cycle order.
func (s *InvoiceService) ListInvoices(ctx context.Context, cardID uuid.UUID) ([]billing.Invoice, error) {
	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}

	txns, err := s.txns.ListCardTransactions(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card transactions: %w", err)
	}

	groups := billing.GroupByCycle(txns, cardID)
	invoices := make([]billing.Invoice, 0, len(groups))
	for _, g := range groups {
		inv, err := billing.BuildInvoice(g.Cycle, card, g.Transactions)
		if err != nil {
			return nil, fmt.Errorf("build invoice for cycle %s: %w", g.Cycle, err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// GetInvoice returns the invoice for one card and cycle label. A cycle
// with no transactions yields an empty pending invoice, not an error.
func (s *InvoiceService) GetInvoice(ctx context.Context, cardID uuid.UUID, cycle string) (billing.Invoice, error) {
	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("load card: %w", err)
	}

	txns, err := s.txns.ListCardTransactions(ctx, cardID)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("list card transactions: %w", err)
	}

	return billing.BuildInvoice(cycle, card, txns)
}

// PreviewCycle resolves the billing cycle a purchase on the given date
// would land in for this card, without storing anything.
func (s *InvoiceService) PreviewCycle(ctx context.Context, cardID uuid.UUID, date core.Date) (string, error) {
	card, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return "", fmt.Errorf("load card: %w", err)
	}
	return billing.ResolveBillingCycle(date, card.ClosingDay), nil
}
