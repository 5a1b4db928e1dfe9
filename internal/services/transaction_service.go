package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"contas/internal/amqp"
	"contas/internal/billing"
	"contas/internal/core"
	"contas/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and
// AMQP. The billing cycle of a card transaction is resolved here, once,
// at creation time.
type TransactionService struct {
	txns       storage.TransactionStore
	cards      storage.CardStore
	amqpClient *amqp.Client
}

func NewTransactionService(txns storage.TransactionStore, cards storage.CardStore, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		txns:       txns,
		cards:      cards,
		amqpClient: amqpClient,
	}
}

// Create saves a transaction locally and publishes a sync message. When
// the transaction belongs to a credit card, its billing cycle label is
// resolved from the card's closing day and stored with it.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if t.CardID != nil {
		card, err := s.cards.GetCard(ctx, *t.CardID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("load card: %w", err)
		}
		t.BillingCycle = billing.ResolveBillingCycle(t.Date, card.ClosingDay)
	} else {
		t.BillingCycle = ""
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.txns.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	// Publish async sync message (non-blocking, version 1 for new rows)
	if err := s.publishSyncMessage(ctx, t.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", t.ID, "error", err)
		// Don't fail the request - transaction is saved locally
	}

	return t, nil
}

// Update modifies a transaction locally and publishes a sync message.
// The stored billing cycle is preserved as-is: cycle labels are assigned
// once at creation and never recomputed.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	existing, err := s.txns.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CardID = existing.CardID
	t.BillingCycle = existing.BillingCycle

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.txns.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, t.ID, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", t.ID, "error", err)
	}

	return t, nil
}

// SetPaid toggles the paid flag of a transaction.
func (s *TransactionService) SetPaid(ctx context.Context, id uuid.UUID, paid bool) (core.Transaction, error) {
	t, err := s.txns.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Paid = paid
	return s.Update(ctx, t)
}

// Delete soft deletes a transaction locally and publishes a delete message.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.txns.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"transaction_id", id, "error", err)
		// Don't fail the request - transaction is deleted locally
	}

	return nil
}

// Get returns a single transaction.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	return s.txns.GetTransaction(ctx, id)
}

// ListMonth returns the transactions dated within the given month.
func (s *TransactionService) ListMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	return s.txns.ListTransactions(ctx, year, month)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id uuid.UUID, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishTransactionSync(ctx, id, version)
}

func (s *TransactionService) publishDeleteMessage(ctx context.Context, id uuid.UUID) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}

	return s.amqpClient.PublishTransactionDelete(ctx, id)
}
