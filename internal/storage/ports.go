package storage

import (
	"context"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/forecast"
)

// Ports consumed by the HTTP layer, services, and the sync worker. The
// SQLite repository implements all of them.
type (
	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) error
		GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		// DeleteAccount fails with core.ErrAccountInUse when transactions
		// still reference the account.
		DeleteAccount(ctx context.Context, id uuid.UUID) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id uuid.UUID) error
	}

	CardStore interface {
		CreateCard(ctx context.Context, c core.CreditCard) error
		GetCard(ctx context.Context, id uuid.UUID) (core.CreditCard, error)
		ListCards(ctx context.Context) ([]core.CreditCard, error)
		// UpdateCard never touches billing cycles already assigned to the
		// card's transactions.
		UpdateCard(ctx context.Context, c core.CreditCard) error
		DeleteCard(ctx context.Context, id uuid.UUID) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
		ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error)
		ListCardTransactions(ctx context.Context, cardID uuid.UUID) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id uuid.UUID) error
	}

	// OverviewReader provides aggregated monthly data for the dashboard.
	OverviewReader interface {
		ReadMonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error)
	}

	// HistoryReader provides per-account monthly nets for balance forecasting.
	HistoryReader interface {
		MonthlyNetHistory(ctx context.Context, accountID uuid.UUID) ([]forecast.MonthNet, error)
	}

	// SyncQueue is the worker-facing view of rows awaiting a Sheets mirror.
	SyncQueue interface {
		GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error)
		MarkSynced(ctx context.Context, id uuid.UUID) error
		MarkSyncError(ctx context.Context, id uuid.UUID) error
	}
)

// PendingSyncTransaction is the minimal row shape queued for sync messages.
type PendingSyncTransaction struct {
	ID      uuid.UUID
	Version int64
}
