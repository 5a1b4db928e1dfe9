package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"contas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "contas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedAccountAndCategory(t *testing.T, repo *SQLiteRepository) (core.Account, core.Category) {
	t.Helper()
	ctx := context.Background()

	account := core.Account{ID: uuid.New(), Name: "checking", OpeningBalance: core.Money{Cents: 100000}}
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	category := core.Category{ID: uuid.New(), Name: "food", Kind: core.Expense}
	if err := repo.CreateCategory(ctx, category); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return account, category
}

func seedTransaction(t *testing.T, repo *SQLiteRepository, account core.Account, category core.Category, mutate func(*core.Transaction)) core.Transaction {
	t.Helper()
	txn := core.Transaction{
		ID:          uuid.New(),
		Description: "groceries",
		Amount:      core.Money{Cents: 4550},
		Date:        core.NewDate(2025, 3, 12),
		Kind:        core.Expense,
		AccountID:   account.ID,
		CategoryID:  category.ID,
	}
	if mutate != nil {
		mutate(&txn)
	}
	if err := repo.CreateTransaction(context.Background(), txn); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return txn
}

func TestSQLiteRepository_AccountCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := core.Account{ID: uuid.New(), Name: "savings", OpeningBalance: core.Money{Cents: 5000}}
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	got, err := repo.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got != account {
		t.Errorf("GetAccount() = %+v, want %+v", got, account)
	}

	account.Name = "emergency fund"
	if err := repo.UpdateAccount(ctx, account); err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	got, _ = repo.GetAccount(ctx, account.ID)
	if got.Name != "emergency fund" {
		t.Errorf("GetAccount() after update = %q, want %q", got.Name, "emergency fund")
	}

	if err := repo.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if _, err := repo.GetAccount(ctx, account.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetAccount() after delete = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_DeleteAccountInUse(t *testing.T) {
	repo := newTestRepo(t)
	account, category := seedAccountAndCategory(t, repo)
	seedTransaction(t, repo, account, category, nil)

	if err := repo.DeleteAccount(context.Background(), account.ID); !errors.Is(err, core.ErrAccountInUse) {
		t.Errorf("DeleteAccount() = %v, want ErrAccountInUse", err)
	}
}

func TestSQLiteRepository_DeleteCategoryInUse(t *testing.T) {
	repo := newTestRepo(t)
	account, category := seedAccountAndCategory(t, repo)
	seedTransaction(t, repo, account, category, nil)

	if err := repo.DeleteCategory(context.Background(), category.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("DeleteCategory() = %v, want ErrCategoryInUse", err)
	}
}

func TestSQLiteRepository_TransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account, category := seedAccountAndCategory(t, repo)

	card := core.CreditCard{ID: uuid.New(), Name: "main", ClosingDay: 8, DueDay: 15, Limit: core.Money{Cents: 500000}}
	if err := repo.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}

	txn := seedTransaction(t, repo, account, category, func(x *core.Transaction) {
		x.CardID = &card.ID
		x.BillingCycle = "2025-04"
	})

	got, err := repo.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Description != txn.Description || got.Amount != txn.Amount || got.Kind != txn.Kind {
		t.Errorf("GetTransaction() = %+v, want %+v", got, txn)
	}
	if got.Date.ISO() != "2025-03-12" {
		t.Errorf("GetTransaction() date = %s, want 2025-03-12", got.Date.ISO())
	}
	if got.CardID == nil || *got.CardID != card.ID {
		t.Errorf("GetTransaction() card = %v, want %s", got.CardID, card.ID)
	}
	if got.BillingCycle != "2025-04" {
		t.Errorf("GetTransaction() billing cycle = %q, want 2025-04", got.BillingCycle)
	}
}

func TestSQLiteRepository_ListTransactionsByMonth(t *testing.T) {
	repo := newTestRepo(t)
	account, category := seedAccountAndCategory(t, repo)

	seedTransaction(t, repo, account, category, func(x *core.Transaction) { x.Date = core.NewDate(2025, 3, 1) })
	seedTransaction(t, repo, account, category, func(x *core.Transaction) { x.Date = core.NewDate(2025, 3, 28) })
	seedTransaction(t, repo, account, category, func(x *core.Transaction) { x.Date = core.NewDate(2025, 4, 2) })

	got, err := repo.ListTransactions(context.Background(), 2025, 3)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListTransactions(2025, 3) returned %d transactions, want 2", len(got))
	}
}

func TestSQLiteRepository_SoftDeleteHidesTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account, category := seedAccountAndCategory(t, repo)
	txn := seedTransaction(t, repo, account, category, nil)

	if err := repo.DeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if _, err := repo.GetTransaction(ctx, txn.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() after soft delete = %v, want ErrNotFound", err)
	}
	// Account is deletable again once its transactions are gone.
	if err := repo.DeleteAccount(ctx, account.ID); err != nil {
		t.Errorf("DeleteAccount() after delete = %v, want nil", err)
	}
}

func TestSQLiteRepository_MonthOverview(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account, category := seedAccountAndCategory(t, repo)

	salary := core.Category{ID: uuid.New(), Name: "salary", Kind: core.Income}
	if err := repo.CreateCategory(ctx, salary); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	seedTransaction(t, repo, account, category, func(x *core.Transaction) { x.Amount = core.Money{Cents: 3000} })
	seedTransaction(t, repo, account, category, func(x *core.Transaction) { x.Amount = core.Money{Cents: 2000} })
	seedTransaction(t, repo, account, category, func(x *core.Transaction) {
		x.Kind = core.Income
		x.CategoryID = salary.ID
		x.Amount = core.Money{Cents: 10000}
	})

	ov, err := repo.ReadMonthOverview(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("ReadMonthOverview() error = %v", err)
	}
	if ov.Income.Cents != 10000 {
		t.Errorf("Income = %d, want 10000", ov.Income.Cents)
	}
	if ov.Expenses.Cents != 5000 {
		t.Errorf("Expenses = %d, want 5000", ov.Expenses.Cents)
	}
	if ov.Net.Cents != 5000 {
		t.Errorf("Net = %d, want 5000", ov.Net.Cents)
	}
	if len(ov.ByCategory) != 1 || ov.ByCategory[0].Name != "food" || ov.ByCategory[0].Amount.Cents != 5000 {
		t.Errorf("ByCategory = %+v, want food/5000", ov.ByCategory)
	}
}

func TestSQLiteRepository_MonthlyNetHistory(t *testing.T) {
	repo := newTestRepo(t)
	account, category := seedAccountAndCategory(t, repo)

	seedTransaction(t, repo, account, category, func(x *core.Transaction) {
		x.Date = core.NewDate(2025, 1, 10)
		x.Amount = core.Money{Cents: 1000}
	})
	seedTransaction(t, repo, account, category, func(x *core.Transaction) {
		x.Date = core.NewDate(2025, 2, 10)
		x.Kind = core.Income
		x.Amount = core.Money{Cents: 8000}
	})

	history, err := repo.MonthlyNetHistory(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("MonthlyNetHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("MonthlyNetHistory() returned %d months, want 2", len(history))
	}
	if history[0].Year != 2025 || history[0].Month != 1 || history[0].Net.Cents != -1000 {
		t.Errorf("history[0] = %+v, want 2025-01 net -1000", history[0])
	}
	if history[1].Month != 2 || history[1].Net.Cents != 8000 {
		t.Errorf("history[1] = %+v, want 2025-02 net 8000", history[1])
	}
}

func TestSQLiteRepository_SyncQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account, category := seedAccountAndCategory(t, repo)
	txn := seedTransaction(t, repo, account, category, nil)

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != txn.ID {
		t.Fatalf("GetPendingSyncTransactions() = %+v, want [%s]", pending, txn.ID)
	}

	if err := repo.MarkSynced(ctx, txn.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	pending, _ = repo.GetPendingSyncTransactions(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("GetPendingSyncTransactions() after MarkSynced = %d rows, want 0", len(pending))
	}

	// Updates re-queue the row.
	txn.Description = "groceries and drinks"
	if err := repo.UpdateTransaction(ctx, txn); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	pending, _ = repo.GetPendingSyncTransactions(ctx, 10)
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("GetPendingSyncTransactions() after update = %+v, want version 2", pending)
	}
}
