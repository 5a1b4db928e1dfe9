package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"contas/internal/core"
	"contas/internal/forecast"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Accounts

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, opening_balance_cents) VALUES (?, ?, ?)`,
		a.ID.String(), a.Name, a.OpeningBalance.Cents)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "account_id", a.ID, "name", a.Name)
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error) {
	var a core.Account
	var rawID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, opening_balance_cents FROM accounts WHERE id = ?`, id.String()).
		Scan(&rawID, &a.Name, &a.OpeningBalance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.ID, err = uuid.Parse(rawID)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse account id: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, opening_balance_cents FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var rawID string
		if err := rows.Scan(&rawID, &a.Name, &a.OpeningBalance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse account id: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, opening_balance_cents = ? WHERE id = ?`,
		a.Name, a.OpeningBalance.Cents, a.ID.String())
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	linked, err := r.countLinkedTransactions(ctx, "account_id", id)
	if err != nil {
		return err
	}
	if linked > 0 {
		return core.ErrAccountInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, kind) VALUES (?, ?, ?)`,
		c.ID.String(), c.Name, string(c.Kind))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error) {
	var c core.Category
	var rawID, kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind FROM categories WHERE id = ?`, id.String()).
		Scan(&rawID, &c.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = core.TransactionKind(kind)
	if c.ID, err = uuid.Parse(rawID); err != nil {
		return core.Category{}, fmt.Errorf("parse category id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind FROM categories ORDER BY kind, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var rawID, kind string
		if err := rows.Scan(&rawID, &c.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.TransactionKind(kind)
		if c.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse category id: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, kind = ? WHERE id = ?`,
		c.Name, string(c.Kind), c.ID.String())
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	linked, err := r.countLinkedTransactions(ctx, "category_id", id)
	if err != nil {
		return err
	}
	if linked > 0 {
		return core.ErrCategoryInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

// Credit cards

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (id, name, closing_day, due_day, limit_cents) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.ClosingDay, c.DueDay, c.Limit.Cents)
	if err != nil {
		return fmt.Errorf("create credit card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id uuid.UUID) (core.CreditCard, error) {
	var c core.CreditCard
	var rawID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, closing_day, due_day, limit_cents FROM credit_cards WHERE id = ?`, id.String()).
		Scan(&rawID, &c.Name, &c.ClosingDay, &c.DueDay, &c.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCard{}, core.ErrNotFound
	}
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get credit card: %w", err)
	}
	if c.ID, err = uuid.Parse(rawID); err != nil {
		return core.CreditCard{}, fmt.Errorf("parse card id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, closing_day, due_day, limit_cents FROM credit_cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var cards []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		var rawID string
		if err := rows.Scan(&rawID, &c.Name, &c.ClosingDay, &c.DueDay, &c.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		if c.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse card id: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// UpdateCard changes the card settings only. Billing cycles already
// assigned to the card's transactions keep the labels computed at
// creation time.
func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.CreditCard) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credit_cards SET name = ?, closing_day = ?, due_day = ?, limit_cents = ? WHERE id = ?`,
		c.Name, c.ClosingDay, c.DueDay, c.Limit.Cents, c.ID.String())
	if err != nil {
		return fmt.Errorf("update credit card: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id uuid.UUID) error {
	linked, err := r.countLinkedTransactions(ctx, "card_id", id)
	if err != nil {
		return err
	}
	if linked > 0 {
		return core.ErrCardInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	return requireRow(res)
}

// Transactions

const transactionColumns = `id, description, amount_cents, date, kind, paid, account_id, category_id, card_id, billing_cycle`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	var cardID any
	if t.CardID != nil {
		cardID = t.CardID.String()
	}
	var cycle any
	if t.BillingCycle != "" {
		cycle = t.BillingCycle
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, amount_cents, date, kind, paid, account_id, category_id, card_id, billing_cycle)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Description, t.Amount.Cents, t.Date.ISO(), string(t.Kind),
		boolToInt(t.Paid), t.AccountID.String(), t.CategoryID.String(), cardID, cycle)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"billing_cycle", t.BillingCycle)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND deleted_at IS NULL`, id.String())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d-%%", year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE date LIKE ? AND deleted_at IS NULL ORDER BY date, created_at`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListCardTransactions(ctx context.Context, cardID uuid.UUID) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE card_id = ? AND deleted_at IS NULL ORDER BY billing_cycle, date`, cardID.String())
	if err != nil {
		return nil, fmt.Errorf("list card transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// UpdateTransaction rewrites the mutable fields and re-queues the row for
// the Sheets mirror. The billing cycle is stored as given: reassignment is
// the service layer's decision, never the repository's.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	var cardID any
	if t.CardID != nil {
		cardID = t.CardID.String()
	}
	var cycle any
	if t.BillingCycle != "" {
		cycle = t.BillingCycle
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET description = ?, amount_cents = ?, date = ?, kind = ?, paid = ?,
		     account_id = ?, category_id = ?, card_id = ?, billing_cycle = ?,
		     version = version + 1, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		t.Description, t.Amount.Cents, t.Date.ISO(), string(t.Kind), boolToInt(t.Paid),
		t.AccountID.String(), t.CategoryID.String(), cardID, cycle, t.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

// DeleteTransaction soft deletes so the sync worker can still mirror the
// removal before the row disappears from queries.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// Dashboard

func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}
	prefix := fmt.Sprintf("%04d-%02d-%%", year, month)

	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents ELSE 0 END), 0)
		 FROM transactions WHERE date LIKE ? AND deleted_at IS NULL`, prefix).
		Scan(&overview.Income.Cents, &overview.Expenses.Cents)
	if err != nil {
		return overview, fmt.Errorf("get month totals: %w", err)
	}
	overview.Net = core.Money{Cents: overview.Income.Cents - overview.Expenses.Cents}

	rows, err := r.db.QueryContext(ctx,
		`SELECT c.name, SUM(t.amount_cents)
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE t.date LIKE ? AND t.kind = 'expense' AND t.deleted_at IS NULL
		 GROUP BY c.name ORDER BY SUM(t.amount_cents) DESC`, prefix)
	if err != nil {
		return overview, fmt.Errorf("get category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return overview, fmt.Errorf("scan category sum: %w", err)
		}
		overview.ByCategory = append(overview.ByCategory, ca)
	}
	return overview, rows.Err()
}

// MonthlyNetHistory returns, in chronological order, the net amount of
// each month that has at least one transaction on the account.
func (r *SQLiteRepository) MonthlyNetHistory(ctx context.Context, accountID uuid.UUID) ([]forecast.MonthNet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(date, 1, 4), substr(date, 6, 2),
		        SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE -amount_cents END)
		 FROM transactions
		 WHERE account_id = ? AND deleted_at IS NULL
		 GROUP BY substr(date, 1, 7) ORDER BY substr(date, 1, 7)`, accountID.String())
	if err != nil {
		return nil, fmt.Errorf("monthly net history: %w", err)
	}
	defer rows.Close()

	var history []forecast.MonthNet
	for rows.Next() {
		var m forecast.MonthNet
		if err := rows.Scan(&m.Year, &m.Month, &m.Net.Cents); err != nil {
			return nil, fmt.Errorf("scan month net: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

// Sync queue

func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM transactions
		 WHERE sync_status = 'pending' AND deleted_at IS NULL
		 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		var rawID string
		if err := rows.Scan(&rawID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		if p.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "transaction_id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "transaction_id", id)
	return nil
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var rawID, date, kind string
	var paid int
	var cardID, cycle sql.NullString

	err := row.Scan(&rawID, &t.Description, &t.Amount.Cents, &date, &kind, &paid,
		&scanUUID{&t.AccountID}, &scanUUID{&t.CategoryID}, &cardID, &cycle)
	if err != nil {
		return core.Transaction{}, err
	}

	if t.ID, err = uuid.Parse(rawID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	t.Date = core.Date{Time: parsed}
	t.Kind = core.TransactionKind(kind)
	t.Paid = paid != 0
	if cardID.Valid {
		id, err := uuid.Parse(cardID.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse card id: %w", err)
		}
		t.CardID = &id
	}
	if cycle.Valid {
		t.BillingCycle = cycle.String
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// scanUUID adapts uuid.UUID to database/sql scanning of TEXT columns.
type scanUUID struct {
	dst *uuid.UUID
}

func (s *scanUUID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*s.dst = id
		return nil
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*s.dst = id
		return nil
	default:
		return fmt.Errorf("cannot scan %T into uuid", src)
	}
}

func (r *SQLiteRepository) countLinkedTransactions(ctx context.Context, column string, id uuid.UUID) (int64, error) {
	var count int64
	// column is always one of our own identifiers, never user input
	query := fmt.Sprintf(`SELECT COUNT(*) FROM transactions WHERE %s = ? AND deleted_at IS NULL`, column)
	if err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count linked transactions: %w", err)
	}
	return count, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
