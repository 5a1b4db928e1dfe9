package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	StatusPending InvoiceStatus = "pending"
	StatusPartial InvoiceStatus = "partial"
	StatusPaid    InvoiceStatus = "paid"
)

type (
	TransactionKind string

	// InvoiceStatus is derived from the paid flags of an invoice's
	// transactions, never stored independently.
	InvoiceStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID             uuid.UUID
		Name           string
		OpeningBalance Money
	}

	Category struct {
		ID   uuid.UUID
		Name string
		Kind TransactionKind
	}

	// CreditCard holds the two day-of-month settings that drive the
	// billing cycle calculation. Limit is informational only; nothing in
	// this core enforces it.
	CreditCard struct {
		ID         uuid.UUID
		Name       string
		ClosingDay int // 1-31
		DueDay     int // 1-31
		Limit      Money
	}

	Transaction struct {
		ID          uuid.UUID
		Description string
		Amount      Money
		Date        Date
		Kind        TransactionKind
		Paid        bool
		AccountID   uuid.UUID
		CategoryID  uuid.UUID

		// CardID is set iff this is a credit-card transaction.
		CardID *uuid.UUID
		// BillingCycle is a "YYYY-MM" label assigned once at creation by
		// the cycle resolver and stored. It is never recomputed, even if
		// the card's closing day changes later.
		BillingCycle string
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidClosingDay  = errors.New("closing day must be between 1 and 31")
	ErrInvalidDueDay      = errors.New("due day must be between 1 and 31")
	ErrMissingAccount     = errors.New("missing account")
	ErrMissingCategory    = errors.New("missing category")
	ErrCardCycleMismatch  = errors.New("card transaction without billing cycle")
	ErrAccountInUse       = errors.New("account has linked transactions")
	ErrCategoryInUse      = errors.New("category has linked transactions")
	ErrCardInUse          = errors.New("credit card has linked transactions")
	ErrNotFound           = errors.New("not found")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Time.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount in cents signed by the transaction kind:
// positive for income, negative for expense.
func (t Transaction) Signed() int64 {
	if t.Kind == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

// IsCardTransaction reports whether the transaction belongs to a credit card.
func (t Transaction) IsCardTransaction() bool {
	return t.CardID != nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidClosingDay
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if c.Limit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if t.AccountID == uuid.Nil {
		return ErrMissingAccount
	}
	if t.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	// A stored card transaction always carries its cycle label.
	if t.CardID != nil && t.BillingCycle == "" {
		return ErrCardCycleMismatch
	}
	return nil
}
