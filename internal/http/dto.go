package http

import (
	"strings"

	"github.com/google/uuid"

	"contas/internal/billing"
	"contas/internal/core"
	"contas/internal/forecast"
)

// JSON shapes exchanged with clients. Amounts travel as decimal strings
// ("12.34") and are stored as cents.

type accountPayload struct {
	Name           string `json:"name"`
	OpeningBalance string `json:"opening_balance"`
}

type accountResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	OpeningBalance string    `json:"opening_balance"`
}

type categoryPayload struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Kind string    `json:"kind"`
}

type cardPayload struct {
	Name       string `json:"name"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
	Limit      string `json:"limit,omitempty"`
}

type cardResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ClosingDay int       `json:"closing_day"`
	DueDay     int       `json:"due_day"`
	Limit      string    `json:"limit"`
}

type transactionPayload struct {
	Description string     `json:"description"`
	Amount      string     `json:"amount"`
	Date        string     `json:"date"`
	Kind        string     `json:"kind"`
	Paid        *bool      `json:"paid,omitempty"`
	AccountID   uuid.UUID  `json:"account_id"`
	CategoryID  uuid.UUID  `json:"category_id"`
	CardID      *uuid.UUID `json:"card_id,omitempty"`
}

type transactionResponse struct {
	ID           uuid.UUID  `json:"id"`
	Description  string     `json:"description"`
	Amount       string     `json:"amount"`
	Date         string     `json:"date"`
	Kind         string     `json:"kind"`
	Paid         bool       `json:"paid"`
	AccountID    uuid.UUID  `json:"account_id"`
	CategoryID   uuid.UUID  `json:"category_id"`
	CardID       *uuid.UUID `json:"card_id,omitempty"`
	BillingCycle string     `json:"billing_cycle,omitempty"`
}

type invoiceResponse struct {
	BillingCycle string                `json:"billing_cycle"`
	ClosingDate  string                `json:"closing_date"`
	DueDate      string                `json:"due_date"`
	Total        string                `json:"total"`
	Status       string                `json:"status"`
	Transactions []transactionResponse `json:"transactions"`
}

type categoryAmountResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type overviewResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Income     string                   `json:"income"`
	Expenses   string                   `json:"expenses"`
	Net        string                   `json:"net"`
	ByCategory []categoryAmountResponse `json:"by_category"`
}

type balanceResponse struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Balance string `json:"balance"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{ID: a.ID, Name: a.Name, OpeningBalance: a.OpeningBalance.String()}
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}

func toCardResponse(c core.CreditCard) cardResponse {
	return cardResponse{
		ID:         c.ID,
		Name:       c.Name,
		ClosingDay: c.ClosingDay,
		DueDay:     c.DueDay,
		Limit:      c.Limit.String(),
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:           t.ID,
		Description:  t.Description,
		Amount:       t.Amount.String(),
		Date:         t.Date.ISO(),
		Kind:         string(t.Kind),
		Paid:         t.Paid,
		AccountID:    t.AccountID,
		CategoryID:   t.CategoryID,
		CardID:       t.CardID,
		BillingCycle: t.BillingCycle,
	}
}

func toInvoiceResponse(inv billing.Invoice) invoiceResponse {
	txns := make([]transactionResponse, 0, len(inv.Transactions))
	for _, t := range inv.Transactions {
		txns = append(txns, toTransactionResponse(t))
	}
	return invoiceResponse{
		BillingCycle: inv.BillingCycle,
		ClosingDate:  inv.ClosingDate.ISO(),
		DueDate:      inv.DueDate.ISO(),
		Total:        inv.TotalAmount.String(),
		Status:       string(inv.Status),
		Transactions: txns,
	}
}

func toOverviewResponse(ov core.MonthOverview) overviewResponse {
	byCat := make([]categoryAmountResponse, 0, len(ov.ByCategory))
	for _, c := range ov.ByCategory {
		byCat = append(byCat, categoryAmountResponse{Name: c.Name, Amount: c.Amount.String()})
	}
	return overviewResponse{
		Year:       ov.Year,
		Month:      ov.Month,
		Income:     ov.Income.String(),
		Expenses:   ov.Expenses.String(),
		Net:        ov.Net.String(),
		ByCategory: byCat,
	}
}

func toBalanceResponses(balances []forecast.MonthBalance) []balanceResponse {
	out := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, balanceResponse{Year: b.Year, Month: b.Month, Balance: b.Balance.String()})
	}
	return out
}

// parseSignedCents parses a decimal amount that may carry a leading
// minus sign. A zero value is allowed here, unlike transaction amounts.
func parseSignedCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" || s == "0.00" || s == "0,00" {
		return 0, nil
	}
	neg := strings.HasPrefix(s, "-")
	cents, err := core.ParseDecimalToCents(strings.TrimPrefix(s, "-"))
	if err != nil {
		return 0, err
	}
	if neg {
		return -cents, nil
	}
	return cents, nil
}
