package billing

import (
	"sort"

	"github.com/google/uuid"

	"contas/internal/core"
)

// Invoice is the derived aggregate of one card's transactions in one
// billing cycle. It is computed on demand and never persisted.
type Invoice struct {
	BillingCycle string
	ClosingDate  core.Date
	DueDate      core.Date
	TotalAmount  core.Money
	Transactions []core.Transaction
	Status       core.InvoiceStatus
}

// CycleGroup pairs a cycle label with the card transactions attributed to it.
type CycleGroup struct {
	Cycle        string
	Transactions []core.Transaction
}

// FilterByCycle selects the transactions whose billing cycle equals the
// given label, optionally narrowed to one card. Transactions without a
// billing cycle are excluded unconditionally.
func FilterByCycle(txns []core.Transaction, cycle string, cardID *uuid.UUID) []core.Transaction {
	var out []core.Transaction
	for _, t := range txns {
		if t.BillingCycle == "" || t.BillingCycle != cycle {
			continue
		}
		if cardID != nil && (t.CardID == nil || *t.CardID != *cardID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ComputeStatus derives the payment status from the paid flags of an
// invoice's transactions. An empty set is pending, never partial or paid.
func ComputeStatus(txns []core.Transaction) core.InvoiceStatus {
	if len(txns) == 0 {
		return core.StatusPending
	}
	paid := 0
	for _, t := range txns {
		if t.Paid {
			paid++
		}
	}
	switch paid {
	case 0:
		return core.StatusPending
	case len(txns):
		return core.StatusPaid
	default:
		return core.StatusPartial
	}
}

// BuildInvoice composes the invoice for one card and cycle: it filters the
// given transactions to the cycle and card, sums their signed amounts,
// and derives the closing date, due date, and status. Inputs are never
// mutated; identical inputs always yield an identical invoice.
func BuildInvoice(cycle string, card core.CreditCard, txns []core.Transaction) (Invoice, error) {
	closing, err := ResolveClosingDate(cycle, card.DueDay, card.ClosingDay)
	if err != nil {
		return Invoice{}, err
	}
	due, err := ResolveDueDate(cycle, card.DueDay, card.ClosingDay)
	if err != nil {
		return Invoice{}, err
	}

	matched := FilterByCycle(txns, cycle, &card.ID)
	var total int64
	for _, t := range matched {
		total += t.Signed()
	}

	return Invoice{
		BillingCycle: cycle,
		ClosingDate:  closing,
		DueDate:      due,
		TotalAmount:  core.Money{Cents: total},
		Transactions: matched,
		Status:       ComputeStatus(matched),
	}, nil
}

// GroupByCycle groups one card's transactions by billing cycle, discarding
// transactions without a cycle or belonging to another card. Groups are
// ordered by ascending cycle label, which for "YYYY-MM" labels is
// chronological order.
func GroupByCycle(txns []core.Transaction, cardID uuid.UUID) []CycleGroup {
	byCycle := make(map[string][]core.Transaction)
	for _, t := range txns {
		if t.BillingCycle == "" || t.CardID == nil || *t.CardID != cardID {
			continue
		}
		byCycle[t.BillingCycle] = append(byCycle[t.BillingCycle], t)
	}

	cycles := make([]string, 0, len(byCycle))
	for c := range byCycle {
		cycles = append(cycles, c)
	}
	sort.Strings(cycles)

	groups := make([]CycleGroup, 0, len(cycles))
	for _, c := range cycles {
		groups = append(groups, CycleGroup{Cycle: c, Transactions: byCycle[c]})
	}
	return groups
}
