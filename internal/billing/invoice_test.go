package billing

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"contas/internal/core"
)

func cardTxn(cardID uuid.UUID, cycle string, cents int64, paid bool) core.Transaction {
	return core.Transaction{
		ID:           uuid.New(),
		Description:  "card purchase",
		Amount:       core.Money{Cents: cents},
		Date:         core.NewDate(2025, 1, 10),
		Kind:         core.Expense,
		Paid:         paid,
		AccountID:    uuid.New(),
		CategoryID:   uuid.New(),
		CardID:       &cardID,
		BillingCycle: cycle,
	}
}

func TestFilterByCycle(t *testing.T) {
	cardA := uuid.New()
	cardB := uuid.New()

	txns := []core.Transaction{
		cardTxn(cardA, "2025-02", 1000, false),
		cardTxn(cardA, "2025-03", 2000, false),
		cardTxn(cardB, "2025-02", 3000, false),
		{ID: uuid.New(), Description: "cash", Amount: core.Money{Cents: 500}, Kind: core.Expense}, // no cycle
	}

	t.Run("cycle only", func(t *testing.T) {
		got := FilterByCycle(txns, "2025-02", nil)
		if len(got) != 2 {
			t.Fatalf("FilterByCycle() returned %d transactions, want 2", len(got))
		}
	})

	t.Run("cycle and card", func(t *testing.T) {
		got := FilterByCycle(txns, "2025-02", &cardA)
		if len(got) != 1 {
			t.Fatalf("FilterByCycle() returned %d transactions, want 1", len(got))
		}
		if *got[0].CardID != cardA {
			t.Errorf("FilterByCycle() returned transaction of wrong card")
		}
	})

	t.Run("transactions without cycle are always excluded", func(t *testing.T) {
		got := FilterByCycle(txns, "", nil)
		if len(got) != 0 {
			t.Errorf("FilterByCycle(\"\") returned %d transactions, want 0", len(got))
		}
	})
}

func TestComputeStatus(t *testing.T) {
	card := uuid.New()

	tests := []struct {
		name string
		txns []core.Transaction
		want core.InvoiceStatus
	}{
		{
			name: "empty set is pending",
			txns: nil,
			want: core.StatusPending,
		},
		{
			name: "single paid is paid",
			txns: []core.Transaction{cardTxn(card, "2025-02", 100, true)},
			want: core.StatusPaid,
		},
		{
			name: "mixed is partial",
			txns: []core.Transaction{
				cardTxn(card, "2025-02", 100, true),
				cardTxn(card, "2025-02", 200, false),
			},
			want: core.StatusPartial,
		},
		{
			name: "none paid is pending",
			txns: []core.Transaction{
				cardTxn(card, "2025-02", 100, false),
				cardTxn(card, "2025-02", 200, false),
			},
			want: core.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStatus(tt.txns); got != tt.want {
				t.Errorf("ComputeStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildInvoice(t *testing.T) {
	card := core.CreditCard{
		ID:         uuid.New(),
		Name:       "main card",
		ClosingDay: 8,
		DueDay:     15,
		Limit:      core.Money{Cents: 500000},
	}
	other := uuid.New()

	txns := []core.Transaction{
		cardTxn(card.ID, "2025-02", 1250, true),
		cardTxn(card.ID, "2025-02", 3075, false),
		cardTxn(card.ID, "2025-03", 9999, false), // other cycle, must not contribute
		cardTxn(other, "2025-02", 5000, false),   // other card, must not contribute
	}

	inv, err := BuildInvoice("2025-02", card, txns)
	if err != nil {
		t.Fatalf("BuildInvoice() error = %v", err)
	}

	if len(inv.Transactions) != 2 {
		t.Fatalf("invoice has %d transactions, want 2", len(inv.Transactions))
	}
	// Both are expenses, so the total carries the expense sign.
	if inv.TotalAmount.Cents != -(1250 + 3075) {
		t.Errorf("TotalAmount = %d, want %d", inv.TotalAmount.Cents, -(1250 + 3075))
	}
	if inv.Status != core.StatusPartial {
		t.Errorf("Status = %q, want %q", inv.Status, core.StatusPartial)
	}
	if inv.ClosingDate.ISO() != "2025-02-08" {
		t.Errorf("ClosingDate = %s, want 2025-02-08", inv.ClosingDate.ISO())
	}
	if inv.DueDate.ISO() != "2025-02-15" {
		t.Errorf("DueDate = %s, want 2025-02-15", inv.DueDate.ISO())
	}
}

func TestBuildInvoice_Idempotent(t *testing.T) {
	card := core.CreditCard{ID: uuid.New(), Name: "card", ClosingDay: 13, DueDay: 20}
	txns := []core.Transaction{
		cardTxn(card.ID, "2026-02", 700, false),
		cardTxn(card.ID, "2026-02", 800, true),
	}

	first, err := BuildInvoice("2026-02", card, txns)
	if err != nil {
		t.Fatalf("BuildInvoice() error = %v", err)
	}
	second, err := BuildInvoice("2026-02", card, txns)
	if err != nil {
		t.Fatalf("BuildInvoice() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("BuildInvoice() not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBuildInvoice_DoesNotMutateInput(t *testing.T) {
	card := core.CreditCard{ID: uuid.New(), Name: "card", ClosingDay: 8, DueDay: 15}
	txns := []core.Transaction{
		cardTxn(card.ID, "2025-02", 100, false),
		cardTxn(card.ID, "2025-01", 200, true),
	}
	snapshot := make([]core.Transaction, len(txns))
	copy(snapshot, txns)

	if _, err := BuildInvoice("2025-02", card, txns); err != nil {
		t.Fatalf("BuildInvoice() error = %v", err)
	}
	if !reflect.DeepEqual(txns, snapshot) {
		t.Error("BuildInvoice() mutated its input slice")
	}
}

func TestBuildInvoice_BadCycleLabel(t *testing.T) {
	card := core.CreditCard{ID: uuid.New(), Name: "card", ClosingDay: 8, DueDay: 15}
	if _, err := BuildInvoice("not-a-cycle", card, nil); err == nil {
		t.Error("BuildInvoice() expected error for malformed cycle label")
	}
}

func TestGroupByCycle(t *testing.T) {
	card := uuid.New()
	other := uuid.New()

	txns := []core.Transaction{
		cardTxn(card, "2025-03", 300, false),
		cardTxn(card, "2025-01", 100, false),
		cardTxn(card, "2025-01", 150, false),
		cardTxn(card, "2024-12", 50, true),
		cardTxn(other, "2025-01", 999, false),
		{ID: uuid.New(), Description: "cash", Amount: core.Money{Cents: 10}, Kind: core.Expense},
	}

	groups := GroupByCycle(txns, card)

	wantCycles := []string{"2024-12", "2025-01", "2025-03"}
	gotCycles := make([]string, len(groups))
	for i, g := range groups {
		gotCycles[i] = g.Cycle
	}
	if !reflect.DeepEqual(gotCycles, wantCycles) {
		t.Fatalf("GroupByCycle() cycles = %v, want %v", gotCycles, wantCycles)
	}

	if len(groups[1].Transactions) != 2 {
		t.Errorf("cycle 2025-01 has %d transactions, want 2", len(groups[1].Transactions))
	}
	for _, g := range groups {
		for _, txn := range g.Transactions {
			if txn.CardID == nil || *txn.CardID != card {
				t.Errorf("cycle %s contains transaction of another card", g.Cycle)
			}
			if txn.BillingCycle == "" {
				t.Errorf("cycle %s contains transaction without billing cycle", g.Cycle)
			}
		}
	}
}

func TestGroupByCycle_NoMatches(t *testing.T) {
	if groups := GroupByCycle(nil, uuid.New()); len(groups) != 0 {
		t.Errorf("GroupByCycle(nil) = %v, want empty", groups)
	}
}
