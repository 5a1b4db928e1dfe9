package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"contas/internal/core"
)

func validTransaction() core.Transaction {
	return core.Transaction{
		ID:          uuid.New(),
		Description: "groceries",
		Amount:      core.Money{Cents: 1250},
		Date:        core.NewDate(2025, 3, 10),
		Kind:        core.Expense,
		AccountID:   uuid.New(),
		CategoryID:  uuid.New(),
	}
}

func TestMemoryStoreUpsert(t *testing.T) {
	s := New()
	tx := validTransaction()

	ref, err := s.Upsert(context.Background(), tx)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}

	// Same ID keeps the same row.
	tx.Description = "groceries (edited)"
	ref, err = s.Upsert(context.Background(), tx)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected re-upsert: ref=%q err=%v", ref, err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	got, ok := s.Get(tx.ID)
	if !ok || got.Description != "groceries (edited)" {
		t.Fatalf("stored transaction not updated: %+v", got)
	}

	// A second transaction lands on the next row.
	ref, err = s.Upsert(context.Background(), validTransaction())
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected second upsert: ref=%q err=%v", ref, err)
	}
}

func TestMemoryStoreUpsertValidates(t *testing.T) {
	s := New()
	_, err := s.Upsert(context.Background(), core.Transaction{})
	if err == nil {
		t.Fatal("expected validation error for empty transaction")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := New()
	tx := validTransaction()
	if _, err := s.Upsert(context.Background(), tx); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.Delete(context.Background(), tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}

	// Deleting again is a no-op.
	if err := s.Delete(context.Background(), tx.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}
