package sheets

import (
	"context"

	"github.com/google/uuid"

	"contas/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// TransactionWriter mirrors a transaction row, inserting or replacing
	// it by ID.
	TransactionWriter interface {
		Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes a mirrored transaction row by ID.
	TransactionDeleter interface {
		Delete(ctx context.Context, id uuid.UUID) error
	}
)
