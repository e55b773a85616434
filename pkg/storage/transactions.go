package storage

import (
	"context"

	"github.com/chris/teller-queue/pkg/models"
)

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a live transaction by its ID.
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)

	// ListTransactions returns live transactions whose type is in types, newest
	// first. An empty types slice returns every live transaction.
	ListTransactions(ctx context.Context, types []models.TransactionType) ([]models.Transaction, error)
}

// TransactionManager defines the mutations available on transactions. Every method
// is a single conditional write on one row and returns the row as stored after
// the write.
type TransactionManager interface {
	// InsertTransaction assigns the ID and creation time and persists tx.
	InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// UpdateStatus sets the status of a live transaction. When types is not
	// empty the write only applies to a row whose type is in types, and a live
	// row of another type yields ErrTypeNotAllowed.
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, types []models.TransactionType) (*models.Transaction, error)

	// UpdateDetails rewrites the correctable fields of a live transaction that is
	// still Open. Other statuses yield ErrNotCorrectable.
	UpdateDetails(ctx context.Context, id int64, details models.Details) (*models.Transaction, error)

	// SoftDelete flags a live transaction as deleted.
	SoftDelete(ctx context.Context, id int64) (*models.Transaction, error)
}

// TransactionStore combines the reader and manager interfaces.
type TransactionStore interface {
	TransactionReader
	TransactionManager
}
