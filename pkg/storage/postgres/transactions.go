package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, account_number, name, transaction_type, delete_status, amount,
        account_type, deposit_type, payment_type, disbursement_type, status, created`

// InsertTransaction writes tx and returns the row with its ID and creation time.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	query := `
        INSERT INTO transactions (account_number, name, transaction_type, amount, account_type,
            deposit_type, payment_type, disbursement_type, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + transactionColumns
	row := s.db.QueryRow(ctx, query,
		tx.AccountNumber,
		tx.Name,
		string(tx.TransactionType),
		tx.Amount,
		string(tx.AccountType),
		tx.DepositType,
		tx.PaymentType,
		tx.DisbursementType,
		string(tx.Status.Normalize()),
	)
	created, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return created, nil
}

// GetTransaction retrieves a live transaction by its ID.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND delete_status = 0`
	tx, err := scanTransaction(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns live rows of the given types ordered newest first.
func (s *Store) ListTransactions(ctx context.Context, txTypes []models.TransactionType) ([]models.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE delete_status = 0 AND ($1::text[] IS NULL OR transaction_type = ANY($1))
        ORDER BY created DESC, id DESC`
	rows, err := s.db.Query(ctx, query, typeFilter(txTypes))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// UpdateStatus sets the status of a live row and returns the row as written.
// The type restriction is part of the WHERE clause, so a concurrent retype
// cannot slip in between the check and the write.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, txTypes []models.TransactionType) (*models.Transaction, error) {
	query := `
        UPDATE transactions SET status = $2
        WHERE id = $1 AND delete_status = 0 AND ($3::text[] IS NULL OR transaction_type = ANY($3))
        RETURNING ` + transactionColumns
	tx, err := scanTransaction(s.db.QueryRow(ctx, query, id, string(status), typeFilter(txTypes)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if len(txTypes) == 0 {
				return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
			}
			// Zero rows under a restriction means either no live row or a row of another type.
			if _, getErr := s.GetTransaction(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrTypeNotAllowed)
		}
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	return tx, nil
}

// UpdateDetails rewrites the correctable fields of a live row that is still Open.
func (s *Store) UpdateDetails(ctx context.Context, id int64, details models.Details) (*models.Transaction, error) {
	query := `
        UPDATE transactions SET
            account_number = $2,
            name = $3,
            transaction_type = $4,
            account_type = $5,
            deposit_type = $6,
            payment_type = $7,
            disbursement_type = $8
        WHERE id = $1 AND delete_status = 0 AND COALESCE(status, 'Open') = 'Open'
        RETURNING ` + transactionColumns
	tx, err := scanTransaction(s.db.QueryRow(ctx, query,
		id,
		details.AccountNumber,
		details.Name,
		string(details.TransactionType),
		string(details.AccountType),
		details.DepositType,
		details.PaymentType,
		details.DisbursementType,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Zero rows means either no live row or a row past Open.
			if _, getErr := s.GetTransaction(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotCorrectable)
		}
		return nil, fmt.Errorf("failed to update transaction details: %w", err)
	}
	return tx, nil
}

// SoftDelete flags a live row as deleted.
func (s *Store) SoftDelete(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `
        UPDATE transactions SET delete_status = 1
        WHERE id = $1 AND delete_status = 0
        RETURNING ` + transactionColumns
	tx, err := scanTransaction(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return tx, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		tx              models.Transaction
		txType, accType string
		status          *string
		deleteStatus    int16
		created         time.Time
	)
	err := row.Scan(
		&tx.ID,
		&tx.AccountNumber,
		&tx.Name,
		&txType,
		&deleteStatus,
		&tx.Amount,
		&accType,
		&tx.DepositType,
		&tx.PaymentType,
		&tx.DisbursementType,
		&status,
		&created,
	)
	if err != nil {
		return nil, err
	}

	tx.TransactionType = models.TransactionType(txType)
	tx.AccountType = models.AccountType(accType)
	tx.DeleteStatus = int(deleteStatus)
	if status != nil {
		tx.Status = models.TransactionStatus(*status)
	}
	tx.Status = tx.Status.Normalize()
	tx.Created = created.UTC()
	return &tx, nil
}

// typeFilter converts types to a text[] parameter. Nil means no filter.
func typeFilter(txTypes []models.TransactionType) []string {
	var filter []string
	for _, t := range txTypes {
		filter = append(filter, string(t))
	}
	return filter
}
