// Package statemachine owns the status lifecycle of a transaction.
//
// Every status is reachable from every other one: a Closed transaction may be
// re-opened. The machine only guarantees that the stored value is one of the
// three known statuses and that each change is one conditional row write.
package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
)

// ErrInvalidStatus is returned for a requested status outside the enumeration.
var ErrInvalidStatus = errors.New("invalid status")

// StatusWriter is the storage capability the machine needs.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, types []models.TransactionType) (*models.Transaction, error)
}

// Machine applies status changes.
type Machine struct {
	store StatusWriter
}

// New creates a Machine over store.
func New(store StatusWriter) *Machine {
	return &Machine{store: store}
}

// ParseStatus validates a requested status without touching storage.
func ParseStatus(raw string) (models.TransactionStatus, error) {
	status, err := models.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// SetStatus moves transaction id to raw and returns the row after the write.
// An invalid status fails before storage is reached; a missing or deleted row
// yields storage.ErrNotFound.
func (m *Machine) SetStatus(ctx context.Context, id int64, raw string) (*models.Transaction, error) {
	return m.SetStatusWithin(ctx, id, raw, nil)
}

// SetStatusWithin is SetStatus restricted to rows whose type is in types. The
// type check and the write are the same storage operation, and a row of
// another type yields storage.ErrTypeNotAllowed.
func (m *Machine) SetStatusWithin(ctx context.Context, id int64, raw string, types []models.TransactionType) (*models.Transaction, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	tx, err := m.store.UpdateStatus(ctx, id, status, types)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrTypeNotAllowed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set status of transaction %d: %w", id, err)
	}
	return tx, nil
}
