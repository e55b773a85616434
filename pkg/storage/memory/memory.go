// Package memory is an in-process Storage used for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
)

// Store keeps rows in maps guarded by one RWMutex. Every mutation holds the
// write lock for the whole check-and-write, so a reader sees a row either before
// or after a write.
type Store struct {
	mu           sync.RWMutex
	transactions map[int64]models.Transaction
	users        map[string]models.User
	lastTxID     int64
	lastUserID   int64
	now          func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		transactions: make(map[int64]models.Transaction),
		users:        make(map[string]models.User),
		now:          time.Now,
	}
}

// WithClock replaces the creation-time clock.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

func (s *Store) InsertTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTxID++
	row := cloneTransaction(*tx)
	row.ID = s.lastTxID
	row.Created = s.now().UTC()
	row.DeleteStatus = models.Live
	row.Status = row.Status.Normalize()
	s.transactions[row.ID] = row

	out := cloneTransaction(row)
	return &out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.live(id)
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	out := cloneTransaction(row)
	return &out, nil
}

func (s *Store) ListTransactions(_ context.Context, txTypes []models.TransactionType) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, row := range s.transactions {
		if row.DeleteStatus != models.Live {
			continue
		}
		if len(txTypes) > 0 && !slices.Contains(txTypes, row.TransactionType) {
			continue
		}
		out = append(out, cloneTransaction(row))
	}
	slices.SortFunc(out, func(a, b models.Transaction) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) UpdateStatus(_ context.Context, id int64, status models.TransactionStatus, txTypes []models.TransactionType) (*models.Transaction, error) {
	return s.mutate(id, func(row *models.Transaction) error {
		if len(txTypes) > 0 && !slices.Contains(txTypes, row.TransactionType) {
			return fmt.Errorf("transaction %d: %w", id, storage.ErrTypeNotAllowed)
		}
		row.Status = status
		return nil
	})
}

func (s *Store) UpdateDetails(_ context.Context, id int64, details models.Details) (*models.Transaction, error) {
	return s.mutate(id, func(row *models.Transaction) error {
		if row.Status.Normalize() != models.StatusOpen {
			return fmt.Errorf("transaction %d: %w", id, storage.ErrNotCorrectable)
		}
		row.AccountNumber = details.AccountNumber
		row.Name = details.Name
		row.TransactionType = details.TransactionType
		row.AccountType = details.AccountType
		row.DepositType = cloneString(details.DepositType)
		row.PaymentType = cloneString(details.PaymentType)
		row.DisbursementType = cloneString(details.DisbursementType)
		return nil
	})
}

func (s *Store) SoftDelete(_ context.Context, id int64) (*models.Transaction, error) {
	return s.mutate(id, func(row *models.Transaction) error {
		row.DeleteStatus = models.Deleted
		return nil
	})
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return &user, nil
}

func (s *Store) InsertUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.users[user.Username]; taken {
		return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicateUsername)
	}
	s.lastUserID++
	row := *user
	row.ID = s.lastUserID
	s.users[row.Username] = row
	return &row, nil
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current models.User
	found := false
	for _, u := range s.users {
		if u.ID == user.ID {
			current, found = u, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("user %d: %w", user.ID, storage.ErrNotFound)
	}
	if other, taken := s.users[user.Username]; taken && other.ID != user.ID {
		return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicateUsername)
	}

	row := *user
	delete(s.users, current.Username)
	s.users[row.Username] = row
	return &row, nil
}

// mutate applies fn to a copy of a live row and stores the copy only if fn
// succeeds.
func (s *Store) mutate(id int64, fn func(row *models.Transaction) error) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.live(id)
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	updated := cloneTransaction(row)
	if err := fn(&updated); err != nil {
		return nil, err
	}
	s.transactions[id] = updated

	out := cloneTransaction(updated)
	return &out, nil
}

func (s *Store) live(id int64) (models.Transaction, bool) {
	row, ok := s.transactions[id]
	if !ok || row.DeleteStatus != models.Live {
		return models.Transaction{}, false
	}
	return row, true
}

func cloneTransaction(tx models.Transaction) models.Transaction {
	tx.DepositType = cloneString(tx.DepositType)
	tx.PaymentType = cloneString(tx.PaymentType)
	tx.DisbursementType = cloneString(tx.DisbursementType)
	return tx
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
