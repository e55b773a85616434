// Package service is the routing facade. It authorizes each operation against
// the caller's principal and coordinates the classifier, the queue router, the
// status machine and storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chris/teller-queue/pkg/auth"
	"github.com/chris/teller-queue/pkg/classifier"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/routing"
	"github.com/chris/teller-queue/pkg/statemachine"
	"github.com/chris/teller-queue/pkg/storage"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	// ErrForbidden is returned when the principal may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal hides storage and signing failures from callers. The cause is logged.
	ErrInternal = errors.New("internal error")

	// ErrUserNotFound is returned when a user correction names an unknown account.
	ErrUserNotFound = fmt.Errorf("user %w", storage.ErrNotFound)

	ErrNotFound          = storage.ErrNotFound
	ErrNotCorrectable    = storage.ErrNotCorrectable
	ErrDuplicateUsername = storage.ErrDuplicateUsername
	ErrInvalidStatus     = statemachine.ErrInvalidStatus
)

// Authenticator issues and verifies credentials.
type Authenticator interface {
	Issue(ctx context.Context, username, password, origin string) (string, models.Principal, error)
	IssueAdmin(ctx context.Context, username, password, origin string) (string, models.Principal, error)
	Verify(token string) (models.Principal, error)
}

// WithdrawalRequest is the narrow creation path used by the withdrawal slip
// window. The type is fixed and there is no sub-type.
type WithdrawalRequest struct {
	AccountNumber string
	Name          string
	Amount        string
	AccountType   string
}

// NewUser is an account created or corrected by an administrator. Every field
// is required.
type NewUser struct {
	Name         string `validate:"required"`
	LastName     string `validate:"required"`
	Username     string `validate:"required"`
	Password     string `validate:"required"`
	TellerNumber int    `validate:"gt=0"`
}

func (u NewUser) trimmed() NewUser {
	u.Name = strings.TrimSpace(u.Name)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Username = strings.TrimSpace(u.Username)
	return u
}

// validateUser checks u with blank-only values counted as missing.
func validateUser(u NewUser) error {
	u.Password = strings.TrimSpace(u.Password)
	if err := validate.Struct(u); err != nil {
		return &classifier.ValidationFailure{Reason: classifier.ReasonMissingFields}
	}
	return nil
}

// Service implements the routing operations.
type Service struct {
	store   storage.Storage
	machine *statemachine.Machine
	auth    Authenticator
	hasher  auth.PasswordHasher
	logger  *slog.Logger
}

// New creates a Service.
func New(store storage.Storage, authenticator Authenticator, hasher auth.PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		machine: statemachine.New(store),
		auth:    authenticator,
		hasher:  hasher,
		logger:  logger,
	}
}

// CreateTransaction validates and persists a new Open transaction.
func (s *Service) CreateTransaction(ctx context.Context, req classifier.Fields, p models.Principal) (*models.Transaction, error) {
	if !canCreate(p) {
		return nil, ErrForbidden
	}
	tx, err := classifier.Classify(req)
	if err != nil {
		return nil, err
	}
	created, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, s.internal("create transaction", err)
	}
	s.logger.Info("transaction created",
		"id", created.ID,
		"type", created.TransactionType,
		"queues", routing.QueuesFor(created.TransactionType),
		"by", p.Username,
	)
	return created, nil
}

// CreateWithdrawal creates a Withdrawal without sub-type fields.
func (s *Service) CreateWithdrawal(ctx context.Context, req WithdrawalRequest, p models.Principal) (*models.Transaction, error) {
	return s.CreateTransaction(ctx, classifier.Fields{
		AccountNumber:   req.AccountNumber,
		Name:            req.Name,
		TransactionType: string(models.Withdrawal),
		Amount:          req.Amount,
		AccountType:     req.AccountType,
	}, p)
}

// ListQueue returns the live transactions routed to queue, newest first. Only
// administrators and the station that owns the queue may read it.
func (s *Service) ListQueue(ctx context.Context, queue string, p models.Principal) ([]models.Transaction, error) {
	q, err := routing.Lookup(queue)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if p.Role != models.RoleAdmin {
		own, ok := routing.ForStation(p.Station)
		if !ok || own.Name != q.Name {
			return nil, ErrForbidden
		}
	}

	rows, err := s.store.ListTransactions(ctx, q.Types)
	if err != nil {
		return nil, s.internal("list queue", err, "queue", q.Name)
	}
	return rows, nil
}

// ListAll returns every live transaction for the administrator display board.
func (s *Service) ListAll(ctx context.Context, p models.Principal) ([]models.Transaction, error) {
	if p.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	rows, err := s.store.ListTransactions(ctx, nil)
	if err != nil {
		return nil, s.internal("list all", err)
	}
	return rows, nil
}

// SetStatus moves a transaction to a new status. A non-administrator may only
// touch transactions routed to its own queue; the store enforces that in the
// same write that sets the status.
func (s *Service) SetStatus(ctx context.Context, id int64, status string, p models.Principal) (*models.Transaction, error) {
	if _, err := statemachine.ParseStatus(status); err != nil {
		return nil, err
	}

	var allowed []models.TransactionType
	if p.Role != models.RoleAdmin {
		own, ok := routing.ForStation(p.Station)
		if !ok {
			return nil, ErrForbidden
		}
		allowed = own.Types
	}

	tx, err := s.machine.SetStatusWithin(ctx, id, status, allowed)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrTypeNotAllowed):
			return nil, ErrForbidden
		}
		return nil, s.internal("set status", err, "id", id)
	}
	s.logger.Info("transaction status changed", "id", id, "status", tx.Status, "by", p.Username)
	return tx, nil
}

// UpdateDetails corrects a transaction that no teller has picked up yet.
func (s *Service) UpdateDetails(ctx context.Context, id int64, req classifier.Fields, p models.Principal) (*models.Transaction, error) {
	if !canCreate(p) {
		return nil, ErrForbidden
	}
	details, err := classifier.ClassifyDetails(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.UpdateDetails(ctx, id, *details)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrNotCorrectable):
			return nil, ErrNotCorrectable
		}
		return nil, s.internal("update details", err, "id", id)
	}
	return tx, nil
}

// SoftDelete hides a transaction from every queue. The row is kept.
func (s *Service) SoftDelete(ctx context.Context, id int64, p models.Principal) (*models.Transaction, error) {
	if !canCreate(p) {
		return nil, ErrForbidden
	}
	tx, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.internal("delete transaction", err, "id", id)
	}
	s.logger.Info("transaction deleted", "id", id, "by", p.Username)
	return tx, nil
}

// CreateUser hashes the password and stores a new account.
func (s *Service) CreateUser(ctx context.Context, req NewUser, p models.Principal) (*models.User, error) {
	if p.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	req = req.trimmed()
	if err := validateUser(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal("create user", err)
	}
	user, err := s.store.InsertUser(ctx, &models.User{
		Name:         req.Name,
		LastName:     req.LastName,
		Username:     req.Username,
		PasswordHash: hash,
		TellerNumber: req.TellerNumber,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, s.internal("create user", err)
	}
	return user, nil
}

// UpdateUser replaces every field of account id, password included.
func (s *Service) UpdateUser(ctx context.Context, id int64, req NewUser, p models.Principal) (*models.User, error) {
	if p.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	req = req.trimmed()
	if err := validateUser(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal("update user", err, "id", id)
	}
	user, err := s.store.UpdateUser(ctx, &models.User{
		ID:           id,
		Name:         req.Name,
		LastName:     req.LastName,
		Username:     req.Username,
		PasswordHash: hash,
		TellerNumber: req.TellerNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, storage.ErrDuplicateUsername):
			return nil, ErrDuplicateUsername
		}
		return nil, s.internal("update user", err, "id", id)
	}
	s.logger.Info("user updated", "id", user.ID, "username", user.Username, "by", p.Username)
	return user, nil
}

// IssueCredential signs a user in through the station or administrator entry point.
func (s *Service) IssueCredential(ctx context.Context, username, password, origin string, asAdmin bool) (string, models.Principal, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", models.Principal{}, &classifier.ValidationFailure{Reason: classifier.ReasonMissingFields}
	}

	issue := s.auth.Issue
	if asAdmin {
		issue = s.auth.IssueAdmin
	}
	token, principal, err := issue(ctx, strings.TrimSpace(username), password, origin)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrForbiddenOrigin) {
			return "", models.Principal{}, err
		}
		return "", models.Principal{}, s.internal("issue credential", err, "username", username)
	}
	s.logger.Info("credential issued", "username", principal.Username, "role", principal.Role, "station", principal.Station)
	return token, principal, nil
}

// VerifyCredential checks a credential and returns its principal.
func (s *Service) VerifyCredential(token string) (models.Principal, error) {
	return s.auth.Verify(token)
}

// internal logs err and returns ErrInternal.
func (s *Service) internal(op string, err error, attrs ...any) error {
	s.logger.Error("storage operation failed", append([]any{"op", op, "error", err}, attrs...)...)
	return ErrInternal
}

func canCreate(p models.Principal) bool {
	return p.Role == models.RoleComputerOperator || p.Role == models.RoleAdmin
}
