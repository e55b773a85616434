package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FindUserByUsername retrieves a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `
        SELECT id, name, last_name, username, password, teller_number
        FROM users
        WHERE username = $1`
	err := s.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Name,
		&user.LastName,
		&user.Username,
		&user.PasswordHash,
		&user.TellerNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// InsertUser persists a new user. A taken username yields ErrDuplicateUsername.
func (s *Store) InsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	query := `
        INSERT INTO users (name, last_name, username, password, teller_number)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	err := s.db.QueryRow(ctx, query,
		user.Name,
		user.LastName,
		user.Username,
		user.PasswordHash,
		user.TellerNumber,
	).Scan(&created.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &created, nil
}

// UpdateUser rewrites the row with user.ID. A username held by another row
// yields ErrDuplicateUsername.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	updated := *user
	query := `
        UPDATE users SET name = $2, last_name = $3, username = $4, password = $5, teller_number = $6
        WHERE id = $1
        RETURNING id`
	err := s.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.LastName,
		user.Username,
		user.PasswordHash,
		user.TellerNumber,
	).Scan(&updated.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", user.ID, storage.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &updated, nil
}
