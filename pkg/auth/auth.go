// Package auth issues and verifies the signed credentials that carry a
// caller's role and station.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/routing"
	"github.com/chris/teller-queue/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTTL is how long a credential stays valid. There is no refresh.
	DefaultTTL = 5 * time.Hour

	// DefaultAdminTellerNumber marks administrator accounts.
	DefaultAdminTellerNumber = 99
)

var (
	// ErrInvalidCredentials is returned when the username or password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrForbiddenOrigin is returned when an account uses the wrong entry point:
	// an administrator through the station login, or a station account through
	// the administrator login.
	ErrForbiddenOrigin = errors.New("account not allowed through this entry point")

	// ErrInvalidOrExpiredCredential is returned by Verify for any bad token.
	ErrInvalidOrExpiredCredential = errors.New("invalid or expired credential")
)

// UserFinder looks up accounts by username.
type UserFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// StationResolver maps a network origin to a station number.
type StationResolver interface {
	Resolve(origin string) (int, bool)
}

// Config holds the issuer settings. Secret is required.
type Config struct {
	Secret            []byte
	TTL               time.Duration
	AdminTellerNumber int
	Now               func() time.Time
}

// Issuer issues and verifies credentials.
type Issuer struct {
	users       UserFinder
	resolver    StationResolver
	hasher      PasswordHasher
	secret      []byte
	ttl         time.Duration
	adminTeller int
	now         func() time.Time
	logger      *slog.Logger
}

// claims is the credential payload. tellerNumber is read by the display client.
type claims struct {
	Role         models.Role `json:"role"`
	TellerNumber int         `json:"tellerNumber"`
	jwt.RegisteredClaims
}

// NewIssuer creates an Issuer. Zero TTL and admin marker fall back to the defaults.
func NewIssuer(users UserFinder, resolver StationResolver, hasher PasswordHasher, cfg Config, logger *slog.Logger) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.AdminTellerNumber == 0 {
		cfg.AdminTellerNumber = DefaultAdminTellerNumber
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Issuer{
		users:       users,
		resolver:    resolver,
		hasher:      hasher,
		secret:      cfg.Secret,
		ttl:         cfg.TTL,
		adminTeller: cfg.AdminTellerNumber,
		now:         cfg.Now,
		logger:      logger,
	}, nil
}

// Issue signs in a station account. The role and station come from the caller's
// origin: stations 1-4 are tellers, station 5 is the computer operator. An
// unknown origin still signs in, as a teller with no station and so no queue.
func (i *Issuer) Issue(ctx context.Context, username, password, origin string) (string, models.Principal, error) {
	user, err := i.authenticate(ctx, username, password, origin)
	if err != nil {
		return "", models.Principal{}, err
	}
	if user.TellerNumber == i.adminTeller {
		i.logger.Warn("administrator used station login", "username", username, "origin", origin)
		return "", models.Principal{}, ErrForbiddenOrigin
	}

	role := models.RoleTeller
	station, ok := i.resolver.Resolve(origin)
	switch {
	case !ok:
		i.logger.Warn("login from unknown origin", "username", username, "origin", origin)
		station = 0
	case station == routing.OperatorStation:
		role = models.RoleComputerOperator
	}

	return i.sign(username, role, station)
}

// IssueAdmin signs in an administrator account. Any other account is refused.
func (i *Issuer) IssueAdmin(ctx context.Context, username, password, origin string) (string, models.Principal, error) {
	user, err := i.authenticate(ctx, username, password, origin)
	if err != nil {
		return "", models.Principal{}, err
	}
	if user.TellerNumber != i.adminTeller {
		i.logger.Warn("station account used administrator login", "username", username, "origin", origin)
		return "", models.Principal{}, ErrForbiddenOrigin
	}
	return i.sign(username, models.RoleAdmin, 0)
}

// Verify checks the signature, algorithm and expiry of token.
func (i *Issuer) Verify(token string) (models.Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	var c claims
	_, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidOrExpiredCredential, err)
	}

	switch c.Role {
	case models.RoleTeller, models.RoleComputerOperator, models.RoleAdmin:
	default:
		return models.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidOrExpiredCredential, c.Role)
	}

	p := models.Principal{
		Username: c.Subject,
		Role:     c.Role,
		Station:  c.TellerNumber,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	p.ExpiresAt = c.ExpiresAt.Time
	return p, nil
}

func (i *Issuer) authenticate(ctx context.Context, username, password, origin string) (*models.User, error) {
	user, err := i.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			i.logger.Warn("login rejected", "username", username, "origin", origin, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := i.hasher.Compare(user.PasswordHash, password); err != nil {
		i.logger.Warn("login rejected", "username", username, "origin", origin, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (i *Issuer) sign(username string, role models.Role, station int) (string, models.Principal, error) {
	issuedAt := jwt.NewNumericDate(i.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(i.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:         role,
		TellerNumber: station,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", models.Principal{}, fmt.Errorf("failed to sign credential: %w", err)
	}

	return signed, models.Principal{
		Username:  username,
		Role:      role,
		Station:   station,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}
