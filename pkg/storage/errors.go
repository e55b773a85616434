package storage

import "errors"

// ErrNotFound is returned when no live row matches the requested ID or username.
var ErrNotFound = errors.New("not found")

// ErrNotCorrectable is returned when details are updated on a transaction that has
// already been picked up by a teller.
var ErrNotCorrectable = errors.New("transaction is no longer open for correction")

// ErrDuplicateUsername is returned when a user is inserted with a taken username.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrTypeNotAllowed is returned when a type-restricted write finds a live row
// of another transaction type.
var ErrTypeNotAllowed = errors.New("transaction type not allowed")
