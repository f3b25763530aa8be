// Package storage defines the link store contract shared by every backend
// and provides the in-process implementations (memory and JSON-lines file).
package storage

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks github.com/atinyakov/shortlink/internal/storage Store

// Collection is the fixed name of the link collection (table, Mongo
// collection, Redis key prefix).
const Collection = "urls"

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("not found")

	// ErrConflict is the common parent of the uniqueness violations below.
	ErrConflict = errors.New("data conflict")

	// ErrIDConflict means the identifier is already taken by another record.
	ErrIDConflict = &conflictError{field: "id"}

	// ErrURLConflict means the original URL has already been shortened.
	ErrURLConflict = &conflictError{field: "original_url"}
)

type conflictError struct {
	field string
}

func (e *conflictError) Error() string {
	return "data conflict on " + e.field
}

// Is lets errors.Is(err, ErrConflict) match both conflict kinds.
func (e *conflictError) Is(target error) bool {
	return target == ErrConflict
}

// Store is a persistent mapping from short identifier to original URL.
type Store interface {
	// FindByID returns the record with the given identifier or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Link, error)
	// FindByOriginal returns the record for the original URL or ErrNotFound.
	FindByOriginal(ctx context.Context, originalURL string) (*Link, error)
	// Insert stores a new record. It returns ErrIDConflict or ErrURLConflict
	// when a uniqueness constraint would be violated.
	Insert(ctx context.Context, link Link) error
	// PingContext checks that the backend is reachable.
	PingContext(ctx context.Context) error
	// Close releases the backend resources.
	Close() error
}
