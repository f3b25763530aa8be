package service

import (
	"context"

	"github.com/atinyakov/shortlink/internal/storage"
)

//go:generate mockgen -destination=../../mocks/mock_service.go -package=mocks github.com/atinyakov/shortlink/internal/app/service LinkServiceIface

// LinkServiceIface is what the HTTP and gRPC front ends call.
type LinkServiceIface interface {
	Shorten(ctx context.Context, originalURL string) (*storage.Link, bool, error)
	Resolve(ctx context.Context, id string) (string, error)
	PingContext(ctx context.Context) error
}

// Generator produces identifiers that are free in the store.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

// Writer accepts links for background insertion and answers lookups for
// the links it holds until they are written. Enqueue reports
// storage.ErrURLConflict or storage.ErrIDConflict against pending links.
type Writer interface {
	Enqueue(ctx context.Context, link storage.Link) error
	FindByID(ctx context.Context, id string) (*storage.Link, error)
	FindByOriginal(ctx context.Context, originalURL string) (*storage.Link, error)
}
