// Package service implements link creation and resolution on top of a
// storage.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/metrics"
	"github.com/atinyakov/shortlink/internal/storage"
)

// maxInsertRetries bounds regeneration after an identifier conflict on
// insert, which only happens when another writer took the id in between.
const maxInsertRetries = 3

// MaxURLLength bounds accepted URLs. Longer ones are rejected before any
// store is touched.
const MaxURLLength = 16 << 10

var (
	ErrEmptyURL   = errors.New("URL is required")
	ErrURLTooLong = fmt.Errorf("URL is longer than %d bytes", MaxURLLength)
)

type LinkService struct {
	store  storage.Store
	gen    Generator
	writer Writer
	logger *zap.Logger
}

type LinkServiceOption func(*LinkService)

// WithWriter hands new links to w instead of inserting them before
// Shorten returns.
func WithWriter(w Writer) LinkServiceOption {
	return func(s *LinkService) { s.writer = w }
}

func NewLinkService(store storage.Store, gen Generator, logger *zap.Logger, opts ...LinkServiceOption) *LinkService {
	s := &LinkService{
		store:  store,
		gen:    gen,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shorten returns the link for originalURL, creating it when the URL has
// not been seen. created reports whether a new record was made.
func (s *LinkService) Shorten(ctx context.Context, originalURL string) (*storage.Link, bool, error) {
	if originalURL == "" {
		return nil, false, ErrEmptyURL
	}
	if len(originalURL) > MaxURLLength {
		return nil, false, ErrURLTooLong
	}

	existing, err := s.findByOriginal(ctx, originalURL)
	if err == nil {
		metrics.LinksReused.Inc()
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("find by original: %w", err)
	}

	for try := 0; try < maxInsertRetries; try++ {
		id, err := s.gen.Generate(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("generate id: %w", err)
		}
		link := storage.Link{ID: id, OriginalURL: originalURL}

		err = s.insert(ctx, link)
		switch {
		case err == nil:
			s.logger.Debug("link created", zap.String("id", id), zap.String("url", originalURL), zap.Bool("queued", s.writer != nil))
			return &link, true, nil

		case errors.Is(err, storage.ErrURLConflict):
			// a concurrent request created it first
			winner, ferr := s.findByOriginal(ctx, originalURL)
			if ferr != nil {
				return nil, false, fmt.Errorf("find by original after conflict: %w", ferr)
			}
			metrics.LinksReused.Inc()
			return winner, false, nil

		case errors.Is(err, storage.ErrIDConflict):
			metrics.IDCollisions.Inc()
			s.logger.Warn("identifier taken on insert", zap.String("id", id))

		default:
			return nil, false, fmt.Errorf("insert link: %w", err)
		}
	}

	return nil, false, fmt.Errorf("insert link: %w", storage.ErrIDConflict)
}

func (s *LinkService) insert(ctx context.Context, link storage.Link) error {
	if s.writer != nil {
		return s.writer.Enqueue(ctx, link)
	}
	if err := s.store.Insert(ctx, link); err != nil {
		return err
	}
	metrics.LinksCreated.Inc()
	return nil
}

// findByOriginal looks at pending links before the store. A link leaves the
// pending index only after its write, so this order never misses it.
func (s *LinkService) findByOriginal(ctx context.Context, originalURL string) (*storage.Link, error) {
	if s.writer != nil {
		if link, err := s.writer.FindByOriginal(ctx, originalURL); err == nil {
			return link, nil
		}
	}
	return s.store.FindByOriginal(ctx, originalURL)
}

func (s *LinkService) findByID(ctx context.Context, id string) (*storage.Link, error) {
	if s.writer != nil {
		if link, err := s.writer.FindByID(ctx, id); err == nil {
			return link, nil
		}
	}
	return s.store.FindByID(ctx, id)
}

// Resolve returns the redirect target for id, or an error matching
// storage.ErrNotFound.
func (s *LinkService) Resolve(ctx context.Context, id string) (string, error) {
	link, err := s.findByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.Redirects.WithLabelValues("not_found").Inc()
			return "", err
		}
		metrics.Redirects.WithLabelValues("error").Inc()
		return "", fmt.Errorf("find by id: %w", err)
	}

	metrics.Redirects.WithLabelValues("found").Inc()
	return NormalizeTarget(link.OriginalURL), nil
}

func (s *LinkService) PingContext(ctx context.Context) error {
	return s.store.PingContext(ctx)
}

// NormalizeTarget prefixes http:// unless the URL already starts with
// http:// or https://, compared case-insensitively.
func NormalizeTarget(u string) string {
	if hasPrefixFold(u, "http://") || hasPrefixFold(u, "https://") {
		return u
	}
	return "http://" + u
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
