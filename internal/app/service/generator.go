package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"strconv"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/metrics"
	"github.com/atinyakov/shortlink/internal/storage"
)

// ErrGeneratorExhausted is returned when no free identifier was found at
// any permitted length.
var ErrGeneratorExhausted = errors.New("identifier generator exhausted")

// Source produces a base58 candidate of at least length characters. Shorter
// results are discarded by the generator.
type Source func(length int) (string, error)

// BytesSource encodes length random bytes. The encoding of n bytes is never
// shorter than n characters.
func BytesSource(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}

// FloatSource encodes the decimal text of a random float. Few distinct
// prefixes come out of it, so collisions and escalations are frequent.
func FloatSource(_ int) (string, error) {
	return base58.Encode([]byte(strconv.FormatFloat(mrand.Float64(), 'f', -1, 64))), nil
}

// SourceByName maps the id_source option to a Source.
func SourceByName(name string) (Source, error) {
	switch name {
	case "bytes", "":
		return BytesSource, nil
	case "float":
		return FloatSource, nil
	default:
		return nil, fmt.Errorf("unknown identifier source %q", name)
	}
}

// IDFinder is the part of the store the generator needs.
type IDFinder interface {
	FindByID(ctx context.Context, id string) (*storage.Link, error)
}

type layeredFinder []IDFinder

// Layered looks an identifier up in each finder in turn. It is free only
// when every finder reports storage.ErrNotFound.
func Layered(finders ...IDFinder) IDFinder {
	return layeredFinder(finders)
}

func (l layeredFinder) FindByID(ctx context.Context, id string) (*storage.Link, error) {
	for _, f := range l {
		link, err := f.FindByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		return link, err
	}
	return nil, storage.ErrNotFound
}

// IDGenerator produces identifiers that are absent from the store. It
// tries a fixed number of candidates per length, then grows the length,
// and gives up after maxEscalations increases.
type IDGenerator struct {
	finder         IDFinder
	source         Source
	length         int
	attempts       int
	maxEscalations int
	logger         *zap.Logger
}

type GeneratorOption func(*IDGenerator)

func WithLength(n int) GeneratorOption {
	return func(g *IDGenerator) { g.length = n }
}

func WithAttempts(n int) GeneratorOption {
	return func(g *IDGenerator) { g.attempts = n }
}

func WithMaxEscalations(n int) GeneratorOption {
	return func(g *IDGenerator) { g.maxEscalations = n }
}

func WithSource(s Source) GeneratorOption {
	return func(g *IDGenerator) { g.source = s }
}

func NewIDGenerator(finder IDFinder, logger *zap.Logger, opts ...GeneratorOption) *IDGenerator {
	g := &IDGenerator{
		finder:         finder,
		source:         BytesSource,
		length:         7,
		attempts:       10,
		maxEscalations: 8,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a free identifier. Store errors other than ErrNotFound
// abort generation.
func (g *IDGenerator) Generate(ctx context.Context) (string, error) {
	length := g.length

	for escalation := 0; ; escalation++ {
		for attempt := 0; attempt < g.attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			candidate, err := g.source(length)
			if err != nil {
				return "", fmt.Errorf("generate candidate: %w", err)
			}
			if len(candidate) < length {
				continue
			}
			candidate = candidate[:length]

			_, err = g.finder.FindByID(ctx, candidate)
			if errors.Is(err, storage.ErrNotFound) {
				return candidate, nil
			}
			if err != nil {
				return "", fmt.Errorf("check identifier: %w", err)
			}

			metrics.IDCollisions.Inc()
			g.logger.Debug("identifier collision", zap.String("id", candidate), zap.Int("attempt", attempt+1))
		}

		if escalation >= g.maxEscalations {
			return "", ErrGeneratorExhausted
		}

		length++
		metrics.IDEscalations.Inc()
		g.logger.Info("increasing identifier length", zap.Int("length", length))
	}
}
