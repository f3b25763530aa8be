package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/storage"
)

// ErrUnsupportedDSN is returned by Open for an empty DSN or unknown scheme.
var ErrUnsupportedDSN = errors.New("unsupported database DSN")

// Open connects to the store described by dsn. The scheme selects the
// backend: postgres, mongodb, redis, file or memory. The returned store has
// already been pinged.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (storage.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDSN, err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		logger.Info("using postgres storage", zap.String("host", u.Host))
		db, err := InitDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return CreateURLRepository(db, logger), nil

	case "mongodb", "mongodb+srv":
		logger.Info("using mongo storage", zap.String("host", u.Host))
		return NewMongoRepository(ctx, dsn, logger)

	case "redis", "rediss":
		logger.Info("using redis storage", zap.String("host", u.Host))
		return NewRedisRepository(ctx, dsn, logger)

	case "file":
		path := u.Host + u.Path
		logger.Info("using file storage", zap.String("path", path))
		return storage.NewFileStorage(path, logger)

	case "memory":
		logger.Info("using in memory storage")
		return storage.CreateMemoryStorage(), nil

	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedDSN, u.Scheme)
	}
}
