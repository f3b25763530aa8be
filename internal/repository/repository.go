// Package repository contains the networked link store backends
// (PostgreSQL, MongoDB, Redis) and Open, which picks a backend by DSN.
package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/storage"
)

const (
	constraintID      = "urls_id_key"
	constraintURLHash = "urls_url_hash_key"
)

// original_url is unique through its hash: a btree entry holds at most
// about 2.7 KB, far less than an accepted URL.
const createTable = `
	CREATE TABLE IF NOT EXISTS urls (
		uuid UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		id TEXT NOT NULL,
		original_url TEXT NOT NULL,
		url_hash TEXT NOT NULL,
		CONSTRAINT urls_id_key UNIQUE (id),
		CONSTRAINT urls_url_hash_key UNIQUE (url_hash)
	);`

// urlHash is the hex SHA-256 of the original URL.
func urlHash(originalURL string) string {
	sum := sha256.Sum256([]byte(originalURL))
	return hex.EncodeToString(sum[:])
}

// InitDB opens a pgx-backed *sql.DB, verifies the connection and makes sure
// the urls table exists.
func InitDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return db, nil
}

// URLRepository is the PostgreSQL link store.
type URLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func CreateURLRepository(db *sql.DB, logger *zap.Logger) *URLRepository {
	return &URLRepository{
		db:     db,
		logger: logger,
	}
}

func (r *URLRepository) Insert(ctx context.Context, link storage.Link) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO urls (id, original_url, url_hash) VALUES ($1, $2, $3);",
		link.ID, link.OriginalURL, urlHash(link.OriginalURL),
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if pgErr.ConstraintName == constraintURLHash {
			return storage.ErrURLConflict
		}
		return storage.ErrIDConflict
	}

	r.logger.Error("insert failed", zap.String("id", link.ID), zap.Error(err))
	return fmt.Errorf("insert link: %w", err)
}

func (r *URLRepository) FindByID(ctx context.Context, id string) (*storage.Link, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, original_url FROM urls WHERE id = $1;", id)
	return scanLink(row)
}

func (r *URLRepository) FindByOriginal(ctx context.Context, originalURL string) (*storage.Link, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, original_url FROM urls WHERE url_hash = $1 AND original_url = $2;",
		urlHash(originalURL), originalURL,
	)
	return scanLink(row)
}

func scanLink(row *sql.Row) (*storage.Link, error) {
	var link storage.Link
	if err := row.Scan(&link.ID, &link.OriginalURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}
	return &link, nil
}

func (r *URLRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *URLRepository) Close() error {
	return r.db.Close()
}
