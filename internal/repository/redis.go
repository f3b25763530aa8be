package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/storage"
)

// RedisRepository keeps two keys per link, urls:id:<id> and urls:url:<url>,
// both written with SETNX so neither side can be overwritten.
type RedisRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisRepository(ctx context.Context, dsn string, logger *zap.Logger) (*RedisRepository, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRepository{
		client: client,
		logger: logger,
	}, nil
}

func idKey(id string) string {
	return storage.Collection + ":id:" + id
}

func urlKey(originalURL string) string {
	return storage.Collection + ":url:" + originalURL
}

func (r *RedisRepository) FindByID(ctx context.Context, id string) (*storage.Link, error) {
	originalURL, err := r.client.Get(ctx, idKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &storage.Link{ID: id, OriginalURL: originalURL}, nil
}

func (r *RedisRepository) FindByOriginal(ctx context.Context, originalURL string) (*storage.Link, error) {
	id, err := r.client.Get(ctx, urlKey(originalURL)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &storage.Link{ID: id, OriginalURL: originalURL}, nil
}

func (r *RedisRepository) Insert(ctx context.Context, link storage.Link) error {
	ok, err := r.client.SetNX(ctx, idKey(link.ID), link.OriginalURL, 0).Result()
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	if !ok {
		return storage.ErrIDConflict
	}

	ok, err = r.client.SetNX(ctx, urlKey(link.OriginalURL), link.ID, 0).Result()
	if err == nil && ok {
		return nil
	}

	// roll back the id key so the identifier is free again
	if delErr := r.client.Del(ctx, idKey(link.ID)).Err(); delErr != nil {
		r.logger.Error("rollback of id key failed", zap.String("id", link.ID), zap.Error(delErr))
	}
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return storage.ErrURLConflict
}

func (r *RedisRepository) PingContext(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
