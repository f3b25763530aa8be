package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/storage"
)

func TestMongoConflict(t *testing.T) {
	dup := func(index string) error {
		return mongo.WriteException{
			WriteErrors: mongo.WriteErrors{{
				Code:    11000,
				Message: "E11000 duplicate key error collection: shortener.urls index: " + index + " dup key",
			}},
		}
	}

	assert.ErrorIs(t, mongoConflict(dup(mongoURLIndex)), storage.ErrURLConflict)
	assert.ErrorIs(t, mongoConflict(dup(mongoIDIndex)), storage.ErrIDConflict)
	assert.NoError(t, mongoConflict(errors.New("socket closed")))
}

func TestIndexError(t *testing.T) {
	dup := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error collection: shortener.urls index: " + mongoURLIndex}
	err := indexError(dup)
	assert.Contains(t, err.Error(), "duplicate links")
	assert.ErrorAs(t, err, &mongo.CommandError{})

	err = indexError(errors.New("not primary"))
	assert.NotContains(t, err.Error(), "duplicate links")
}

func TestMongoDatabase(t *testing.T) {
	assert.Equal(t, "links", mongoDatabase("mongodb://localhost:27017/links"))
	assert.Equal(t, defaultMongoDatabase, mongoDatabase("mongodb://localhost:27017"))
	assert.Equal(t, defaultMongoDatabase, mongoDatabase("mongodb://localhost:27017/"))
}

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TEST_MONGO_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoRepository(ctx, uri, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()
	defer repo.coll.Drop(context.Background())

	link := storage.Link{ID: "mongo01", OriginalURL: "https://mongo.example"}
	require.NoError(t, repo.Insert(ctx, link))

	found, err := repo.FindByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, link, *found)

	found, err = repo.FindByOriginal(ctx, link.OriginalURL)
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)

	assert.ErrorIs(t, repo.Insert(ctx, storage.Link{ID: "mongo02", OriginalURL: link.OriginalURL}), storage.ErrURLConflict)
	assert.ErrorIs(t, repo.Insert(ctx, storage.Link{ID: link.ID, OriginalURL: "https://other.example"}), storage.ErrIDConflict)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
