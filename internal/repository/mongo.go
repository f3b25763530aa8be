package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/storage"
)

const (
	defaultMongoDatabase = "shortener"
	mongoIDIndex         = "id_unique"
	mongoURLIndex        = "originalUrl_unique"
)

// MongoRepository stores links as {id, originalUrl} documents in the urls
// collection. Unique indexes back both invariants.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoRepository(ctx context.Context, uri string, logger *zap.Logger) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(mongoDatabase(uri)).Collection(storage.Collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoIDIndex),
		},
		{
			Keys:    bson.D{{Key: "originalUrl", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoURLIndex),
		},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, indexError(err)
	}

	return &MongoRepository{
		client: client,
		coll:   coll,
		logger: logger,
	}, nil
}

// mongoDatabase takes the database name from the URI path.
func mongoDatabase(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*storage.Link, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoRepository) FindByOriginal(ctx context.Context, originalURL string) (*storage.Link, error) {
	return r.findOne(ctx, bson.M{"originalUrl": originalURL})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*storage.Link, error) {
	var link storage.Link
	if err := r.coll.FindOne(ctx, filter).Decode(&link); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find link: %w", err)
	}
	return &link, nil
}

func (r *MongoRepository) Insert(ctx context.Context, link storage.Link) error {
	_, err := r.coll.InsertOne(ctx, link)
	if err != nil {
		if cerr := mongoConflict(err); cerr != nil {
			return cerr
		}
		r.logger.Error("insert failed", zap.String("id", link.ID), zap.Error(err))
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// indexError explains the duplicate key failure of a collection written
// before the unique indexes existed.
func indexError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("create mongo indexes: %s holds duplicate links, remove them and restart: %w", storage.Collection, err)
	}
	return fmt.Errorf("create mongo indexes: %w", err)
}

// mongoConflict maps a duplicate key error to the storage conflict matching
// the violated index, or returns nil for any other error.
func mongoConflict(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), mongoURLIndex) {
		return storage.ErrURLConflict
	}
	return storage.ErrIDConflict
}

func (r *MongoRepository) PingContext(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
