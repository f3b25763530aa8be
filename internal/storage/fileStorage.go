package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStorage appends links to a JSON-lines file and serves lookups from an
// in-memory index rebuilt at open.
type FileStorage struct {
	index  *MemoryStorage
	file   *os.File
	logger *zap.Logger
}

func NewFileStorage(p string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0770); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660)
	if err != nil {
		return nil, err
	}

	fs := &FileStorage{
		index:  CreateMemoryStorage(),
		file:   file,
		logger: logger,
	}

	if err := fs.load(); err != nil {
		file.Close()
		return nil, err
	}

	logger.Info("file storage loaded", zap.String("path", p), zap.Int("links", fs.index.Len()))
	return fs, nil
}

func (fs *FileStorage) load() error {
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	// a decoder has no line length limit, records are as long as their URL
	dec := json.NewDecoder(fs.file)
	for record := 1; ; record++ {
		var r fileRecord
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse record %d: %w", record, err)
		}
		if err := fs.index.put(Link{ID: r.ID, OriginalURL: r.OriginalURL}); err != nil {
			fs.logger.Warn("skipping duplicate record", zap.Int("record", record), zap.Error(err))
		}
	}
}

func (fs *FileStorage) FindByID(ctx context.Context, id string) (*Link, error) {
	return fs.index.FindByID(ctx, id)
}

func (fs *FileStorage) FindByOriginal(ctx context.Context, originalURL string) (*Link, error) {
	return fs.index.FindByOriginal(ctx, originalURL)
}

// Insert writes the line first and indexes the link only when the write
// succeeded, under the index write lock so conflicts are checked atomically.
func (fs *FileStorage) Insert(_ context.Context, link Link) error {
	fs.index.mu.Lock()
	defer fs.index.mu.Unlock()

	if _, ok := fs.index.stol[link.ID]; ok {
		return ErrIDConflict
	}
	if _, ok := fs.index.ltos[link.OriginalURL]; ok {
		return ErrURLConflict
	}

	b, err := json.Marshal(fileRecord{
		UUID:        uuid.NewString(),
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
	})
	if err != nil {
		return err
	}

	if _, err := fs.file.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write link: %w", err)
	}

	return fs.index.put(link)
}

func (fs *FileStorage) PingContext(context.Context) error {
	_, err := fs.file.Stat()
	return err
}

func (fs *FileStorage) Close() error {
	return fs.file.Close()
}
