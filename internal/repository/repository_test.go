package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/storage"
)

// Helper to set up a mock DB and repository
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *URLRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := CreateURLRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestInsert(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO urls \(id, original_url, url_hash\) VALUES \(\$1, \$2, \$3\);`).
		WithArgs("abc1234", "https://example.com", urlHash("https://example.com")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), storage.Link{ID: "abc1234", OriginalURL: "https://example.com"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "original url taken", constraint: constraintURLHash, want: storage.ErrURLConflict},
		{name: "id taken", constraint: constraintID, want: storage.ErrIDConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, repo := setupMockDB(t)

			mock.ExpectExec(`INSERT INTO urls`).
				WithArgs("abc1234", "https://example.com", urlHash("https://example.com")).
				WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: tt.constraint})

			err := repo.Insert(context.Background(), storage.Link{ID: "abc1234", OriginalURL: "https://example.com"})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsert_OtherError(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO urls`).WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), storage.Link{ID: "abc1234", OriginalURL: "https://example.com"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrConflict))
}

func TestInsert_LongURL(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	long := "https://example.com/?utm=" + strings.Repeat("z", 8<<10)

	// only the fixed-size hash is indexed
	mock.ExpectExec(`INSERT INTO urls`).
		WithArgs("long001", long, urlHash(long)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Insert(context.Background(), storage.Link{ID: "long001", OriginalURL: long}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestURLHash(t *testing.T) {
	h := urlHash("https://example.com")
	assert.Len(t, h, 64)
	assert.Equal(t, h, urlHash("https://example.com"))
	assert.NotEqual(t, h, urlHash("https://example.com/"))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", urlHash(""))
}

func TestFindByID(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, original_url FROM urls WHERE id = \$1;`).
		WithArgs("abc1234").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_url"}).AddRow("abc1234", "https://example.com"))

	link, err := repo.FindByID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.OriginalURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, original_url FROM urls WHERE id = \$1;`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_url"}))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindByOriginal(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, original_url FROM urls WHERE url_hash = \$1 AND original_url = \$2;`).
		WithArgs(urlHash("https://example.com"), "https://example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_url"}).AddRow("abc1234", "https://example.com"))

	link, err := repo.FindByOriginal(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", link.ID)
}

func TestFindByOriginal_QueryError(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, original_url FROM urls WHERE url_hash = \$1`).
		WillReturnError(errors.New("boom"))

	_, err := repo.FindByOriginal(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}

func TestPingContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	repo := CreateURLRepository(db, zap.NewNop())

	mock.ExpectPing()
	assert.NoError(t, repo.PingContext(context.Background()))

	mock.ExpectClose()
	assert.NoError(t, repo.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
