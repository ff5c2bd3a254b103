package storage

import (
	"context"
	"testing"
	"time"

	"paper-hub/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), GormConfig())
	require.NoError(t, err)

	return &PostgresStore{DB: db, Path: "paper-library.json", Timeout: time.Second, Logger: zap.NewNop()}, mock
}

func TestPostgresStoreFetch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := sqlmock.NewRows([]string{"path", "content", "version", "last_message", "updated_at"}).
		AddRow("paper-library.json", `[{"id":"p1","title":"T","type":"arxiv","arxivId":"1706.03762","addedBy":"a","addedAt":"2024-01-01T00:00:00Z","tags":[],"comments":[]}]`, 7, "m", time.Now())
	mock.ExpectQuery(`SELECT \* FROM "library_documents" WHERE path = \$1`).WillReturnRows(rows)

	snap, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Version("7"), snap.Version)
	require.Len(t, snap.Library, 1)
	assert.Equal(t, "1706.03762", snap.Library[0].ExternalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreFetchNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT \* FROM "library_documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"path", "content", "version"}))

	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO "library_documents"`).WillReturnResult(sqlmock.NewResult(0, 1))

	v, err := s.Write(context.Background(), models.Library{}, NoVersion, "create")
	require.NoError(t, err)
	assert.Equal(t, Version("1"), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateExistingConflicts(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO "library_documents"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := s.Write(context.Background(), models.Library{}, NoVersion, "create")
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`UPDATE "library_documents" SET .* WHERE path = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v, err := s.Write(context.Background(), models.Library{{ID: "x"}}, "3", "update")
	require.NoError(t, err)
	assert.Equal(t, Version("4"), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreStaleVersionConflicts(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`UPDATE "library_documents"`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.Write(context.Background(), models.Library{}, "3", "update")
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = s.Write(context.Background(), models.Library{}, "not-a-number", "update")
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDriverErrorIsStoreError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`UPDATE "library_documents"`).WillReturnError(assert.AnError)

	_, err := s.Write(context.Background(), models.Library{}, "3", "update")
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, assert.AnError)
}
