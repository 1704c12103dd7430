package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestDocument() *recordsDomain.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return &recordsDomain.Document{
		ID:         "patient-1",
		EntityKind: recordsDomain.EntityKindPatient,
		Data: recordsDomain.StorageDocument{
			"id":    "patient-1",
			"email": "pv1:aes-gcm-deterministic:hipaa_encryption_key:bm9uY2U=:Y2lwaGVy",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgreSQLDocumentRepository_Put(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)
		doc := newTestDocument()

		data, err := json.Marshal(doc.Data)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO documents`).
			WithArgs(doc.ID, doc.EntityKind, data, doc.CreatedAt, doc.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Put(context.Background(), doc)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error propagates", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectExec(`INSERT INTO documents`).WillReturnError(assert.AnError)

		err := repo.Put(context.Background(), newTestDocument())
		assert.Error(t, err)
	})
}

func TestPostgreSQLDocumentRepository_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)
		doc := newTestDocument()

		data, err := json.Marshal(doc.Data)
		require.NoError(t, err)

		rows := sqlmock.NewRows([]string{"id", "entity_kind", "data", "created_at", "updated_at"}).
			AddRow(doc.ID, doc.EntityKind, data, doc.CreatedAt, doc.UpdatedAt)
		mock.ExpectQuery(`SELECT id, entity_kind, data, created_at, updated_at`).
			WithArgs(doc.EntityKind, doc.ID).
			WillReturnRows(rows)

		got, err := repo.Get(context.Background(), doc.EntityKind, doc.ID)

		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, doc.Data["email"], got.Data["email"])
	})

	t.Run("No rows maps to ErrRecordNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		mock.ExpectQuery(`SELECT id, entity_kind, data, created_at, updated_at`).
			WithArgs(recordsDomain.EntityKindPatient, "missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.Get(context.Background(), recordsDomain.EntityKindPatient, "missing")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, recordsDomain.ErrRecordNotFound)
	})
}

func TestPostgreSQLDocumentRepository_FindByField(t *testing.T) {
	t.Run("Returns matching documents", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)
		doc := newTestDocument()

		data, err := json.Marshal(doc.Data)
		require.NoError(t, err)

		probe := doc.Data["email"].(string)
		rows := sqlmock.NewRows([]string{"id", "entity_kind", "data", "created_at", "updated_at"}).
			AddRow(doc.ID, doc.EntityKind, data, doc.CreatedAt, doc.UpdatedAt)
		mock.ExpectQuery(`SELECT id, entity_kind, data, created_at, updated_at`).
			WithArgs(doc.EntityKind, "email", probe).
			WillReturnRows(rows)

		docs, err := repo.FindByField(context.Background(), doc.EntityKind, "email", probe)

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, doc.ID, docs[0].ID)
	})

	t.Run("No matches yields empty slice", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLDocumentRepository(db)

		rows := sqlmock.NewRows([]string{"id", "entity_kind", "data", "created_at", "updated_at"})
		mock.ExpectQuery(`SELECT id, entity_kind, data, created_at, updated_at`).
			WillReturnRows(rows)

		docs, err := repo.FindByField(context.Background(),
			recordsDomain.EntityKindPatient, "email", "probe")

		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
