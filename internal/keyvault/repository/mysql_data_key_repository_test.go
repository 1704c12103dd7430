package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

func TestMySQLDataKeyRepository_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLDataKeyRepository(db)
		dataKey := newTestDataKey()

		idBytes, err := dataKey.ID.MarshalBinary()
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO data_keys`).
			WithArgs(idBytes, dataKey.AltName, dataKey.EncryptedKey, dataKey.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Create(context.Background(), dataKey)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate entry maps to ErrDataKeyAlreadyExists", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLDataKeyRepository(db)
		dataKey := newTestDataKey()

		mock.ExpectExec(`INSERT INTO data_keys`).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := repo.Create(context.Background(), dataKey)

		assert.ErrorIs(t, err, keyvaultDomain.ErrDataKeyAlreadyExists)
	})
}

func TestMySQLDataKeyRepository_GetByAltName(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLDataKeyRepository(db)
		dataKey := newTestDataKey()

		idBytes, err := dataKey.ID.MarshalBinary()
		require.NoError(t, err)

		rows := sqlmock.NewRows([]string{"id", "alt_name", "encrypted_key", "created_at"}).
			AddRow(idBytes, dataKey.AltName, dataKey.EncryptedKey, dataKey.CreatedAt)
		mock.ExpectQuery(`SELECT id, alt_name, encrypted_key, created_at`).
			WithArgs(dataKey.AltName).
			WillReturnRows(rows)

		got, err := repo.GetByAltName(context.Background(), dataKey.AltName)

		require.NoError(t, err)
		assert.Equal(t, dataKey.ID, got.ID)
		assert.Equal(t, dataKey.AltName, got.AltName)
	})

	t.Run("No rows maps to ErrDataKeyNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLDataKeyRepository(db)

		mock.ExpectQuery(`SELECT id, alt_name, encrypted_key, created_at`).
			WithArgs("missing_key").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.GetByAltName(context.Background(), "missing_key")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, keyvaultDomain.ErrDataKeyNotFound)
	})
}
