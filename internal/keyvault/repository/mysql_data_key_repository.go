package repository

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"

	"github.com/allisson/phivault/internal/database"
	apperrors "github.com/allisson/phivault/internal/errors"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// MySQLDataKeyRepository implements DataKey persistence for MySQL databases.
type MySQLDataKeyRepository struct {
	db *sql.DB
}

// Create inserts a new data key. Returns ErrDataKeyAlreadyExists if a key
// with the same alt name already exists.
func (m *MySQLDataKeyRepository) Create(
	ctx context.Context,
	dataKey *keyvaultDomain.DataKey,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO data_keys (id, alt_name, encrypted_key, created_at)
			  VALUES (?, ?, ?, ?)`

	id, err := dataKey.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal data key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		dataKey.AltName,
		dataKey.EncryptedKey,
		dataKey.CreatedAt,
	)
	if err != nil {
		// Check for duplicate entry error (MySQL error number 1062)
		var mysqlErr *mysql.MySQLError
		if apperrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return keyvaultDomain.ErrDataKeyAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create data key")
	}
	return nil
}

// GetByAltName retrieves a data key by its alternate name.
func (m *MySQLDataKeyRepository) GetByAltName(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, alt_name, encrypted_key, created_at
			  FROM data_keys
			  WHERE alt_name = ?
			  LIMIT 1`

	var dataKey keyvaultDomain.DataKey
	var idBytes []byte

	err := querier.QueryRowContext(ctx, query, altName).Scan(
		&idBytes,
		&dataKey.AltName,
		&dataKey.EncryptedKey,
		&dataKey.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, keyvaultDomain.ErrDataKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get data key by alt name")
	}

	if err := dataKey.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal data key id")
	}

	return &dataKey, nil
}

// NewMySQLDataKeyRepository creates a new MySQL DataKey repository instance.
func NewMySQLDataKeyRepository(db *sql.DB) *MySQLDataKeyRepository {
	return &MySQLDataKeyRepository{db: db}
}
