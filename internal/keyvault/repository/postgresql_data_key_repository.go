// Package repository implements data key persistence for the key vault.
// Repositories support both PostgreSQL and MySQL; the backing table carries a
// uniqueness constraint on alt_name, which is the single synchronization
// point of the whole subsystem.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/allisson/phivault/internal/database"
	apperrors "github.com/allisson/phivault/internal/errors"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// PostgreSQLDataKeyRepository implements DataKey persistence for PostgreSQL databases.
type PostgreSQLDataKeyRepository struct {
	db *sql.DB
}

// Create inserts a new data key. Returns ErrDataKeyAlreadyExists if a key
// with the same alt name already exists; callers resolve the race by
// re-reading instead of failing.
func (p *PostgreSQLDataKeyRepository) Create(
	ctx context.Context,
	dataKey *keyvaultDomain.DataKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO data_keys (id, alt_name, encrypted_key, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(
		ctx,
		query,
		dataKey.ID,
		dataKey.AltName,
		dataKey.EncryptedKey,
		dataKey.CreatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return keyvaultDomain.ErrDataKeyAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create data key")
	}
	return nil
}

// GetByAltName retrieves a data key by its alternate name.
func (p *PostgreSQLDataKeyRepository) GetByAltName(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, alt_name, encrypted_key, created_at
			  FROM data_keys
			  WHERE alt_name = $1
			  LIMIT 1`

	var dataKey keyvaultDomain.DataKey
	err := querier.QueryRowContext(ctx, query, altName).Scan(
		&dataKey.ID,
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

	return &dataKey, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

// NewPostgreSQLDataKeyRepository creates a new PostgreSQL DataKey repository instance.
func NewPostgreSQLDataKeyRepository(db *sql.DB) *PostgreSQLDataKeyRepository {
	return &PostgreSQLDataKeyRepository{db: db}
}
