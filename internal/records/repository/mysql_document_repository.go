package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/phivault/internal/database"
	apperrors "github.com/allisson/phivault/internal/errors"
	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// MySQLDocumentRepository implements document persistence for MySQL using a
// JSON payload column.
type MySQLDocumentRepository struct {
	db *sql.DB
}

// Put upserts a document by (entity kind, id).
func (m *MySQLDocumentRepository) Put(
	ctx context.Context,
	doc *recordsDomain.Document,
) error {
	querier := database.GetTx(ctx, m.db)

	data, err := json.Marshal(doc.Data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document data")
	}

	query := `INSERT INTO documents (id, entity_kind, data, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`

	_, err = querier.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.EntityKind,
		data,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to put document")
	}
	return nil
}

// Get retrieves a document by entity kind and id.
func (m *MySQLDocumentRepository) Get(
	ctx context.Context,
	entityKind, id string,
) (*recordsDomain.Document, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, entity_kind, data, created_at, updated_at
			  FROM documents
			  WHERE entity_kind = ? AND id = ?
			  LIMIT 1`

	return scanDocument(querier.QueryRowContext(ctx, query, entityKind, id))
}

// FindByField retrieves documents whose stored field equals the given storage
// value, extracting the field as unquoted JSON text.
func (m *MySQLDocumentRepository) FindByField(
	ctx context.Context,
	entityKind, fieldName string,
	storageValue string,
) ([]*recordsDomain.Document, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, entity_kind, data, created_at, updated_at
			  FROM documents
			  WHERE entity_kind = ?
			    AND JSON_UNQUOTE(JSON_EXTRACT(data, CONCAT('$."', ?, '"'))) = ?
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, entityKind, fieldName, storageValue)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find documents by field")
	}
	defer func() { _ = rows.Close() }()

	return collectDocuments(rows)
}

// NewMySQLDocumentRepository creates a new MySQL document repository instance.
func NewMySQLDocumentRepository(db *sql.DB) *MySQLDocumentRepository {
	return &MySQLDocumentRepository{db: db}
}
