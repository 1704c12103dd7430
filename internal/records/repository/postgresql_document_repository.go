// Package repository implements document persistence for PHI records.
// Documents are stored as JSON, one row per (entity kind, id); the codec owns
// the shape of the JSON payload, repositories only move it.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/phivault/internal/database"
	apperrors "github.com/allisson/phivault/internal/errors"
	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// PostgreSQLDocumentRepository implements document persistence for PostgreSQL
// using a JSONB payload column.
type PostgreSQLDocumentRepository struct {
	db *sql.DB
}

// Put upserts a document by (entity kind, id).
func (p *PostgreSQLDocumentRepository) Put(
	ctx context.Context,
	doc *recordsDomain.Document,
) error {
	querier := database.GetTx(ctx, p.db)

	data, err := json.Marshal(doc.Data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document data")
	}

	query := `INSERT INTO documents (id, entity_kind, data, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (entity_kind, id)
			  DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

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
func (p *PostgreSQLDocumentRepository) Get(
	ctx context.Context,
	entityKind, id string,
) (*recordsDomain.Document, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, entity_kind, data, created_at, updated_at
			  FROM documents
			  WHERE entity_kind = $1 AND id = $2
			  LIMIT 1`

	return scanDocument(querier.QueryRowContext(ctx, query, entityKind, id))
}

// FindByField retrieves documents whose stored field equals the given storage
// value. The value is compared as text, which is how deterministic cipher
// values are matched.
func (p *PostgreSQLDocumentRepository) FindByField(
	ctx context.Context,
	entityKind, fieldName string,
	storageValue string,
) ([]*recordsDomain.Document, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, entity_kind, data, created_at, updated_at
			  FROM documents
			  WHERE entity_kind = $1 AND data->>$2 = $3
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, entityKind, fieldName, storageValue)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find documents by field")
	}
	defer func() { _ = rows.Close() }()

	return collectDocuments(rows)
}

// NewPostgreSQLDocumentRepository creates a new PostgreSQL document repository
// instance.
func NewPostgreSQLDocumentRepository(db *sql.DB) *PostgreSQLDocumentRepository {
	return &PostgreSQLDocumentRepository{db: db}
}

// scanDocument scans one row into a document, mapping sql.ErrNoRows to
// ErrRecordNotFound.
func scanDocument(row *sql.Row) (*recordsDomain.Document, error) {
	var doc recordsDomain.Document
	var data []byte

	err := row.Scan(&doc.ID, &doc.EntityKind, &data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, recordsDomain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get document")
	}

	if err := json.Unmarshal(data, &doc.Data); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document data")
	}
	return &doc, nil
}

// collectDocuments drains a result set into documents.
func collectDocuments(rows *sql.Rows) ([]*recordsDomain.Document, error) {
	var docs []*recordsDomain.Document
	for rows.Next() {
		var doc recordsDomain.Document
		var data []byte

		if err := rows.Scan(&doc.ID, &doc.EntityKind, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document")
		}
		if err := json.Unmarshal(data, &doc.Data); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal document data")
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate documents")
	}
	return docs, nil
}
