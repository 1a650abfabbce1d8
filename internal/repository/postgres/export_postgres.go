package postgres

import (
	"context"
	"database/sql"

	"exportapi/internal/model"
	"exportapi/internal/repository"
)

// ExportPostgres is a PostgreSQL implementation of repository.ExportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ExportPostgres struct {
	db *sql.DB
}

// NewExportPostgres creates a new ExportPostgres repository.
func NewExportPostgres(db *sql.DB) *ExportPostgres {
	return &ExportPostgres{db: db}
}

var _ repository.ExportRepository = (*ExportPostgres)(nil)

// The artifact_path column is NULL until an artifact is archived; it maps to
// an empty string on the model.

// Create inserts a new export row and returns the stored record.
func (r *ExportPostgres) Create(ctx context.Context, exp *model.Export) (*model.Export, error) {
	const q = `
		INSERT INTO exports (id, name, row_count, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, row_count, content_type, COALESCE(artifact_path, ''), artifact_size, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		exp.ID,
		exp.Name,
		exp.RowCount,
		exp.ContentType,
		exp.CreatedAt,
	)
	return scanExport(row)
}

// FindByID fetches a single export by its ID.
func (r *ExportPostgres) FindByID(ctx context.Context, id string) (*model.Export, error) {
	const q = `
		SELECT id, name, row_count, content_type, COALESCE(artifact_path, ''), artifact_size, created_at
		FROM exports
		WHERE id = $1
	`
	return scanExport(r.db.QueryRowContext(ctx, q, id))
}

// List returns exports using LIMIT/OFFSET pagination and a total count.
func (r *ExportPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Export], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM exports`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT id, name, row_count, content_type, COALESCE(artifact_path, ''), artifact_size, created_at
		FROM exports
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Export, 0)
	for rows.Next() {
		var e model.Export
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.RowCount,
			&e.ContentType,
			&e.ArtifactPath,
			&e.ArtifactSize,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Export]{
		Items: items,
		Total: total,
	}, nil
}

// SetArtifact records the artifact location for an export and returns the updated row.
func (r *ExportPostgres) SetArtifact(ctx context.Context, id, path string, size int64) (*model.Export, error) {
	const q = `
		UPDATE exports
		SET artifact_path = $2, artifact_size = $3
		WHERE id = $1
		RETURNING id, name, row_count, content_type, COALESCE(artifact_path, ''), artifact_size, created_at
	`
	return scanExport(r.db.QueryRowContext(ctx, q, id, path, size))
}

// Delete removes an export by ID. It does not return an error if the row does not exist.
func (r *ExportPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM exports WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Ignore rows affected; delete is idempotent at this layer.
	_, _ = res.RowsAffected()
	return nil
}

func scanExport(row *sql.Row) (*model.Export, error) {
	var e model.Export
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.RowCount,
		&e.ContentType,
		&e.ArtifactPath,
		&e.ArtifactSize,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
