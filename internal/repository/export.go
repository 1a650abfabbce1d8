package repository

import (
	"context"

	"exportapi/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// ExportRepository defines data access for export definitions using SQL queries only.
// No business logic here — strictly persistence operations.
type ExportRepository interface {
	// Create inserts a new export record.
	// The caller should provide required fields (e.g., ID, CreatedAt) according to the database schema defaults.
	// Returns the stored export (may include values set by the DB).
	Create(ctx context.Context, exp *model.Export) (*model.Export, error)

	// FindByID returns an export by its ID.
	FindByID(ctx context.Context, id string) (*model.Export, error)

	// List returns a paginated list of exports and total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Export], error)

	// SetArtifact records the storage path and size of a rendered artifact.
	// It returns sql.ErrNoRows if the export does not exist.
	SetArtifact(ctx context.Context, id, path string, size int64) (*model.Export, error)

	// Delete removes an export by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
