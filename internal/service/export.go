package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"exportapi/internal/config"
	"exportapi/internal/export"
	"exportapi/internal/model"
	"exportapi/internal/repository"
	"exportapi/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNameRequired = errors.New("name is required")
	ErrNotFound     = errors.New("export not found")
	ErrNoArtifact   = errors.New("export has no archived artifact")
)

// csvContentType is the content type of every generated export.
const csvContentType = "text/csv"

// ExportListResult is the service-level DTO for paginated exports.
type ExportListResult struct {
	Items []model.Export `json:"data"`
	Total int            `json:"total"`
}

// ExportService defines the use cases for handling CSV exports.
type ExportService interface {
	// Create registers a new export definition. A non-positive rows falls back
	// to the configured default; values above the configured maximum are clamped.
	Create(ctx context.Context, name string, rows int64) (*model.Export, error)

	// Get returns a single export by its ID.
	Get(ctx context.Context, id string) (*model.Export, error)

	// List returns exports using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ExportListResult, error)

	// Delete removes an export by ID, including its archived artifact when one exists.
	Delete(ctx context.Context, id string) error

	// Render materializes the export's entire CSV body in memory.
	// This is the buffered download path: the caller gets the complete body
	// and can advertise its exact length.
	Render(ctx context.Context, id string) (*model.Export, []byte, error)

	// Open returns a lazy chunk source over the export's CSV body.
	// This is the streaming download path: nothing is generated until the
	// consumer pulls the next chunk.
	Open(ctx context.Context, id string) (*model.Export, export.Source, error)

	// Archive renders the export into object storage and records the artifact
	// location, rolling back the stored object if the DB update fails.
	Archive(ctx context.Context, id string) (*model.Export, error)

	// OpenArtifact returns a streaming reader over the archived artifact.
	OpenArtifact(ctx context.Context, id string) (*model.Export, io.ReadCloser, storage.ObjectInfo, error)
}

// exportService is a concrete implementation of ExportService.
type exportService struct {
	store storage.Storage
	repo  repository.ExportRepository
	cfg   config.ExportConfig
}

// NewExportService constructs a new ExportService.
func NewExportService(store storage.Storage, repo repository.ExportRepository, cfg config.ExportConfig) ExportService {
	return &exportService{store: store, repo: repo, cfg: cfg}
}

func (s *exportService) Create(ctx context.Context, name string, rows int64) (*model.Export, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if rows <= 0 {
		rows = s.cfg.DefaultRows
	}
	if s.cfg.MaxRows > 0 && rows > s.cfg.MaxRows {
		rows = s.cfg.MaxRows
	}

	exp := &model.Export{
		ID:          uuid.New().String(),
		Name:        name,
		RowCount:    rows,
		ContentType: csvContentType,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, exp)
	if err != nil {
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// Get returns an export by ID.
func (s *exportService) Get(ctx context.Context, id string) (*model.Export, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	exp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return exp, nil
}

// List returns paginated exports without exposing repository types.
func (s *exportService) List(ctx context.Context, limit, offset int) (*ExportListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ExportListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes an export's artifact from storage (when present), then deletes its record.
func (s *exportService) Delete(ctx context.Context, id string) error {
	exp, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the
	// artifact reference is not lost.
	if exp.HasArtifact() {
		if err := s.store.Delete(ctx, exp.ArtifactPath); err != nil {
			return fmt.Errorf("delete artifact: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// Render materializes the whole CSV body at once.
func (s *exportService) Render(ctx context.Context, id string) (*model.Export, []byte, error) {
	exp, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if _, err := export.NewCSVGenerator(exp.RowCount).WriteTo(&buf); err != nil {
		return nil, nil, fmt.Errorf("render export: %w", err)
	}
	return exp, buf.Bytes(), nil
}

// Open returns the lazy chunk source for the export.
func (s *exportService) Open(ctx context.Context, id string) (*model.Export, export.Source, error) {
	exp, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return exp, export.NewCSVGenerator(exp.RowCount), nil
}

func (s *exportService) Archive(ctx context.Context, id string) (*model.Export, error) {
	exp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := filepath.ToSlash(filepath.Join("exports", exp.ID+".csv"))

	// Pipe the generator straight into object storage; the body is never held
	// in memory as a whole. Size -1 lets the backend chunk the upload.
	pr, pw := io.Pipe()
	go func() {
		_, werr := export.NewCSVGenerator(exp.RowCount).WriteTo(pw)
		pw.CloseWithError(werr)
	}()

	objInfo, err := s.store.Put(ctx, key, pr, storage.PutObjectOptions{
		Size:        -1,
		ContentType: exp.ContentType,
		Metadata: map[string]string{
			"export-name": exp.Name,
		},
	})
	if err != nil {
		// Unblock the generator goroutine; Put may have stopped reading
		// before the pipe was drained.
		_ = pr.CloseWithError(err)
		return nil, fmt.Errorf("archive to storage: %w", err)
	}

	updated, err := s.repo.SetArtifact(ctx, exp.ID, objInfo.Key, objInfo.Size)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return updated, nil
}

// OpenArtifact opens a streaming reader over the archived copy of the export.
func (s *exportService) OpenArtifact(ctx context.Context, id string) (*model.Export, io.ReadCloser, storage.ObjectInfo, error) {
	exp, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, err
	}
	if !exp.HasArtifact() {
		return nil, nil, storage.ObjectInfo{}, ErrNoArtifact
	}
	rc, info, err := s.store.Get(ctx, exp.ArtifactPath)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, fmt.Errorf("open artifact: %w", err)
	}
	return exp, rc, info, nil
}
