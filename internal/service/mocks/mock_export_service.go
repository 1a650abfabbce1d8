package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"exportapi/internal/export"
	"exportapi/internal/model"
	"exportapi/internal/service"
	"exportapi/internal/storage"
)

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Create(ctx context.Context, name string, rows int64) (*model.Export, error) {
	args := m.Called(ctx, name, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

func (m *MockExportService) Get(ctx context.Context, id string) (*model.Export, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

func (m *MockExportService) List(ctx context.Context, limit, offset int) (*service.ExportListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportListResult), args.Error(1)
}

func (m *MockExportService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExportService) Render(ctx context.Context, id string) (*model.Export, []byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Export), args.Get(1).([]byte), args.Error(2)
}

func (m *MockExportService) Open(ctx context.Context, id string) (*model.Export, export.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Export), args.Get(1).(export.Source), args.Error(2)
}

func (m *MockExportService) Archive(ctx context.Context, id string) (*model.Export, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

func (m *MockExportService) OpenArtifact(ctx context.Context, id string) (*model.Export, io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, storage.ObjectInfo{}, args.Error(3)
	}
	return args.Get(0).(*model.Export), args.Get(1).(io.ReadCloser), args.Get(2).(storage.ObjectInfo), args.Error(3)
}
