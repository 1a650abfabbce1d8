package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"exportapi/internal/model"
	"exportapi/internal/repository"
)

type MockExportRepository struct {
	mock.Mock
}

func (m *MockExportRepository) Create(ctx context.Context, exp *model.Export) (*model.Export, error) {
	args := m.Called(ctx, exp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

func (m *MockExportRepository) FindByID(ctx context.Context, id string) (*model.Export, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

func (m *MockExportRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Export], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Export]), args.Error(1)
}

func (m *MockExportRepository) SetArtifact(ctx context.Context, id, path string, size int64) (*model.Export, error) {
	args := m.Called(ctx, id, path, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

func (m *MockExportRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
