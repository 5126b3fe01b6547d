package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock for objectstore.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	args := m.Called(ctx, bucket, path, data, contentType)
	return args.Error(0)
}

func (m *MockStore) PublicURL(bucket, path string) string {
	args := m.Called(bucket, path)
	return args.String(0)
}

// MockRepository is a mock for crud.Repository over any entity type.
type MockRepository[T any] struct {
	mock.Mock
}

func (m *MockRepository[T]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) Create(ctx context.Context, item T) (T, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(T), args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	args := m.Called(ctx, id, item)
	return args.Get(0).(T), args.Error(1)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
