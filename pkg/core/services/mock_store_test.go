package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, mapping *domain.Mapping) (int64, error) {
	args := m.Called(ctx, mapping)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*domain.Mapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mapping), args.Error(1)
}

func (m *MockStore) FindByShortURL(ctx context.Context, shortURL string) (*domain.Mapping, error) {
	args := m.Called(ctx, shortURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mapping), args.Error(1)
}

func (m *MockStore) ExistsByOriginalURLAndOwner(ctx context.Context, originalURL, ownerID string) (bool, error) {
	args := m.Called(ctx, originalURL, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ExistsByShortCodeSubstring(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, mapping *domain.Mapping) error {
	return m.Called(ctx, mapping).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) IncrementVisit(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) ListAll(ctx context.Context) ([]domain.Mapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Mapping), args.Error(1)
}

var _ ports.MappingStore = (*MockStore)(nil)
