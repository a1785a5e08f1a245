package ports

import (
	"context"

	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
)

// MappingStore defines storage operations for mappings.
// Failures of the backing store are reported as *domain.StorageError.
type MappingStore interface {
	Create(ctx context.Context, m *domain.Mapping) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Mapping, error)
	FindByShortURL(ctx context.Context, shortURL string) (*domain.Mapping, error)
	ExistsByOriginalURLAndOwner(ctx context.Context, originalURL, ownerID string) (bool, error)
	ExistsByShortCodeSubstring(ctx context.Context, code string) (bool, error)
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, m *domain.Mapping) error // never touches visit_count
	Delete(ctx context.Context, id int64) error
	IncrementVisit(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]domain.Mapping, error) // creation order
}

// MappingService defines the owner-scoped mapping operations
type MappingService interface {
	Add(ctx context.Context, callerID string, form domain.MappingForm) (*domain.Mapping, error)
	EditForm(ctx context.Context, callerID string, id int64) (domain.MappingForm, error)
	Edit(ctx context.Context, callerID string, id int64, form domain.MappingForm) (*domain.Mapping, error)
	Delete(ctx context.Context, callerID string, id int64) error
	List(ctx context.Context) ([]domain.ListedMapping, error)
}

// Resolver turns inbound short paths into redirect targets
type Resolver interface {
	Resolve(ctx context.Context, shortPath string) (string, error)
	ResolveCode(ctx context.Context, code string) (string, error)
}
