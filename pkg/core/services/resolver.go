package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/logger"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

type Resolver struct {
	store  ports.MappingStore
	prefix string
}

func NewResolver(store ports.MappingStore, prefix string) *Resolver {
	if prefix == "" {
		prefix = domain.DefaultRedirectPrefix
	}
	return &Resolver{store: store, prefix: prefix}
}

// Resolve looks up the mapping whose short URL equals shortPath once "%2F"
// has been turned back into "/", counts the visit and returns the
// destination.
func (r *Resolver) Resolve(ctx context.Context, shortPath string) (string, error) {
	shortURL := normalizeShortPath(shortPath)

	m, err := r.store.FindByShortURL(ctx, shortURL)
	if err != nil {
		return "", err
	}
	if m.OriginalURL == "" {
		return "", domain.ErrNotFound
	}

	if err := r.store.IncrementVisit(ctx, m.ID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx).Error("failed to record visit",
				slog.Int64("id", m.ID),
				slog.String("error", err.Error()),
			)
		}
		return "", err
	}
	return m.OriginalURL, nil
}

// ResolveCode resolves the short URL built from code.
func (r *Resolver) ResolveCode(ctx context.Context, code string) (string, error) {
	return r.Resolve(ctx, domain.ShortURLFor(r.prefix, code))
}

var _ ports.Resolver = (*Resolver)(nil)
