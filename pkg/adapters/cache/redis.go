package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/logger"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

const keyPrefix = "mapping:"

// Store caches short URL lookups in Redis in front of another store.
// A hit is only trusted once the row it names still carries that short URL.
type Store struct {
	ports.MappingStore
	client *redis.Client
	ttl    time.Duration
}

func NewStore(inner ports.MappingStore, client *redis.Client, ttl time.Duration) *Store {
	return &Store{MappingStore: inner, client: client, ttl: ttl}
}

func key(shortURL string) string {
	return keyPrefix + shortURL
}

func (s *Store) FindByShortURL(ctx context.Context, shortURL string) (*domain.Mapping, error) {
	log := logger.FromContext(ctx)

	data, err := s.client.Get(ctx, key(shortURL)).Bytes()
	switch {
	case err == nil:
		var m domain.Mapping
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("dropping undecodable cache entry", slog.String("short_url", shortURL))
			break
		}
		current, err := s.MappingStore.GetByID(ctx, m.ID)
		if err == nil && current.ShortURL == shortURL {
			return current, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		log.Debug("dropping stale cache entry", slog.String("short_url", shortURL))
		s.evict(ctx, key(shortURL))
	case !errors.Is(err, redis.Nil):
		log.Warn("cache read failed", slog.String("error", err.Error()))
	}

	m, err := s.MappingStore.FindByShortURL(ctx, shortURL)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(m); err == nil {
		if err := s.client.Set(ctx, key(shortURL), data, s.ttl).Err(); err != nil {
			log.Warn("cache write failed", slog.String("error", err.Error()))
		}
	}
	return m, nil
}

// Create evicts any entry left behind for the short URL it claims.
func (s *Store) Create(ctx context.Context, m *domain.Mapping) (int64, error) {
	id, err := s.MappingStore.Create(ctx, m)
	if err != nil {
		return 0, err
	}
	s.evict(ctx, key(m.ShortURL))
	return id, nil
}

// Update evicts the entries for both the previous and the new short URL.
func (s *Store) Update(ctx context.Context, m *domain.Mapping) error {
	keys := []string{key(m.ShortURL)}
	if prev, err := s.MappingStore.GetByID(ctx, m.ID); err == nil {
		keys = append(keys, key(prev.ShortURL))
	}

	if err := s.MappingStore.Update(ctx, m); err != nil {
		return err
	}
	s.evict(ctx, keys...)
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	prev, err := s.MappingStore.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.MappingStore.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, key(prev.ShortURL))
	return nil
}

func (s *Store) evict(ctx context.Context, keys ...string) {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		logger.FromContext(ctx).Warn("cache eviction failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

var _ ports.MappingStore = (*Store)(nil)
