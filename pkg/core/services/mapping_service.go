package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/logger"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

// CodeMatch selects how a new short code is checked against existing ones.
type CodeMatch string

const (
	// CodeMatchExact rejects a code only if another mapping uses the same code.
	CodeMatchExact CodeMatch = "exact"
	// CodeMatchSubstring rejects a code if any stored short URL contains it.
	CodeMatchSubstring CodeMatch = "substring"
)

// ParseCodeMatch accepts "exact" or "substring"; empty means exact.
func ParseCodeMatch(s string) (CodeMatch, error) {
	switch CodeMatch(s) {
	case "", CodeMatchExact:
		return CodeMatchExact, nil
	case CodeMatchSubstring:
		return CodeMatchSubstring, nil
	}
	return "", fmt.Errorf("unknown short code match policy %q", s)
}

type MappingService struct {
	store     ports.MappingStore
	prefix    string
	codeMatch CodeMatch
	now       func() time.Time
}

type Option func(*MappingService)

func WithCodeMatch(m CodeMatch) Option {
	return func(s *MappingService) { s.codeMatch = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *MappingService) { s.now = now }
}

// NewMappingService builds the engine. An empty prefix falls back to
// domain.DefaultRedirectPrefix.
func NewMappingService(store ports.MappingStore, prefix string, opts ...Option) *MappingService {
	if prefix == "" {
		prefix = domain.DefaultRedirectPrefix
	}
	s := &MappingService{
		store:     store,
		prefix:    prefix,
		codeMatch: CodeMatchExact,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MappingService) Add(ctx context.Context, callerID string, form domain.MappingForm) (*domain.Mapping, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	form = form.Normalize()

	verr := validateForm(form)
	if !verr.Has(domain.FieldURL) {
		exists, err := s.store.ExistsByOriginalURLAndOwner(ctx, form.URL, callerID)
		if err != nil {
			return nil, err
		}
		if exists {
			addDuplicateSource(verr)
		}
	}
	if !verr.Has(domain.FieldShortCode) {
		taken, err := s.codeTaken(ctx, form.ShortCode)
		if err != nil {
			return nil, err
		}
		if taken {
			addDuplicateCode(verr, form.ShortCode)
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	m := &domain.Mapping{
		OriginalURL: form.URL,
		ShortCode:   form.ShortCode,
		ShortURL:    domain.ShortURLFor(s.prefix, form.ShortCode),
		OwnerID:     callerID,
		CreatedAt:   s.now().UTC(),
		VisitCount:  0,
	}
	if _, err := s.store.Create(ctx, m); err != nil {
		return nil, conflictToValidation(err, form.ShortCode)
	}

	logger.FromContext(ctx).Info("mapping created",
		slog.Int64("id", m.ID),
		slog.String("short_url", m.ShortURL),
		slog.String("owner", callerID),
	)
	return m, nil
}

// EditForm returns the current values of a mapping for its owner.
func (s *MappingService) EditForm(ctx context.Context, callerID string, id int64) (domain.MappingForm, error) {
	m, err := s.owned(ctx, callerID, id)
	if err != nil {
		return domain.MappingForm{}, err
	}
	return domain.MappingForm{URL: m.OriginalURL, ShortCode: m.ShortCode}, nil
}

// Edit replaces the original URL and short code of an owned mapping.
// Changed values must not collide with any other mapping.
func (s *MappingService) Edit(ctx context.Context, callerID string, id int64, form domain.MappingForm) (*domain.Mapping, error) {
	m, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	form = form.Normalize()

	verr := validateForm(form)
	if !verr.Has(domain.FieldURL) && form.URL != m.OriginalURL {
		exists, err := s.store.ExistsByOriginalURLAndOwner(ctx, form.URL, callerID)
		if err != nil {
			return nil, err
		}
		if exists {
			addDuplicateSource(verr)
		}
	}
	if !verr.Has(domain.FieldShortCode) && form.ShortCode != m.ShortCode {
		taken, err := s.store.ExistsByShortCode(ctx, form.ShortCode)
		if err != nil {
			return nil, err
		}
		if taken {
			addDuplicateCode(verr, form.ShortCode)
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	m.OriginalURL = form.URL
	m.ShortCode = form.ShortCode
	m.ShortURL = domain.ShortURLFor(s.prefix, form.ShortCode)
	if err := s.store.Update(ctx, m); err != nil {
		return nil, conflictToValidation(err, form.ShortCode)
	}

	logger.FromContext(ctx).Info("mapping edited", slog.Int64("id", m.ID), slog.String("short_url", m.ShortURL))
	return m, nil
}

func (s *MappingService) Delete(ctx context.Context, callerID string, id int64) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("mapping deleted", slog.Int64("id", id))
	return nil
}

func (s *MappingService) List(ctx context.Context) ([]domain.ListedMapping, error) {
	mappings, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	listed := make([]domain.ListedMapping, 0, len(mappings))
	for i, m := range mappings {
		listed = append(listed, domain.ListedMapping{
			Position:    i + 1,
			ID:          m.ID,
			OriginalURL: m.OriginalURL,
			ShortURL:    m.ShortURL,
			CreatedAt:   m.CreatedAt,
			VisitCount:  m.VisitCount,
		})
	}
	return listed, nil
}

// owned loads a mapping and checks that callerID created it.
func (s *MappingService) owned(ctx context.Context, callerID string, id int64) (*domain.Mapping, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID == "" || m.OwnerID != callerID {
		logger.FromContext(ctx).Warn("mapping mutation by non-owner",
			slog.Int64("id", id),
			slog.String("caller", callerID),
		)
		return nil, domain.ErrUnauthorized
	}
	return m, nil
}

func (s *MappingService) codeTaken(ctx context.Context, code string) (bool, error) {
	if s.codeMatch == CodeMatchSubstring {
		return s.store.ExistsByShortCodeSubstring(ctx, code)
	}
	return s.store.ExistsByShortCode(ctx, code)
}

func addDuplicateSource(verr *domain.ValidationError) {
	verr.Add(domain.FieldURL, "You already have a short URL for this original URL", domain.ErrDuplicateSource)
}

func addDuplicateCode(verr *domain.ValidationError, code string) {
	verr.Add(domain.FieldShortCode, fmt.Sprintf("A short code %q already exists", code), domain.ErrDuplicateCode)
}

// conflictToValidation reports a unique constraint hit by the store the
// same way as a failed pre-check. Other errors pass through untouched.
func conflictToValidation(err error, code string) error {
	verr := &domain.ValidationError{}
	switch {
	case errors.Is(err, domain.ErrDuplicateSource):
		addDuplicateSource(verr)
	case errors.Is(err, domain.ErrDuplicateCode):
		addDuplicateCode(verr, code)
	default:
		return err
	}
	return verr
}

var _ ports.MappingService = (*MappingService)(nil)
