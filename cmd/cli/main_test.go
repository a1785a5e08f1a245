package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
)

func newStore(t *testing.T) *sqlite.SQLiteRepository {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, code := range []string{"abc", "def"} {
		m := &domain.Mapping{
			OriginalURL: "https://example.com/" + code,
			ShortCode:   code,
			ShortURL:    domain.ShortURLFor(domain.DefaultRedirectPrefix, code),
			OwnerID:     "u1",
			CreatedAt:   created,
			VisitCount:  7,
		}
		_, err := src.Create(ctx, m)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, doExport(ctx, src, &buf))

	var exported []domain.Mapping
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	require.Len(t, exported, 2)

	dst := newStore(t)
	log := slog.New(slog.DiscardHandler)

	imported, skipped, err := doImport(ctx, dst, bytes.NewReader(buf.Bytes()), domain.DefaultRedirectPrefix, log)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Zero(t, skipped)

	got, err := dst.FindByShortURL(ctx, "http://shorturl.co/go/def")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, int64(7), got.VisitCount)
	assert.True(t, created.Equal(got.CreatedAt))

	// importing again skips everything
	imported, skipped, err = doImport(ctx, dst, bytes.NewReader(buf.Bytes()), domain.DefaultRedirectPrefix, log)
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Equal(t, 2, skipped)
}

func TestImportRebuildsShortURL(t *testing.T) {
	ctx := context.Background()
	exported := `[{"original_url":"https://example.com/a","short_code":"abc",` +
		`"short_url":"http://old.example/go/abc","owner_id":"u1","created_at":"2025-05-01T12:00:00Z","visit_count":3}]`

	dst := newStore(t)
	imported, _, err := doImport(ctx, dst, strings.NewReader(exported), "https://s.example/", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	got, err := dst.FindByShortURL(ctx, "https://s.example/abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ShortCode)
	assert.Equal(t, int64(3), got.VisitCount)

	_, err = dst.FindByShortURL(ctx, "http://old.example/go/abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, doExport(context.Background(), newStore(t), &buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestImportBadJSON(t *testing.T) {
	_, _, err := doImport(context.Background(), newStore(t), strings.NewReader("{"), domain.DefaultRedirectPrefix, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
