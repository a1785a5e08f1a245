package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shorturl/pkg/config"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/core/services"
)

func TestIntegration(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DatabaseURL:    ":memory:",
		RedirectPrefix: domain.DefaultRedirectPrefix,
		ShortCodeMatch: "exact",
		JWTSecret:      "e2e-secret",
		FrontendURL:    "/api/v1/mappings",
	}
	log := slog.New(slog.DiscardHandler)

	// 1. Setup store the way main does
	store, closeStore, err := repository.Open(ctx, cfg, log)
	require.NoError(t, err)
	defer closeStore()

	// 2. Setup services and router
	mappings := services.NewMappingService(store, cfg.RedirectPrefix)
	resolver := services.NewResolver(store, cfg.RedirectPrefix)
	server := httptest.NewServer(handler.NewRouter(cfg, log, mappings, resolver))
	defer server.Close()

	client := server.Client()
	// Don't follow redirects, the status codes are what we check
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	send := func(method, path, caller, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if caller != "" {
			token, _, err := handler.IssueToken([]byte(cfg.JWTSecret), caller, time.Minute)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// TEST 1: u1 creates a mapping
	resp := send("POST", "/api/v1/mappings", "u1", `{"original_url":"https://example.com/a","short_code":"abc"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	var created domain.Mapping
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "http://shorturl.co/go/abc", created.ShortURL)
	assert.Zero(t, created.VisitCount)

	// TEST 2: same source again is rejected on the URL field
	resp = send("POST", "/api/v1/mappings", "u1", `{"original_url":"https://example.com/a","short_code":"xyz"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var verr struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verr))
	assert.Contains(t, verr.Errors, "URL")
	assert.NotContains(t, verr.Errors, "ShortCode")

	// TEST 3: u2 can't edit it
	id := strconv.FormatInt(created.ID, 10)
	resp = send("PUT", "/api/v1/mappings/"+id, "u2", `{"original_url":"https://evil.example","short_code":"abc"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// TEST 4: 100 concurrent redirects through the encoded route
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(server.URL + "/redirect/http:%2F%2Fshorturl.co%2Fgo%2Fabc")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "https://example.com/a", resp.Header.Get("Location"))
		}()
	}
	wg.Wait()

	// TEST 5: listing shows the counted visits
	resp = send("GET", "/api/v1/mappings", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []domain.ListedMapping
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].Position)
	assert.Equal(t, int64(100), listed[0].VisitCount)

	// TEST 6: owner edits, old short URL stops resolving
	resp = send("PUT", "/api/v1/mappings/"+id, "u1", `{"original_url":"https://example.com/b","short_code":"def"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp = send("GET", "/go/abc", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = send("GET", "/go/def", "", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/b", resp.Header.Get("Location"))

	// TEST 7: owner deletes
	resp = send("DELETE", "/api/v1/mappings/"+id, "u1", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
