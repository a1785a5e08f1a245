package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/wadjakorntonsri/shorturl/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shorturl/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shorturl/pkg/config"
	"github.com/wadjakorntonsri/shorturl/pkg/core/services"
	"github.com/wadjakorntonsri/shorturl/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	// Vercel only writes logs from stdout; no file sink here
	log := logger.New(os.Stdout, cfg.LogLevel, "json")

	// Note: On Vercel, a local sqlite file is ephemeral unless DATABASE_URL
	// points at Turso or PostgreSQL
	store, _, err := repository.Open(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}

	match, _ := services.ParseCodeMatch(cfg.ShortCodeMatch)
	mappings := services.NewMappingService(store, cfg.RedirectPrefix, services.WithCodeMatch(match))
	resolver := services.NewResolver(store, cfg.RedirectPrefix)
	mux = handler.NewRouter(cfg, log, mappings, resolver)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
