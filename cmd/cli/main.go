package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wadjakorntonsri/shorturl/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shorturl/pkg/config"
	"github.com/wadjakorntonsri/shorturl/pkg/core/domain"
	"github.com/wadjakorntonsri/shorturl/pkg/logger"
	"github.com/wadjakorntonsri/shorturl/pkg/ports"
)

const usage = "expected 'export' or 'import' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	store, err := repository.OpenDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = doExport(ctx, store, os.Stdout)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		var file *os.File
		file, err = os.Open(*importFile)
		if err == nil {
			defer file.Close()
			var imported, skipped int
			imported, skipped, err = doImport(ctx, store, file, cfg.RedirectPrefix, log)
			log.Info("import finished", slog.Int("imported", imported), slog.Int("skipped", skipped))
		}
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Error(os.Args[1]+" failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// doExport writes every mapping, in creation order, as a JSON array.
func doExport(ctx context.Context, store ports.MappingStore, w io.Writer) error {
	mappings, err := store.ListAll(ctx)
	if err != nil {
		return err
	}
	if mappings == nil {
		mappings = []domain.Mapping{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(mappings)
}

// doImport recreates exported mappings. Ids are reassigned and short URLs are
// rebuilt from prefix; owner, creation time and visit count are kept. Entries
// whose short URL, short code or owner/source pair already exists are skipped.
func doImport(ctx context.Context, store ports.MappingStore, r io.Reader, prefix string, log *slog.Logger) (imported, skipped int, err error) {
	var mappings []domain.Mapping
	if err := json.NewDecoder(r).Decode(&mappings); err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	for _, m := range mappings {
		m.ShortURL = domain.ShortURLFor(prefix, m.ShortCode)
		_, err := store.FindByShortURL(ctx, m.ShortURL)
		if err == nil {
			log.Info("skipping existing short url", slog.String("short_url", m.ShortURL))
			skipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return imported, skipped, err
		}

		m.ID = 0
		_, err = store.Create(ctx, &m)
		switch {
		case errors.Is(err, domain.ErrDuplicateCode), errors.Is(err, domain.ErrDuplicateSource):
			log.Warn("skipping conflicting mapping", slog.String("short_url", m.ShortURL), slog.String("error", err.Error()))
			skipped++
		case err != nil:
			return imported, skipped, err
		default:
			imported++
		}
	}
	return imported, skipped, nil
}
