// Command import synchronizes a BigCartel product export into a Vendure
// backend: authenticate, clear all previously imported entities, provision
// the size facet, then import every product in the export.
//
// Usage:
//
//	import [path/to/products.json]
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"

	"github.com/merchkit/vendure-sync/internal/bigcartel"
	"github.com/merchkit/vendure-sync/internal/catalog"
	"github.com/merchkit/vendure-sync/internal/config"
	"github.com/merchkit/vendure-sync/internal/vendure"
)

func main() {
	// slog is configured in slog.go via init()
	_ = godotenv.Load()
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Correlates every log line of one run
	slog.SetDefault(slog.With("run_id", ulid.Make().String()))

	path := bigcartel.ResolvePath(flag.Arg(0))
	slog.Info("reading export", "phase", "import", "path", path)

	products, err := bigcartel.LoadProducts(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Error("export file not found; pass a path or place products.json next to the binary",
				"phase", "import", "path", path)
		} else {
			slog.Error("failed to read export file", "phase", "import", "error", err)
		}
		os.Exit(1)
	}
	slog.Info("export loaded", "phase", "import", "count", len(products))

	ctx := context.Background()

	client := vendure.NewClient(cfg.AdminAPIURL, cfg.Superadmin.Username, cfg.Superadmin.Password)
	if err := client.Authenticate(ctx); err != nil {
		slog.Error("authentication failed, aborting", "phase", "auth", "error", err)
		os.Exit(1)
	}

	importer := catalog.New(client, cfg)
	summary, err := importer.Run(ctx, products)
	if err != nil {
		slog.Error("import aborted", "phase", "import", "error", err)
		os.Exit(1)
	}

	slog.Info("import complete",
		"phase", "import",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"total", len(products),
	)
}
