package main

// Build the search index:
//   go run ./cmd/indexer --sources sources.yml
//   go run ./cmd/indexer --raw-dir data/raw

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"clinical-backend/internal/bootstrap"
	"clinical-backend/internal/guidelines"
	"clinical-backend/internal/indexer"
	"clinical-backend/internal/search"
	"clinical-backend/internal/shared/config"
	localstore "clinical-backend/internal/shared/storage/object/local"
	"clinical-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel)
	defer telemetry.Sync()

	cmd := &cli.Command{
		Name:  "indexer",
		Usage: "Download guideline PDFs, chunk them and write the search index",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sources", Value: "sources.yml", Usage: "YAML list of url/title/org/published"},
			&cli.StringFlag{Name: "raw-dir", Usage: "Index local PDFs from this directory instead of sources"},
			&cli.StringFlag{Name: "index-dir", Value: cfg.IndexDir, Usage: "Where meta.jsonl is written"},
			&cli.IntFlag{Name: "concurrency", Value: indexer.DefaultConcurrency, Usage: "Parallel downloads"},
			&cli.BoolFlag{Name: "ingest", Value: cfg.GuidelineStore != "memory", Usage: "Also store chunks in the guideline knowledge base"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cfg, cmd)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, cmd *cli.Command) error {
	b := indexer.NewBuilder()
	b.Concurrency = int(cmd.Int("concurrency"))

	var (
		chunks []search.Chunk
		err    error
	)
	if dir := cmd.String("raw-dir"); dir != "" {
		chunks, err = b.FromStore(ctx, localstore.New(dir), "")
	} else {
		var sources []indexer.Source
		sources, err = indexer.LoadSources(cmd.String("sources"))
		if err != nil {
			return err
		}
		if cmd.Bool("ingest") {
			app := &bootstrap.App{Config: cfg}
			defer app.Close()
			repo, err := app.GuidelineRepo(ctx)
			if err != nil {
				return err
			}
			b.Ingester = guidelines.NewService(repo)
		}
		chunks, err = b.FromSources(ctx, sources)
	}
	if err != nil {
		return err
	}

	indexDir := cmd.String("index-dir")
	if err := search.Save(ctx, localstore.New(indexDir), chunks); err != nil {
		return err
	}
	fmt.Printf("Built index at %s with %d chunks\n", indexDir, len(chunks))
	return nil
}
