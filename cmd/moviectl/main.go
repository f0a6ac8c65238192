// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package main implements moviectl, the operator CLI for the MovieDB
// data pipeline. It shares the server's configuration layers, so the same
// environment variables drive both binaries.
//
// Subcommands:
//
//	moviectl migrate
//	moviectl import-imdb [--source path] [--batch-size n] [--dry-run]
//	moviectl import-streaming [--source path | --remote] [--country cc] [--catalog name]
//	moviectl build-embeddings [--limit n] [--offset n] [--batch-size n]
//	moviectl generate-queries [--target n]
//	moviectl evaluate [--limit n] [--top-k n]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/importer"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/search"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: moviectl <command> [flags]

Commands:
  migrate            apply pending schema migrations
  import-imdb        import the IMDb title.basics dataset
  import-streaming   import streaming availability (local file or remote API)
  build-embeddings   embed shows that have no vector yet
  generate-queries   generate judgment queries for search evaluation
  evaluate           score search quality against stored judgment queries`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	switch os.Args[1] {
	case "migrate":
		runMigrate(ctx, db)
	case "import-imdb":
		runImportImdb(ctx, cfg, db, os.Args[2:])
	case "import-streaming":
		runImportStreaming(ctx, cfg, db, os.Args[2:])
	case "build-embeddings":
		runBuildEmbeddings(ctx, cfg, db, os.Args[2:])
	case "generate-queries":
		runGenerateQueries(ctx, cfg, db, os.Args[2:])
	case "evaluate":
		runEvaluate(ctx, cfg, db, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
	}
}

// runMigrate reports the schema state. Migrations themselves run inside
// database.New, so reaching this point means they already applied.
func runMigrate(ctx context.Context, db *database.DB) {
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read schema version")
	}
	history, err := db.MigrationHistory(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read migration history")
	}
	logging.Info().Int("version", version).Int("applied", len(history)).Msg("Schema up to date")
}

func runImportImdb(ctx context.Context, cfg *config.Config, db *database.DB, args []string) {
	fs := flag.NewFlagSet("import-imdb", flag.ExitOnError)
	source := fs.String("source", "", "local dataset path (default: download title.basics)")
	batchSize := fs.Int("batch-size", cfg.Imdb.BatchSize, "rows per database batch")
	dryRun := fs.Bool("dry-run", false, "parse and count rows without writing")
	_ = fs.Parse(args)

	imdbCfg := cfg.Imdb
	imdbCfg.BatchSize = *batchSize

	imp := importer.NewImdbImporter(&imdbCfg, db)
	imp.DryRun = *dryRun

	result, err := imp.Run(ctx, *source)
	if err != nil {
		logging.Fatal().Err(err).Msg("IMDb import failed")
	}
	logging.Info().
		Int("processed", result.Processed).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Bool("dry_run", *dryRun).
		Msg("IMDb import done")
}

func runImportStreaming(ctx context.Context, cfg *config.Config, db *database.DB, args []string) {
	fs := flag.NewFlagSet("import-streaming", flag.ExitOnError)
	source := fs.String("source", "", "local JSONL (gzip) export to import")
	remote := fs.Bool("remote", false, "fetch from the Streaming Availability API")
	country := fs.String("country", cfg.Motn.Country, "country code filter")
	catalog := fs.String("catalog", cfg.Motn.Catalog, "streaming catalog filter")
	_ = fs.Parse(args)

	if (*source != "") == *remote {
		logging.Fatal().Msg("exactly one of --source or --remote is required")
	}

	var result *importer.ImportResult
	var err error
	if *remote {
		motnCfg := cfg.Motn
		motnCfg.Country = *country
		motnCfg.Catalog = *catalog
		result, err = importer.NewRemoteImporter(&motnCfg, db).Run(ctx)
	} else {
		result, err = importer.NewMotnImporter(db, cfg.Motn.BatchSize).ImportFile(ctx, *source)
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Streaming availability import failed")
	}
	logging.Info().
		Int("processed", result.Processed).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Msg("Streaming availability import done")
}

func runBuildEmbeddings(ctx context.Context, cfg *config.Config, db *database.DB, args []string) {
	fs := flag.NewFlagSet("build-embeddings", flag.ExitOnError)
	limit := fs.Int("limit", 0, "max shows to embed this run (0 = all)")
	offset := fs.Int("offset", 0, "skip the first pending shows")
	batchSize := fs.Int("batch-size", cfg.Embedding.BatchSize, "texts per embeddings request")
	_ = fs.Parse(args)

	client := embedding.NewClient(&cfg.Embedding)
	result, err := embedding.NewBuilder(db, client, *batchSize).Run(ctx, *limit, *offset)
	if err != nil {
		logging.Fatal().Err(err).Msg("Embedding build failed")
	}
	logging.Info().
		Int("embedded", result.Embedded).
		Int64("remaining", result.Skipped).
		Msg("Embedding build done")
}

func runGenerateQueries(ctx context.Context, cfg *config.Config, db *database.DB, args []string) {
	fs := flag.NewFlagSet("generate-queries", flag.ExitOnError)
	target := fs.Int("target", 1000, "total shows that should carry judgment queries (0 = all)")
	_ = fs.Parse(args)

	gen := search.NewQueryGenerator(db, embedding.NewClient(&cfg.Embedding))
	result, err := gen.Run(ctx, *target)
	if err != nil {
		logging.Fatal().Err(err).Msg("Judgment query generation failed")
	}
	logging.Info().
		Int("generated", result.Generated).
		Int("failed", result.Failed).
		Int64("already_judged", result.Existing).
		Msg("Judgment query generation done")
}

func runEvaluate(ctx context.Context, cfg *config.Config, db *database.DB, args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	limit := fs.Int("limit", 0, "max judged shows to evaluate (0 = all)")
	topK := fs.Int("top-k", cfg.Search.TopK, "results per query")
	_ = fs.Parse(args)

	index := search.NewIndex()
	if err := index.Refresh(ctx, db); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load vector index")
	}

	// Evaluation bypasses the response cache on purpose.
	engine := search.NewEngine(db, embedding.NewClient(&cfg.Embedding), index, nil, &cfg.Search, 0)

	report, err := engine.Evaluate(ctx, *limit, *topK)
	if err != nil {
		logging.Fatal().Err(err).Msg("Evaluation failed")
	}
	logging.Info().
		Int("queries", report.Queries).
		Int("hits", report.Hits).
		Float64("hit_rate", report.HitRate).
		Float64("mrr", report.MRR).
		Float64("mean_rank", report.MeanRank).
		Msg("Evaluation done")
}
