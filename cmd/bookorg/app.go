package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/categorizer"
	"github.com/shishobooks/bookorg/pkg/config"
	"github.com/shishobooks/bookorg/pkg/database"
	"github.com/shishobooks/bookorg/pkg/embedded"
	"github.com/shishobooks/bookorg/pkg/googlebooks"
	"github.com/shishobooks/bookorg/pkg/journal"
	"github.com/shishobooks/bookorg/pkg/lookup"
	"github.com/shishobooks/bookorg/pkg/migrations"
	"github.com/shishobooks/bookorg/pkg/openlibrary"
	"github.com/shishobooks/bookorg/pkg/organizer"
	"github.com/shishobooks/bookorg/pkg/prompt"
	"github.com/shishobooks/bookorg/pkg/resolver"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "directory organized books are placed in",
	}
	dryRunFlag = &cli.BoolFlag{
		Name:    "dry-run",
		Aliases: []string{"d"},
		Usage:   "symlink files into place instead of moving them",
	}
	interactiveFlag = &cli.BoolFlag{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "ask which candidate to use when a search result can't be verified",
	}
	concurrencyFlag = &cli.IntFlag{
		Name:  "concurrency",
		Usage: "number of files processed at once",
	}
)

// loadConfig reads the config and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.New(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet(outputFlag.Name) {
		cfg.SetOutputDir(c.String(outputFlag.Name))
	}
	if c.IsSet(concurrencyFlag.Name) {
		cfg.Concurrency = c.Int(concurrencyFlag.Name)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openJournal opens the journal database and brings its schema up to date.
func openJournal(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	log := logger.FromContext(ctx)

	db, err := database.New(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to migrate journal")
	}
	if group.ID != 0 {
		log.Info("migrated journal", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}
	return db, nil
}

// newClient builds the bibliographic lookup chain. Every client shares one rate
// limited transport.
func newClient(cfg *config.Config) lookup.Client {
	h := lookup.NewHTTP(
		lookup.WithTimeout(cfg.RequestTimeout),
		lookup.WithRateLimit(cfg.RateLimit),
		lookup.WithMaxRetries(cfg.MaxRetries),
	)

	chain := lookup.Chain{
		googlebooks.New(
			googlebooks.WithEndpoint(cfg.SearchEndpoint),
			googlebooks.WithAPIKey(cfg.GoogleBooksAPIKey),
			googlebooks.WithHTTP(h),
		),
	}
	if cfg.OpenLibraryFallback {
		chain = append(chain, openlibrary.New(
			openlibrary.WithEndpoint(cfg.OpenLibraryEndpoint),
			openlibrary.WithHTTP(h),
		))
	}
	return chain
}

func newCategorizer(ctx context.Context, cfg *config.Config) (*categorizer.Categorizer, error) {
	if cfg.CategoriesFile == "" {
		return categorizer.Default(), nil
	}
	f, err := os.Open(cfg.CategoriesFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	table, err := categorizer.LoadTable(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", cfg.CategoriesFile)
	}
	cat := categorizer.New(table)
	logger.FromContext(ctx).Info("loaded categories", logger.Data{"file": cfg.CategoriesFile, "rules": cat.Len()})
	return cat, nil
}

// newResolver wires the lookup chain and the embedded metadata extractor. When
// interactive is requested but stdin is not a terminal, it falls back to
// non-interactive resolution.
func newResolver(ctx context.Context, cfg *config.Config, interactive bool) (*resolver.Resolver, bool) {
	opts := []resolver.Option{}
	if interactive {
		if prompt.IsTerminal(os.Stdin) {
			opts = append(opts, resolver.WithSelector(prompt.NewSerialized(prompt.NewTerminal(os.Stdin, os.Stdout))))
		} else {
			logger.FromContext(ctx).Warn("stdin is not a terminal, continuing without prompts")
			interactive = false
		}
	}

	provider := embedded.New(embedded.WithPDFPages(cfg.EmbeddedPDFPages))
	return resolver.New(newClient(cfg), provider, opts...), interactive
}

// newOrganizer builds an Organizer journaling into db. db may be nil.
func newOrganizer(c *cli.Context, cfg *config.Config, db *bun.DB) (*organizer.Organizer, error) {
	cat, err := newCategorizer(c.Context, cfg)
	if err != nil {
		return nil, err
	}

	res, interactive := newResolver(c.Context, cfg, c.Bool(interactiveFlag.Name))

	var recorder organizer.Recorder
	if db != nil {
		recorder = journal.NewService(db)
	}

	return organizer.New(res, cat, recorder, organizer.Options{
		OutputDir:   cfg.OutputDir,
		Extensions:  cfg.Extensions,
		Concurrency: cfg.Concurrency,
		DryRun:      c.Bool(dryRunFlag.Name),
		Interactive: interactive,
	}), nil
}
