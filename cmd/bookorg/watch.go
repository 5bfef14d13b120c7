package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/organizer"
	"github.com/shishobooks/bookorg/pkg/watcher"
	"github.com/shishobooks/bookorg/pkg/worker"
	"github.com/urfave/cli/v2"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "organize books as they appear in an inbox directory",
		ArgsUsage: "<inbox>",
		Flags:     []cli.Flag{outputFlag, dryRunFlag, concurrencyFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: bookorg watch <inbox>", 1)
			}
			log := logger.FromContext(c.Context)

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			unlock, err := organizer.Lock(cfg.OutputDir)
			if errors.Is(err, organizer.ErrLocked) {
				return cli.Exit(fmt.Sprintf("%s is being organized by another process", cfg.OutputDir), 1)
			}
			if err != nil {
				return err
			}
			defer unlock()

			db, err := openJournal(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			org, err := newOrganizer(c, cfg, db)
			if err != nil {
				return err
			}

			summary := org.NewSummary()
			w := worker.New(log, cfg.Concurrency, org.Process(summary))
			w.Start(c.Context)

			err = watcher.New(c.Args().First(), w, watcher.Options{
				Extensions: cfg.Extensions,
				Debounce:   cfg.WatchDebounce,
				Skip:       []string{cfg.OutputDir},
			}).Run(c.Context)
			w.Shutdown()

			printSummary(summary)
			return err
		},
	}
}
