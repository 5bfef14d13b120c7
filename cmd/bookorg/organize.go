package main

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/organizer"
	"github.com/urfave/cli/v2"
)

func organizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "organize",
		Usage:     "organize the books in a directory, or a single file",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{outputFlag, dryRunFlag, interactiveFlag, concurrencyFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: bookorg organize <path>", 1)
			}
			log := logger.FromContext(c.Context)

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			db, err := openJournal(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			org, err := newOrganizer(c, cfg, db)
			if err != nil {
				return err
			}

			summary, err := org.Run(c.Context, c.Args().First())
			if summary != nil {
				printSummary(summary)
			}
			if errors.Is(err, organizer.ErrLocked) {
				return cli.Exit(fmt.Sprintf("%s is being organized by another process", cfg.OutputDir), 1)
			}
			if err != nil {
				return err
			}

			log.Info("run finished", logger.Data{"run_id": summary.RunID, "placed": summary.Placed, "failed": summary.Failed})
			return nil
		},
	}
}

func printSummary(s *organizer.Summary) {
	fmt.Printf("Run %s\n", s.RunID)
	fmt.Printf("  Files:      %d\n", s.Total)
	fmt.Printf("  Placed:     %d\n", s.Placed)
	fmt.Printf("  Unresolved: %d\n", s.Unresolved)
	fmt.Printf("  Skipped:    %d\n", s.Skipped)
	fmt.Printf("  Failed:     %d\n", s.Failed)

	stages := make([]string, 0, len(s.ByStage))
	for stage := range s.ByStage {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Printf("  %-14s %d\n", stage+":", s.ByStage[stage])
	}
}
