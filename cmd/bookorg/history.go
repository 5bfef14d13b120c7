package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shishobooks/bookorg/pkg/journal"
	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/shishobooks/bookorg/pkg/prompt"
	"github.com/urfave/cli/v2"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list what recent runs did with each file",
		Flags: []cli.Flag{
			outputFlag,
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of entries to show",
				Value: journal.DefaultListLimit,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "only show entries from this run id",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			db, err := openJournal(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := journal.NewService(db)
			entries, err := svc.List(c.Context, journal.ListOptions{
				Limit: c.Int("limit"),
				RunID: c.String("run"),
			})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No files have been organized yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, d := range entries {
				target := ""
				if d.TargetPath != nil {
					target = *d.TargetPath
				}
				if d.Error != nil {
					target = "error: " + *d.Error
				}
				status := d.Status
				if d.DryRun {
					status += " (dry run)"
				}
				rows = append(rows, []string{
					strconv.Itoa(d.ID),
					d.CreatedAt.Local().Format("2006-01-02 15:04"),
					status,
					d.Stage,
					filepath.Base(d.SourcePath),
					target,
					strings.Join(d.CategoriesParsed, ", "),
				})
			}

			fmt.Println(prompt.RenderTable(
				[]string{"ID", "When", "Status", "Stage", "Source", "Target", "Categories"},
				rows,
				[]prompt.ColumnAlignment{prompt.AlignRight},
			))

			if runID := c.String("run"); runID != "" {
				counts, err := svc.CountByStatus(c.Context, runID)
				if err != nil {
					return err
				}
				fmt.Println(formatStatusCounts(counts))
			}
			return nil
		},
	}
}

// formatStatusCounts renders per-status totals in a fixed order, e.g.
// "placed: 3, skipped: 1, failed: 0".
func formatStatusCounts(counts map[string]int) string {
	parts := make([]string, 0, 3)
	for _, status := range []string{models.DispositionStatusPlaced, models.DispositionStatusSkipped, models.DispositionStatusFailed} {
		parts = append(parts, fmt.Sprintf("%s: %d", status, counts[status]))
	}
	return strings.Join(parts, ", ")
}
