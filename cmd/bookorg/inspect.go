package main

import (
	"fmt"
	"strings"

	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/shishobooks/bookorg/pkg/prompt"
	"github.com/urfave/cli/v2"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "show how a file would be resolved and named without moving it",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{outputFlag, interactiveFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: bookorg inspect <file>", 1)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			org, err := newOrganizer(c, cfg, nil)
			if err != nil {
				return err
			}

			plan := org.Plan(c.Context, c.Args().First())
			p := plan.Result.Parsed

			fmt.Println("Parsed filename:")
			fmt.Printf("  Series:    %s\n", show(p.Series))
			fmt.Printf("  Authors:   %s\n", show(p.Authors))
			if names := p.AuthorList(); len(names) > 1 {
				for i, name := range names {
					fmt.Printf("    %d. %s\n", i+1, name)
				}
			}
			fmt.Printf("  Title:     %s\n", show(p.Title))
			fmt.Printf("  Publisher: %s\n", show(p.Publisher))
			fmt.Printf("  Year:      %s\n", show(p.Year))
			fmt.Printf("  Volume:    %s\n", show(p.Volume))
			fmt.Printf("  ISBN:      %s\n", show(p.ISBN))

			if plan.Result.Embedded != nil {
				fmt.Println("Embedded metadata:")
				fmt.Println(indent(plan.Result.Embedded.String()))
			}

			fmt.Printf("Stage: %s\n", plan.Result.Stage)
			if md := plan.Result.Metadata; md != nil {
				fmt.Println(prompt.RenderCandidates([]*models.Metadata{md}))
			}
			fmt.Printf("Name: %s\n", plan.Name)
			fmt.Printf("Categories: %s\n", strings.Join(plan.Categories, ", "))
			return nil
		},
	}
}

func show(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
