package main

import (
	"fmt"

	"github.com/shishobooks/bookorg/pkg/database"
	"github.com/shishobooks/bookorg/pkg/migrations"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func dbCommand() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "manage the journal database",
		Flags: []cli.Flag{outputFlag},
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "migrate the journal",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					db, err := database.New(cfg)
					if err != nil {
						return err
					}
					defer db.Close()

					group, err := migrations.BringUpToDate(c.Context, db)
					if err != nil {
						return err
					}

					if group.ID == 0 {
						fmt.Printf("There are no new migrations to run\n")
						return nil
					}

					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					db, err := database.New(cfg)
					if err != nil {
						return err
					}
					defer db.Close()

					group, err := migrations.Rollback(c.Context, db)
					if err != nil {
						return err
					}

					if group.ID == 0 {
						fmt.Printf("There are no groups to roll back\n")
						return nil
					}

					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					db, err := database.New(cfg)
					if err != nil {
						return err
					}
					defer db.Close()

					migrator := migrate.NewMigrator(db, migrations.Migrations)
					if err := migrator.Init(c.Context); err != nil {
						return err
					}

					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Journal: %s\n", cfg.JournalPath)
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Unapplied migrations: %s\n", ms.Unapplied())
					fmt.Printf("Last migration group: %s\n", ms.LastGroup())

					return nil
				},
			},
		},
	}
}
