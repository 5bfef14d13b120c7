package main

import (
	"context"
	"os"

	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/bookorg/pkg/version"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	ctx, cancel := context.WithCancel(log.WithContext(context.Background()))
	defer cancel()

	graceful := signals.Setup()
	go func() {
		<-graceful
		log.Info("interrupted, finishing in-flight files")
		cancel()
	}()

	app := &cli.App{
		Name:    "bookorg",
		Usage:   "resolve ebook metadata and organize files into category folders",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				EnvVars: []string{"BOOKORG_CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			organizeCommand(),
			inspectCommand(),
			historyCommand(),
			watchCommand(),
			dbCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}
