// Command larchfix performs the offline one-shot migration of an archived
// layer store from the v10 on-disk format to v11: string dictionary entries
// lose their escaped source representation, and every ordinal that moved in
// the process is rewritten through the triple index.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/larchfix/internal/config"
	"github.com/standardbeagle/larchfix/internal/migrate"
	"github.com/standardbeagle/larchfix/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "larchfix",
		Usage:                  "migrate an archived layer store from the v10 to the v11 string encoding",
		ArgsUsage:              "<from> <to> <cutoff-rfc3339>",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "KDL config file path",
				Value: config.DefaultPath,
			},
			&cli.StringFlag{
				Name:    "workdir",
				Aliases: []string{"w"},
				Usage:   "directory holding per-layer remap state (default: <to>/.workdir)",
			},
			&cli.BoolFlag{
				Name:    "keep-going",
				Aliases: []string{"c"},
				Usage:   "continue past per-layer failures and report them at the end",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug logging",
			},
			&cli.BoolFlag{
				Name:    "replace",
				Aliases: []string{"r"},
				Usage:   "swap the converted store into <from> on success, keeping <from>.v10",
			},
			&cli.BoolFlag{
				Name:    "clean",
				Aliases: []string{"k"},
				Usage:   "remove the workdir after full success",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "concurrent layer conversions (default: number of CPUs)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 3 {
		cli.ShowAppHelp(c)
		return cli.Exit("expected <from> <to> <cutoff-rfc3339>", 2)
	}
	from := c.Args().Get(0)
	to := c.Args().Get(1)
	cutoff, err := time.Parse(time.RFC3339, c.Args().Get(2))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid cutoff %q: %v", c.Args().Get(2), err), 2)
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	driver, err := migrate.New(migrate.Options{
		From:          from,
		To:            to,
		Workdir:       cfg.Workdir,
		Cutoff:        cutoff,
		KeepGoing:     cfg.KeepGoing,
		Replace:       cfg.Replace,
		CleanWorkdir:  cfg.CleanWorkdir,
		Jobs:          cfg.Jobs,
		ExcludeLabels: cfg.ExcludeLabels,
		Log:           log,
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := driver.Run(ctx); err != nil {
		log.WithError(err).Error("migration failed")
		return cli.Exit("", 1)
	}
	log.Info("migration complete")
	return nil
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("workdir") {
		cfg.Workdir = c.String("workdir")
	}
	if c.IsSet("keep-going") {
		cfg.KeepGoing = c.Bool("keep-going")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if c.IsSet("replace") {
		cfg.Replace = c.Bool("replace")
	}
	if c.IsSet("clean") {
		cfg.CleanWorkdir = c.Bool("clean")
	}
	if c.IsSet("jobs") {
		cfg.Jobs = c.Int("jobs")
	}
	return cfg, nil
}
