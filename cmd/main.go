package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cp2k/fortools/fortools/config"
	"github.com/cp2k/fortools/fortools/diagnostic"
	"github.com/cp2k/fortools/fortools/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const programName = "fortools"
const version = "latest"
const defaultConfigFile = "fortools.yaml"

var (
	cfg    *config.Config
	logger *zap.Logger
)

func setup(ctx *cli.Context) error {
	loaded, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	cfg = loaded

	built, err := logging.New(ctx.Bool("verbose"))
	if err != nil {
		return err
	}
	logger = built

	diagnostic.Colorize(!ctx.Bool("no-color") && term.IsTerminal(int(os.Stdout.Fd())))
	return nil
}

func teardown(ctx *cli.Context) error {
	if logger != nil {
		// Syncing stderr fails on some platforms, nothing to do about it.
		_ = logger.Sync()
	}
	return nil
}

func argsValidator(min int) cli.BeforeFunc {
	return func(ctx *cli.Context) error {
		if ctx.Args().Len() < min {
			return fmt.Errorf("Expected at least %d argument(s), got %d", min, ctx.Args().Len())
		}
		return nil
	}
}

func main() {
	// nolint:exhaustruct
	app := &cli.App{
		Name:     programName,
		Usage:    "Input generation, source instrumentation and check-in tooling for CP2K",
		Version:  version,
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "The CP2K Developers",
				Email: "",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigFile,
				Usage:   "YAML configuration file, a missing file means defaults",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Never colorize diagnostics",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			genInputsCommand(),
			jobscriptCommand(),
			instrumentCommand(),
			prettifyCommand(),
			ciCommand(),
			checkInputCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
