package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cp2k/fortools/fortools/ci"
	"github.com/cp2k/fortools/fortools/directive"
	"github.com/cp2k/fortools/fortools/inputgen"
	"github.com/cp2k/fortools/fortools/instrument"
	"github.com/cp2k/fortools/fortools/jobscript"
	"github.com/cp2k/fortools/fortools/prettify"
	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func genInputsCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-inputs",
		Usage: "Write the Lennard-Jones global optimisation inputs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "references", Aliases: []string{"r"}, Usage: "Reference energies file"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory receiving the inputs"},
			&cli.IntFlag{Name: "min", Usage: "Smallest cluster size"},
			&cli.IntFlag{Name: "max", Usage: "Largest cluster size"},
			&cli.BoolFlag{Name: "check", Usage: "Re-parse every generated input before writing it"},
		},
		Action: func(ctx *cli.Context) error {
			options := cfg.InputGen
			if ctx.IsSet("references") {
				options.References = ctx.String("references")
			}
			if ctx.IsSet("output-dir") {
				options.OutputDir = ctx.String("output-dir")
			}
			if ctx.IsSet("min") {
				options.MinSize = ctx.Int("min")
			}
			if ctx.IsSet("max") {
				options.MaxSize = ctx.Int("max")
			}

			references, err := inputgen.ReadReferencesFile(options.References)
			if err != nil {
				return err
			}

			generator, err := inputgen.NewGenerator(inputgen.Options{
				References:      references,
				MinSize:         options.MinSize,
				MaxSize:         options.MaxSize,
				EnergyFactor:    options.EnergyFactor,
				LatticeConstant: options.LatticeConstant,
				OutputPattern:   options.OutputPattern,
				OutputDir:       options.OutputDir,
				Check:           ctx.Bool("check"),
			}, logger)
			if err != nil {
				return err
			}

			written, err := generator.Run(ctx.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "Wrote %d input file(s) to %s\n", len(written), options.OutputDir)
			return nil
		},
	}
}

func jobscriptCommand() *cli.Command {
	return &cli.Command{
		Name:      "jobscript",
		Usage:     "Print a batch script running the given inputs",
		ArgsUsage: "INPUT...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scheduler", Aliases: []string{"s"}, Usage: fmt.Sprintf("One of %s", strings.Join(jobscript.Schedulers(), ", "))},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Value: "lj-global-opt", Usage: "Job name"},
			&cli.StringFlag{Name: "executable", Usage: "Simulation binary"},
			&cli.IntFlag{Name: "nodes", Usage: "Number of nodes"},
			&cli.IntFlag{Name: "tasks", Usage: "Tasks per node"},
			&cli.StringFlag{Name: "walltime", Usage: "Walltime as HH:MM:SS"},
			&cli.StringFlag{Name: "account", Usage: "Account to charge"},
			&cli.StringFlag{Name: "queue", Usage: "Queue or partition"},
		},
		Before: argsValidator(1),
		Action: func(ctx *cli.Context) error {
			settings := cfg.JobScript
			scheduler := settings.Scheduler
			if ctx.IsSet("scheduler") {
				scheduler = ctx.String("scheduler")
			}

			job := jobscript.Job{
				Name:       ctx.String("name"),
				Executable: settings.Executable,
				Nodes:      settings.Nodes,
				Tasks:      settings.Tasks,
				Walltime:   settings.Walltime,
				Account:    settings.Account,
				Queue:      settings.Queue,
				Inputs:     ctx.Args().Slice(),
			}
			if ctx.IsSet("executable") {
				job.Executable = ctx.String("executable")
			}
			if ctx.IsSet("nodes") {
				job.Nodes = ctx.Int("nodes")
			}
			if ctx.IsSet("tasks") {
				job.Tasks = ctx.Int("tasks")
			}
			if ctx.IsSet("walltime") {
				job.Walltime = ctx.String("walltime")
			}
			if ctx.IsSet("account") {
				job.Account = ctx.String("account")
			}
			if ctx.IsSet("queue") {
				job.Queue = ctx.String("queue")
			}

			return jobscript.Render(ctx.App.Writer, scheduler, job)
		},
	}
}

func instrumentCommand() *cli.Command {
	return &cli.Command{
		Name:      "instrument",
		Usage:     "Replace input descriptions with traceable placeholders",
		ArgsUsage: "[ROOT...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Print a diff instead of rewriting files"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "Number of files processed in parallel"},
			&cli.BoolFlag{Name: "dump", Usage: "Dump the summary structure"},
		},
		Action: func(ctx *cli.Context) error {
			settings := cfg.Instrument
			roots := ctx.Args().Slice()
			if len(roots) == 0 {
				roots = []string{settings.Root}
			}
			workers := settings.Workers
			if ctx.IsSet("workers") {
				workers = ctx.Int("workers")
			}

			instrumenter, err := instrument.New(settings.Routines, logger)
			if err != nil {
				return err
			}

			summary, err := instrumenter.Walk(ctx.Context, roots, instrument.Options{
				Extensions: settings.Extensions,
				Workers:    workers,
				DryRun:     ctx.Bool("dry-run"),
				Output:     ctx.App.Writer,
			})

			if ctx.Bool("dump") {
				spew.Fdump(ctx.App.ErrWriter, summary)
			}
			logger.Info("Instrumentation finished",
				zap.Int("files", summary.Files),
				zap.Int("skipped", summary.Skipped),
				zap.Int("changed", summary.Changed),
				zap.Int("calls", summary.Calls),
				zap.Int("misses", summary.Misses),
			)

			if errors.Is(err, instrument.ErrMissedCalls) {
				return fmt.Errorf("%d call site(s) were not instrumented, see the snippets above: %w", summary.Misses, err)
			}
			return err
		},
	}
}

func prettifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "prettify",
		Usage:     "Normalise Fortran sources into an output directory",
		ArgsUsage: "OUT_DIR FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-upcase", Usage: "Keep the case of keywords"},
			&cli.BoolFlag{Name: "no-normalize-use", Usage: "Leave USE statements alone"},
			&cli.BoolFlag{Name: "replace", Usage: "Apply the configured replacements"},
			&cli.StringFlag{Name: "interface-dir", Usage: "Directory with NAME.int interface files, enables the synopsis stage"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "Number of files processed in parallel"},
		},
		Before: argsValidator(2),
		Action: func(ctx *cli.Context) error {
			settings := cfg.Prettify
			options := prettify.Options{
				NormalizeUse:  settings.NormalizeUse && !ctx.Bool("no-normalize-use"),
				Replace:       settings.Replace || ctx.Bool("replace"),
				Replacements:  settings.Replacements,
				Upcase:        settings.Upcase && !ctx.Bool("no-upcase"),
				InterfacesDir: settings.InterfacesDir,
			}
			if ctx.IsSet("interface-dir") {
				options.InterfacesDir = ctx.String("interface-dir")
			}
			workers := settings.Workers
			if ctx.IsSet("workers") {
				workers = ctx.Int("workers")
			}

			prettifier, err := prettify.New(options, logger)
			if err != nil {
				return err
			}

			args := ctx.Args().Slice()
			return prettifier.Files(ctx.Context, args[0], args[1:], workers)
		},
	}
}

func ciCommand() *cli.Command {
	return &cli.Command{
		Name:      "ci",
		Usage:     "Rebuild, refresh synopsis comments and log everything before a check-in",
		ArgsUsage: "[ROOT]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "only", Usage: fmt.Sprintf("Run only these steps (%s)", strings.Join(ci.StepNames(), ", "))},
			&cli.BoolFlag{Name: "vcs", Usage: "Record the VCS status and diff"},
		},
		Action: func(ctx *cli.Context) error {
			settings := cfg.CI
			root := settings.Root
			if ctx.Args().Present() {
				root = ctx.Args().First()
			}

			pipeline, err := ci.New(ci.Options{
				Root:            root,
				Make:            settings.Make,
				ArchCommand:     settings.ArchCommand,
				DebugBuild:      settings.DebugBuild,
				OptimizedBuild:  settings.OptimizedBuild,
				TemplateGlob:    settings.TemplateGlob,
				TemplateCommand: settings.TemplateCommand,
				SynopsisGlobs:   settings.SynopsisGlobs,
				VCS:             ctx.Bool("vcs"),
				VCSStatus:       settings.VCSStatus,
				VCSDiff:         settings.VCSDiff,
				Only:            ctx.StringSlice("only"),
				Workers:         cfg.Prettify.Workers,
			}, logger)
			if err != nil {
				return err
			}

			report, err := pipeline.Run(ctx.Context)
			if report.LogDir != "" {
				fmt.Fprintf(ctx.App.Writer, "Logs in %s\n", report.LogDir)
			}
			for _, step := range report.Steps {
				status := "ok"
				if step.Err != nil {
					status = step.Err.Error()
				}
				fmt.Fprintf(ctx.App.Writer, "  %-12s %8s  %s\n", step.Name, step.Duration.Round(time.Millisecond), status)
			}
			if len(report.AcceptedSynopsis) > 0 {
				fmt.Fprintf(ctx.App.Writer, "Updated synopsis: %s\n", strings.Join(report.AcceptedSynopsis, ", "))
			}
			if len(report.RejectedSynopsis) > 0 {
				fmt.Fprintf(ctx.App.Writer, "Rejected synopsis: %s\n", strings.Join(report.RejectedSynopsis, ", "))
			}
			return err
		},
	}
}

func checkInputCommand() *cli.Command {
	return &cli.Command{
		Name:      "check-input",
		Usage:     "Check that input files have balanced sections",
		ArgsUsage: "FILE...",
		Before:    argsValidator(1),
		Action: func(ctx *cli.Context) error {
			failed := 0
			for _, path := range ctx.Args().Slice() {
				if err := checkInput(path); err != nil {
					fmt.Fprintf(ctx.App.ErrWriter, "%s: %s\n", path, err)
					failed++
					continue
				}
				logger.Debug("Input is well-formed", zap.String("file", path))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d input(s) are malformed", failed, ctx.Args().Len())
			}
			fmt.Fprintf(ctx.App.Writer, "%d input(s) are well-formed\n", ctx.Args().Len())
			return nil
		},
	}
}

func checkInput(path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = directive.Parse(file)
	return err
}
