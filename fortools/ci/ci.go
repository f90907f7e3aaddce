// Package ci prepares a source tree for check-in: it rebuilds the tools,
// instantiates templates, builds the debug and the optimized binaries,
// refreshes synopsis comments and optionally records the VCS state. Every
// step logs below a fresh `test-<arch>-<date>` directory.
package ci

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cp2k/fortools/fortools/logging"
	"github.com/cp2k/fortools/fortools/runner"
	"github.com/cp2k/fortools/fortools/suggest"
	"go.uber.org/zap"
)

// ErrBuildFailed is returned after all steps ran if any build failed.
var ErrBuildFailed = errors.New("build failed")

const (
	StepTools     = "tools"
	StepTemplates = "templates"
	StepDebug     = "build-sdbg"
	StepSynopsis  = "synopsis"
	StepOptimized = "build-sopt"
	StepVCS       = "vcs"
)

// StepNames lists the steps in the order they run.
func StepNames() []string {
	return []string{StepTools, StepTemplates, StepDebug, StepSynopsis, StepOptimized, StepVCS}
}

type Options struct {
	Root string
	// Make lists build tool candidates, the first one found is used.
	Make            []string
	ArchCommand     []string
	DebugBuild      string
	OptimizedBuild  string
	TemplateGlob    string
	TemplateCommand []string
	SynopsisGlobs   []string
	VCS             bool
	VCSStatus       []string
	VCSDiff         []string
	// Only restricts the run to the named steps.
	Only    []string
	Workers int
	Now     func() time.Time
}

type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

type Report struct {
	Arch             string
	LogDir           string
	Steps            []StepResult
	Instances        []string
	FailedBuilds     []string
	AcceptedSynopsis []string
	RejectedSynopsis []string
}

type step struct {
	name  string
	title string
	run   func(ctx context.Context) error
}

type Pipeline struct {
	options Options
	logger  *zap.Logger
	steps   []step

	root    string
	makeCmd string
	mainLog io.Writer
	report  Report
}

func New(options Options, logger *zap.Logger) (*Pipeline, error) {
	for _, name := range options.Only {
		if !isStep(name) {
			return nil, suggest.UnknownError("step", name, StepNames())
		}
	}
	if len(options.Make) == 0 {
		return nil, errors.New("no build tool candidates configured")
	}
	if len(options.ArchCommand) == 0 {
		return nil, errors.New("no arch command configured")
	}
	if options.DebugBuild == "" || options.OptimizedBuild == "" {
		return nil, errors.New("build types must not be empty")
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Workers < 1 {
		options.Workers = 1
	}

	root, err := filepath.Abs(options.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	pipeline := &Pipeline{
		options: options,
		logger:  logging.OrNop(logger),
		root:    root,
	}
	pipeline.steps = []step{
		{name: StepTools, title: "cleaning tools", run: pipeline.tools},
		{name: StepTemplates, title: "instantiating templates", run: pipeline.templates},
		{name: StepDebug, title: "dirty compiling " + options.DebugBuild, run: func(ctx context.Context) error {
			return pipeline.build(ctx, options.DebugBuild, false)
		}},
		{name: StepSynopsis, title: "updating synopsis", run: pipeline.synopsis},
		{name: StepOptimized, title: "clean compile " + options.OptimizedBuild, run: func(ctx context.Context) error {
			return pipeline.build(ctx, options.OptimizedBuild, true)
		}},
		{name: StepVCS, title: "vcs state", run: pipeline.vcs},
	}
	return pipeline, nil
}

func isStep(name string) bool {
	for _, candidate := range StepNames() {
		if candidate == name {
			return true
		}
	}
	return false
}

func (self *Pipeline) selected(name string) bool {
	if len(self.options.Only) == 0 {
		return name != StepVCS || self.options.VCS
	}
	for _, only := range self.options.Only {
		if only == name {
			return true
		}
	}
	return false
}

// Run executes the selected steps. A failing step is logged and the
// remaining steps still run.
func (self *Pipeline) Run(ctx context.Context) (Report, error) {
	makeCmd, err := runner.FindExecutable(self.options.Make...)
	if err != nil {
		return self.report, fmt.Errorf("build tool: %w", err)
	}
	self.makeCmd = makeCmd

	arch, err := runner.Output(ctx, self.root, resolve(self.root, self.options.ArchCommand[0]), self.options.ArchCommand[1:]...)
	if err != nil {
		return self.report, fmt.Errorf("determining arch: %w", err)
	}
	self.report.Arch = arch

	logDir := filepath.Join(self.root, fmt.Sprintf("test-%s-%s", arch, self.options.Now().Format("060102-15:04")))
	if err := os.Mkdir(logDir, 0o755); err != nil {
		return self.report, fmt.Errorf("creating log directory: %w", err)
	}
	self.report.LogDir = logDir

	mainLog, err := os.Create(filepath.Join(logDir, "main.log"))
	if err != nil {
		return self.report, fmt.Errorf("creating main log: %w", err)
	}
	defer mainLog.Close()
	self.mainLog = mainLog

	self.logger.Info("Preparing check-in",
		zap.String("root", self.root),
		zap.String("logDirectory", logDir),
		zap.String("make", makeCmd),
	)

	var failures []error
	for _, current := range self.steps {
		if !self.selected(current.name) {
			continue
		}

		fmt.Fprintf(self.mainLog, "===== %s =====\n", current.title)
		self.logger.Info("Running step", zap.String("step", current.name))

		start := time.Now()
		err := current.run(ctx)
		self.report.Steps = append(self.report.Steps, StepResult{Name: current.name, Duration: time.Since(start), Err: err})

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return self.report, ctxErr
			}
			fmt.Fprintf(self.mainLog, "+ ERROR in step %s: %s\n", current.name, err)
			self.logger.Error("Step failed", zap.String("step", current.name), zap.Error(err))
			failures = append(failures, fmt.Errorf("%s: %w", current.name, err))
		}
	}

	if len(self.report.FailedBuilds) > 0 {
		failures = append(failures, fmt.Errorf("%s: %w", strings.Join(self.report.FailedBuilds, ", "), ErrBuildFailed))
	}
	return self.report, errors.Join(failures...)
}

// resolve makes a relative command path with a directory part relative to
// dir. Bare names are looked up on PATH.
func resolve(dir string, name string) string {
	if filepath.IsAbs(name) || !strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(dir, name)
}

func appendFile(path string, text string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(file, text); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
