package ci

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cp2k/fortools/fortools/prettify"
	"github.com/cp2k/fortools/fortools/runner"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func (self *Pipeline) tools(ctx context.Context) error {
	dir := filepath.Join(self.root, "tools")
	for _, args := range [][]string{{"clean"}, nil} {
		result, err := runner.Run(ctx, runner.Command{Name: self.makeCmd, Args: args, Dir: dir})
		if err != nil {
			return err
		}
		if !result.Success {
			self.logger.Warn("Tools build failed", zap.String("command", result.Command), zap.Int("exitCode", result.ExitCode))
		}
	}
	return nil
}

func (self *Pipeline) templates(ctx context.Context) error {
	const logName = "templateInstantiation.log"
	logPath := filepath.Join(self.report.LogDir, logName)
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		return err
	}

	srcDir := filepath.Join(self.root, "src")
	files, err := filepath.Glob(filepath.Join(srcDir, self.options.TemplateGlob))
	if err != nil {
		return fmt.Errorf("template glob: %w", err)
	}
	sort.Strings(files)

	if len(self.options.TemplateCommand) == 0 {
		return fmt.Errorf("no template command configured")
	}
	name := resolve(srcDir, self.options.TemplateCommand[0])

	for _, file := range files {
		args := append(append([]string(nil), self.options.TemplateCommand[1:]...), filepath.Base(file))

		var stdout strings.Builder
		result, err := runner.Run(ctx, runner.Command{
			Name:    name,
			Args:    args,
			Dir:     srcDir,
			LogFile: logPath,
			Append:  true,
			Stdout:  &stdout,
		})
		if err != nil {
			return err
		}
		if !result.Success {
			fmt.Fprintf(self.mainLog, "+ WARNING instantiating %s failed with exit code %d\n", filepath.Base(file), result.ExitCode)
			continue
		}

		for _, line := range strings.Split(stdout.String(), "\n") {
			if instance := strings.TrimSpace(line); instance != "" {
				self.report.Instances = append(self.report.Instances, filepath.Base(instance))
			}
		}
	}

	fmt.Fprintf(self.mainLog, " template generation logFile in '%s'\n", logName)
	return nil
}

// BuildLogName is the log file of one build type, e.g. `cp2kBuildSdbg.log`.
func BuildLogName(buildType string) string {
	return "cp2kBuild" + cases.Title(language.Und).String(buildType) + ".log"
}

func (self *Pipeline) build(ctx context.Context, buildType string, clean bool) error {
	logName := BuildLogName(buildType)
	logPath := filepath.Join(self.report.LogDir, logName)
	fmt.Fprintf(self.mainLog, "  compilation logFile in '%s'\n", logName)

	if clean {
		buildDir := filepath.Join(self.root, "obj", self.report.Arch, buildType)
		if err := os.RemoveAll(buildDir); err != nil {
			return fmt.Errorf("removing %s: %w", buildDir, err)
		}
	}

	result, err := runner.Run(ctx, runner.Command{
		Name:    self.makeCmd,
		Args:    []string{buildType},
		Dir:     filepath.Join(self.root, "makefiles"),
		LogFile: logPath,
		Append:  true,
	})
	if err != nil {
		return err
	}

	if result.Success {
		fmt.Fprintf(self.mainLog, "+++ build SUCESSFULL! +++\n")
		return appendFile(logPath, fmt.Sprintf("\n+++ build %s SUCESSFULLY! +++\n", buildType))
	}

	self.logger.Error("Build failed",
		zap.String("build", buildType),
		zap.Int("exitCode", result.ExitCode),
		zap.String("log", logPath),
	)
	self.report.FailedBuilds = append(self.report.FailedBuilds, buildType)
	fmt.Fprintf(self.mainLog, "+++ ERROR, build FAILED! +++\n")
	return appendFile(logPath, fmt.Sprintf("\n+++ ERROR, build %s FAILED! +++\n", buildType))
}

func (self *Pipeline) synopsisCandidates(srcDir string) ([]string, error) {
	set := make(map[string]struct{})
	for _, pattern := range self.options.SynopsisGlobs {
		matches, err := filepath.Glob(filepath.Join(srcDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("synopsis glob: %w", err)
		}
		for _, match := range matches {
			set[match] = struct{}{}
		}
	}
	for _, instance := range self.report.Instances {
		if !strings.HasPrefix(instance, "cp_") {
			set[filepath.Join(srcDir, instance)] = struct{}{}
		}
	}

	files := make([]string, 0, len(set))
	for file := range set {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

func (self *Pipeline) synopsis(ctx context.Context) error {
	const logName = "addSynopsis.log"
	srcDir := filepath.Join(self.root, "src")
	outDir := filepath.Join(srcDir, "outDir")

	if err := os.RemoveAll(outDir); err != nil {
		return err
	}
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return err
	}

	files, err := self.synopsisCandidates(srcDir)
	if err != nil {
		return err
	}

	prettifier, err := prettify.New(prettify.Options{
		InterfacesDir: filepath.Join(self.root, "obj", self.report.Arch, self.options.DebugBuild),
	}, self.logger)
	if err != nil {
		return err
	}

	synopsisLog := ""
	if err := prettifier.Files(ctx, outDir, files, self.options.Workers); err != nil {
		if ctx.Err() != nil {
			return err
		}
		synopsisLog = err.Error() + "\n"
	}
	if err := os.WriteFile(filepath.Join(self.report.LogDir, logName), []byte(synopsisLog), 0o644); err != nil {
		return err
	}

	generated, err := filepath.Glob(filepath.Join(outDir, "*.F"))
	if err != nil {
		return err
	}
	sort.Strings(generated)

	for _, path := range generated {
		name := filepath.Base(path)
		original := filepath.Join(srcDir, name)

		changed, line, err := CheckSynopsisDiff(path, original)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		if line != "" {
			fmt.Fprintf(self.mainLog,
				"+ WARNING checking synopsis for %s  found the unacceptable line.\n  line='%s'  synopsis not updated\n",
				name, line)
			self.report.RejectedSynopsis = append(self.report.RejectedSynopsis, name)
			continue
		}

		if err := os.Rename(path, original); err != nil {
			return fmt.Errorf("replacing %s: %w", original, err)
		}
		self.report.AcceptedSynopsis = append(self.report.AcceptedSynopsis, name)
	}

	fmt.Fprintf(self.mainLog, "  addSynopsis logFile in '%s'\n", logName)
	return nil
}

func (self *Pipeline) vcs(ctx context.Context) error {
	commands := []struct {
		command []string
		logName string
		what    string
	}{
		{command: self.options.VCSStatus, logName: "vcsUpdate.log", what: "vcs update log"},
		{command: self.options.VCSDiff, logName: "vcsDiff.log", what: "vcs diff log"},
	}

	for _, entry := range commands {
		if len(entry.command) == 0 {
			continue
		}
		result, err := runner.Run(ctx, runner.Command{
			Name:    entry.command[0],
			Args:    entry.command[1:],
			Dir:     self.root,
			LogFile: filepath.Join(self.report.LogDir, entry.logName),
		})
		if err != nil {
			return err
		}
		if !result.Success {
			self.logger.Warn("VCS command failed", zap.String("command", result.Command), zap.Int("exitCode", result.ExitCode))
		}
		fmt.Fprintf(self.mainLog, "  %s in '%s'\n", entry.what, entry.logName)
	}
	return nil
}
