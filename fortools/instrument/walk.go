package instrument

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cp2k/fortools/fortools/fsutil"
	"github.com/cp2k/fortools/fortools/textdiff"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var DefaultExtensions = []string{"f90", "f"}

type Options struct {
	// Extensions are matched case-insensitively, without the leading dot.
	Extensions []string
	Workers    int
	// DryRun prints a unified diff per file instead of writing it.
	DryRun bool
	// Output receives diagnostics and, in a dry run, the diffs.
	Output io.Writer
}

type Summary struct {
	Files   int
	Skipped int
	Changed int
	Calls   int
	Misses  int
	Failed  []string
}

// IsSource reports whether the file name carries one of the extensions.
func IsSource(name string, extensions []string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return false
	}
	ext := strings.ToLower(name[dot+1:])
	for _, candidate := range extensions {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// Collect lists the source files below the roots in lexical order.
func Collect(roots []string, extensions []string) ([]string, error) {
	files := make([]string, 0)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !IsSource(entry.Name(), extensions) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// InstrumentFile instruments one file in place. Files with misses are not
// written.
func (self *Instrumenter) InstrumentFile(path string, dryRun bool, output io.Writer) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Filename: path}, fmt.Errorf("reading %s: %w", path, err)
	}

	self.logger.Info("Scanning file", zap.String("file", path))

	result, instrumentErr := self.InstrumentSource(path, string(content))
	for _, diag := range result.Diagnostics {
		fmt.Fprintln(output, diag.Display(result.Original))
	}
	for _, miss := range result.Misses {
		fmt.Fprintln(output, miss.Diagnostic().Display(result.Output))
		fmt.Fprintf(output, "%s\n%s\n", strings.Repeat("=", 20), miss.Snippet)
	}
	if instrumentErr != nil {
		return result, instrumentErr
	}

	if result.Skipped || !result.Changed() {
		return result, nil
	}

	if dryRun {
		patch, err := textdiff.Unified(path, path, result.Original, result.Output)
		if err != nil {
			return result, err
		}
		fmt.Fprint(output, patch)
		return result, nil
	}

	if err := fsutil.WriteFile(path, []byte(result.Output), fsutil.Mode(path, 0o644)); err != nil {
		return result, err
	}
	return result, nil
}

// Walk instruments every source file below the roots. All files are
// processed even if some of them fail; the returned error wraps
// ErrMissedCalls if any file had misses.
func (self *Instrumenter) Walk(ctx context.Context, roots []string, options Options) (Summary, error) {
	if len(options.Extensions) == 0 {
		options.Extensions = DefaultExtensions
	}
	if options.Workers <= 0 {
		options.Workers = 1
	}
	if options.Output == nil {
		options.Output = io.Discard
	}

	files, err := Collect(roots, options.Extensions)
	if err != nil {
		return Summary{}, err
	}

	// Diagnostics of one file must not interleave with those of another.
	var lock sync.Mutex
	summary := Summary{Files: len(files)}
	var failures []error

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(options.Workers)

	for _, path := range files {
		path := path
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			var buffer strings.Builder
			result, err := self.InstrumentFile(path, options.DryRun, &buffer)

			lock.Lock()
			defer lock.Unlock()

			io.WriteString(options.Output, buffer.String())

			summary.Calls += len(result.Calls)
			summary.Misses += len(result.Misses)
			if result.Skipped {
				summary.Skipped++
			}
			if err != nil {
				self.logger.Error("Could not instrument file", zap.String("file", path), zap.Error(err))
				summary.Failed = append(summary.Failed, path)
				failures = append(failures, err)
				return nil
			}
			if result.Changed() {
				summary.Changed++
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	sort.Strings(summary.Failed)
	self.logger.Info("Instrumentation finished",
		zap.Int("files", summary.Files),
		zap.Int("changed", summary.Changed),
		zap.Int("calls", summary.Calls),
		zap.Int("failed", len(summary.Failed)),
	)

	return summary, errors.Join(failures...)
}
