// Package prettify normalises Fortran sources: canonical USE statements,
// configured renames, upper case keywords and synopsis comment blocks
// regenerated from interface files.
package prettify

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cp2k/fortools/fortools/fsutil"
	"github.com/cp2k/fortools/fortools/logging"
	"github.com/creachadair/atomicfile"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	NormalizeUse bool
	Replace      bool
	Replacements map[string]string
	Upcase       bool
	// InterfacesDir enables the synopsis stage. It holds one `<name>.int`
	// file per source.
	InterfacesDir string
}

// Stages lists the stage names in the order they run.
var Stages = []string{"normalize-use", "replace", "upcase", "synopsis"}

type Prettifier struct {
	options  Options
	replacer *Replacer
	logger   *zap.Logger
}

func New(options Options, logger *zap.Logger) (*Prettifier, error) {
	var replacer *Replacer
	if options.Replace {
		var err error
		if replacer, err = NewReplacer(options.Replacements); err != nil {
			return nil, err
		}
	}

	return &Prettifier{
		options:  options,
		replacer: replacer,
		logger:   logging.OrNop(logger),
	}, nil
}

// Source runs the enabled stages on the text of the named file.
func (self *Prettifier) Source(filename string, text string) (string, error) {
	if self.options.NormalizeUse {
		text = NormalizeUse(text)
	}

	if self.options.Replace {
		replaced, err := self.replacer.Replace(filename, text)
		if err != nil {
			return "", err
		}
		text = replaced
	}

	if self.options.Upcase {
		upcased, err := Upcase(filename, text)
		if err != nil {
			return "", err
		}
		text = upcased
	}

	if self.options.InterfacesDir != "" {
		synopsis, err := self.synopsis(filename, text)
		if err != nil {
			return "", err
		}
		text = synopsis
	}

	return text, nil
}

func (self *Prettifier) synopsis(filename string, text string) (string, error) {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(self.options.InterfacesDir, name+".int")

	content, err := os.ReadFile(path)
	if stderrors.Is(err, os.ErrNotExist) {
		self.logger.Warn("Skipping synopsis, no interface file", zap.String("file", filename), zap.String("interface", path))
		return text, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading interfaces: %w", err)
	}

	result, updated := AddSynopsis(text, ParseInterfaces(string(content)))
	self.logger.Debug("Updated synopsis", zap.String("file", filename), zap.Int("blocks", updated))
	return result, nil
}

// File prettifies input into outDir under the same base name. On failure
// no output file is left behind; instead the input is copied to
// `<output>.err` for inspection.
func (self *Prettifier) File(input string, outDir string) error {
	content, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	output := filepath.Join(outDir, filepath.Base(input))
	out, err := atomicfile.New(output, fsutil.Mode(input, 0o644))
	if err != nil {
		return fmt.Errorf("opening %s: %w", output, err)
	}
	defer out.Cancel()

	result, err := self.Source(input, string(content))
	if err == nil {
		_, err = out.Write([]byte(result))
	}
	if err == nil {
		return out.Close()
	}

	self.logger.Error("Could not prettify file", zap.String("file", input), zap.Error(err))
	if writeErr := fsutil.WriteFile(output+".err", content, 0o644); writeErr != nil {
		return stderrors.Join(err, writeErr)
	}
	return fmt.Errorf("processing %s: %w", input, err)
}

// Files prettifies all inputs in parallel. Every file is attempted; the
// returned error joins the individual failures.
func (self *Prettifier) Files(ctx context.Context, outDir string, inputs []string, workers int) error {
	info, err := os.Stat(outDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("out_dir %s must be a directory", outDir)
	}
	if workers < 1 {
		workers = 1
	}

	var lock sync.Mutex
	var failures []error

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, input := range inputs {
		input := input
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if err := self.File(input, outDir); err != nil {
				lock.Lock()
				failures = append(failures, err)
				lock.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return stderrors.Join(failures...)
}
