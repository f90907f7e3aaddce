// Package inputgen writes the global optimisation test inputs for
// Lennard-Jones clusters of increasing size.
package inputgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cp2k/fortools/fortools/directive"
	"github.com/cp2k/fortools/fortools/fsutil"
	"github.com/cp2k/fortools/fortools/logging"
	"go.uber.org/zap"
)

type Options struct {
	References      References
	MinSize         int
	MaxSize         int
	EnergyFactor    float64
	LatticeConstant float64
	// OutputPattern is a format string taking the size, e.g. `LJ%03d.inp`.
	OutputPattern string
	OutputDir     string
	// Check re-parses every document before it is written.
	Check bool
}

type Generator struct {
	options Options
	logger  *zap.Logger
}

func NewGenerator(options Options, logger *zap.Logger) (*Generator, error) {
	if options.MinSize < 1 || options.MaxSize < options.MinSize {
		return nil, fmt.Errorf("invalid size range %d..%d", options.MinSize, options.MaxSize)
	}
	if options.OutputPattern == "" {
		options.OutputPattern = "LJ%03d.inp"
	}
	if options.OutputDir == "" {
		options.OutputDir = "."
	}
	if !strings.Contains(options.OutputPattern, "%") {
		return nil, fmt.Errorf("output pattern %q does not depend on the size", options.OutputPattern)
	}

	return &Generator{
		options: options,
		logger:  logging.OrNop(logger),
	}, nil
}

// Emin is the energy threshold at which the search for the given size stops.
func (self *Generator) Emin(size int) (float64, error) {
	reference, ok := self.options.References[size]
	if !ok {
		return 0, fmt.Errorf("no reference energy for size %d", size)
	}
	return self.options.EnergyFactor * reference, nil
}

// Render returns the input text for one size.
func (self *Generator) Render(size int) (string, error) {
	emin, err := self.Emin(size)
	if err != nil {
		return "", err
	}

	document, err := Document(size, emin, self.options.LatticeConstant)
	if err != nil {
		return "", fmt.Errorf("size %d: %w", size, err)
	}
	text := document.String()

	if self.options.Check {
		if _, err := directive.ParseString(text); err != nil {
			return "", fmt.Errorf("size %d: generated document is malformed: %w", size, err)
		}
	}
	return text, nil
}

// Run writes one input file per size and returns their paths.
func (self *Generator) Run(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(self.options.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	written := make([]string, 0, self.options.MaxSize-self.options.MinSize+1)
	for size := self.options.MinSize; size <= self.options.MaxSize; size++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		text, err := self.Render(size)
		if err != nil {
			return written, err
		}

		path := filepath.Join(self.options.OutputDir, fmt.Sprintf(self.options.OutputPattern, size))
		self.logger.Info("Writing input", zap.String("file", path), zap.Int("size", size))

		if err := fsutil.WriteFile(path, []byte(text), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}
