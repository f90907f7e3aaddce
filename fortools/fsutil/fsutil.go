// Package fsutil holds the file helpers shared by the tools.
package fsutil

import (
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"
)

// WriteFile replaces path with data atomically: readers see either the old
// or the new content, never a partial write.
func WriteFile(path string, data []byte, mode os.FileMode) error {
	out, err := atomicfile.New(path, mode)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer out.Cancel()

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// Mode returns the permission bits of path, or fallback if it does not exist.
func Mode(path string, fallback os.FileMode) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return fallback
	}
	return info.Mode().Perm()
}
