package inputgen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// References maps a cluster size to its known minimum energy.
type References map[int]float64

// ReadReferences parses `size value` lines. Blank lines and lines starting
// with `#` are skipped; extra columns are ignored.
func ReadReferences(r io.Reader) (References, error) {
	references := make(References)
	scanner := bufio.NewScanner(r)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected 'size value', found %q", lineNumber, line)
		}

		size, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid size %q", lineNumber, fields[0])
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q", lineNumber, fields[1])
		}
		references[size] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading references: %w", err)
	}

	return references, nil
}

func ReadReferencesFile(path string) (References, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening references: %w", err)
	}
	defer file.Close()

	references, err := ReadReferences(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return references, nil
}
