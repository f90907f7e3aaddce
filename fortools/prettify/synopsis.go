package prettify

import (
	"regexp"
	"strings"
)

var (
	procedureStart = regexp.MustCompile(`(?i)^\s*(?:(?:recursive|pure|elemental|integer|real|logical|complex|character|double\s+precision|type\s*\([^)]*\)|[a-z]+\s*\([^)]*\))\s+)*(subroutine|function)\s+([a-z_][a-z0-9_]*)`)
	procedureEnd   = regexp.MustCompile(`(?i)^\s*end\s*(subroutine|function)\b`)
	synopsisHeader = regexp.MustCompile(`(?i)^\s*!!\s*synopsis\s*$`)
	blankMarker    = regexp.MustCompile(`^\s*!!\s*$`)
)

// Interfaces maps lower case procedure names to their interface lines.
type Interfaces map[string][]string

// ParseInterfaces reads the procedure interfaces of an interface file.
func ParseInterfaces(text string) Interfaces {
	interfaces := make(Interfaces)
	lines := strings.Split(text, "\n")

	for idx := 0; idx < len(lines); idx++ {
		match := procedureStart.FindStringSubmatch(lines[idx])
		if match == nil {
			continue
		}
		name := strings.ToLower(match[2])

		block := make([]string, 0)
		for ; idx < len(lines); idx++ {
			block = append(block, strings.TrimRight(lines[idx], " \t\r"))
			if procedureEnd.MatchString(lines[idx]) {
				break
			}
		}
		interfaces[name] = dedent(block)
	}

	return interfaces
}

func dedent(lines []string) []string {
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}

	result := make([]string, len(lines))
	for idx, line := range lines {
		if len(line) >= common && common > 0 {
			line = line[common:]
		}
		result[idx] = line
	}
	return result
}

// AddSynopsis replaces the `!! SYNOPSIS` section in the comment block
// above every procedure definition which has an interface. It returns the
// new text and the number of updated blocks.
func AddSynopsis(text string, interfaces Interfaces) (string, int) {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	updated := 0

	for idx, line := range lines {
		out = append(out, line)

		if idx+1 >= len(lines) {
			continue
		}
		match := procedureStart.FindStringSubmatch(lines[idx+1])
		if match == nil || procedureEnd.MatchString(lines[idx+1]) {
			continue
		}
		iface, ok := interfaces[strings.ToLower(match[2])]
		if !ok {
			continue
		}

		if replaced, ok := replaceSynopsis(out, iface); ok {
			out = replaced
			updated++
		}
	}

	return strings.Join(out, "\n"), updated
}

// replaceSynopsis rewrites the trailing comment block of lines.
func replaceSynopsis(lines []string, iface []string) ([]string, bool) {
	blockStart := len(lines)
	for blockStart > 0 && strings.HasPrefix(strings.TrimSpace(lines[blockStart-1]), "!") {
		blockStart--
	}

	header := -1
	for idx := blockStart; idx < len(lines); idx++ {
		if synopsisHeader.MatchString(lines[idx]) {
			header = idx
			break
		}
	}
	if header < 0 {
		return nil, false
	}

	bodyEnd := len(lines)
	for idx := header + 1; idx < len(lines); idx++ {
		if blankMarker.MatchString(lines[idx]) {
			bodyEnd = idx
			break
		}
	}

	indent := lines[header][:len(lines[header])-len(strings.TrimLeft(lines[header], " \t"))]
	result := make([]string, 0, len(lines)+len(iface))
	result = append(result, lines[:header+1]...)
	for _, ifaceLine := range iface {
		result = append(result, strings.TrimRight(indent+"!!   "+ifaceLine, " "))
	}
	if bodyEnd == len(lines) {
		result = append(result, indent+"!!")
	}
	result = append(result, lines[bodyEnd:]...)

	return result, true
}
