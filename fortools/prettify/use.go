package prettify

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxLineLength = 80

var (
	useStart     = regexp.MustCompile(`(?i)^\s*use\s+[a-z_]`)
	useStatement = regexp.MustCompile(`(?i)^(\s*)use\s+([a-z_][a-z0-9_]*)\s*(?:,\s*only\s*:\s*(.*?))?\s*$`)
	renameArrow  = regexp.MustCompile(`\s*=>\s*`)
)

// NormalizeUse rewrites `USE module, ONLY: a, b` statements into one
// canonical form: lower case module name, upper case keywords, no
// duplicated names and wrapped continuation lines. Statements carrying
// comments or string literals are left alone.
func NormalizeUse(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for idx := 0; idx < len(lines); idx++ {
		if !useStart.MatchString(lines[idx]) {
			out = append(out, lines[idx])
			continue
		}

		end := idx
		for end+1 < len(lines) && strings.HasSuffix(strings.TrimRight(lines[end], " \t\r"), "&") {
			end++
		}
		statement := lines[idx : end+1]
		idx = end

		normalized, ok := normalizeStatement(statement)
		if !ok {
			out = append(out, statement...)
			continue
		}
		out = append(out, normalized...)
	}

	return strings.Join(out, "\n")
}

func normalizeStatement(lines []string) ([]string, bool) {
	parts := make([]string, len(lines))
	for idx, line := range lines {
		if strings.ContainsAny(line, "!\"'") {
			return nil, false
		}
		part := strings.TrimRight(line, " \t\r")
		part = strings.TrimSuffix(part, "&")
		if idx > 0 {
			part = strings.TrimLeft(part, " \t")
			part = strings.TrimPrefix(part, "&")
		}
		parts[idx] = part
	}

	joined := strings.Join(parts, " ")
	match := useStatement.FindStringSubmatchIndex(joined)
	if match == nil {
		return nil, false
	}
	indent := joined[match[2]:match[3]]
	prefix := indent + "USE " + cases.Lower(language.Und).String(joined[match[4]:match[5]])
	if match[6] < 0 {
		return []string{prefix}, true
	}
	only := joined[match[6]:match[7]]

	seen := make(map[string]struct{})
	items := make([]string, 0)
	for _, item := range strings.Split(only, ",") {
		item = renameArrow.ReplaceAllString(strings.Join(strings.Fields(item), " "), " => ")
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}

	return wrapList(prefix+", ONLY:", items), true
}

// wrapList appends the items to prefix, continuing onto aligned lines
// whenever a line would exceed maxLineLength.
func wrapList(prefix string, items []string) []string {
	lines := make([]string, 0, 1)
	continuation := strings.Repeat(" ", len(prefix)+1)

	current := prefix
	count := 0
	for idx, item := range items {
		piece := item
		if idx < len(items)-1 {
			piece += ","
		}
		if count > 0 && len(current)+1+len(piece)+2 > maxLineLength {
			lines = append(lines, current+" &")
			current = continuation + piece
			count = 1
			continue
		}
		current += " " + piece
		count++
	}

	return append(lines, current)
}
