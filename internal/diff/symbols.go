// # internal/diff/symbols.go
package diff

import (
	"regexp"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Definition headers recognized in changed lines and hunk section headings.
// This is deliberately shallow: anything it misses degrades the entry to
// file-level granularity, never fails the parse.
var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)`),
}

func extractSymbols(fd *godiff.FileDiff) []string {
	var symbols []string
	seen := make(map[string]bool)

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			symbols = append(symbols, name)
		}
	}

	for _, hunk := range fd.Hunks {
		// Hunk section heading, e.g. "@@ -1,4 +1,6 @@ def handler".
		add(matchDefinition(strings.TrimSpace(hunk.Section)))

		for _, line := range strings.Split(string(hunk.Body), "\n") {
			if len(line) == 0 || (line[0] != '+' && line[0] != '-') {
				continue
			}
			add(matchDefinition(strings.TrimSpace(line[1:])))
		}
	}

	return symbols
}

func matchDefinition(line string) string {
	for _, pattern := range definitionPatterns {
		if m := pattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}
