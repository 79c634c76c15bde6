package chunker

import "strings"

// Split breaks a note body into embedding units. Each non-blank line
// becomes one chunk, preserving document order. Blank and
// whitespace-only lines are dropped, so a body of only blank lines
// yields no chunks.
func Split(body string) []string {
	lines := strings.Split(body, "\n")

	chunks := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, trimmed)
	}

	return chunks
}
