package ingest

import "strings"

// Chunk splits plain text into retrievable units on blank-line
// paragraph boundaries. Each piece is trimmed and empty pieces are
// discarded, so degenerate input yields an empty slice.
func Chunk(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}
