package vectorstore

import (
	"strings"
	"unicode"
)

// Split cuts text into chunks of at most size runes, each starting overlap runes
// before the end of the previous one. Cuts prefer whitespace in the last quarter of a chunk.
func Split(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 || size < 1 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := min(start+size, len(runes))
		if end < len(runes) {
			end = softBoundary(runes, start, end, size)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func softBoundary(runes []rune, start, end, size int) int {
	floor := end - size/4
	for i := end; i > floor && i > start+1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
