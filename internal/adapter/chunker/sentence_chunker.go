package chunker

import (
	"strings"

	"ragengine/internal/domain"
)

// SentenceChunker splits text into overlapping passages, preferring to cut at
// sentence boundaries. Sizes are measured in runes so multi-byte text is never
// split inside a code point.
type SentenceChunker struct{}

func NewSentenceChunker() *SentenceChunker {
	return &SentenceChunker{}
}

// Chunk walks the content and emits passages of at most size runes. When a
// cut point falls mid-sentence, the cut is moved back to the nearest sentence
// end within a tolerance window; if none is found the passage is force-cut at
// the rune limit. Each passage after the first begins overlap runes before the
// end of the previous one.
func (c *SentenceChunker) Chunk(content string, size, overlap int) []string {
	if size <= 0 {
		size = domain.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = domain.DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 5
	}

	text := strings.TrimSpace(content)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	tolerance := size / 5
	if tolerance < 1 {
		tolerance = 1
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := sentenceBoundaryBefore(runes, start, end, tolerance); cut > start {
			end = cut
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// sentenceBoundaryBefore scans backward from end for the nearest sentence
// terminator within the tolerance window. Returns the rune index just past the
// terminator, or -1 when the window holds none.
func sentenceBoundaryBefore(runes []rune, start, end, tolerance int) int {
	low := end - tolerance
	if low < start+1 {
		low = start + 1
	}
	for i := end - 1; i >= low; i-- {
		if isSentenceEnd(runes[i]) {
			return i + 1
		}
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？':
		return true
	}
	return false
}
