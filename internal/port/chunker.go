package port

// Chunker splits raw text into an ordered sequence of overlapping passages.
// Size and overlap are measured in runes; zero values select the defaults.
type Chunker interface {
	Chunk(content string, size, overlap int) []string
}
