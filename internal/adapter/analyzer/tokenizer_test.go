package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndDropsStopwords(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("The Quick brown FOX jumps over the lazy dog")
	assert.Equal(t, []string{"quick", "brown", "fox", "jumps", "over", "lazy", "dog"}, tokens)
}

func TestTokenizeUnicode(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("café Zürich 東京")
	assert.Contains(t, tokens, "café")
	assert.Contains(t, tokens, "zürich")
	assert.Contains(t, tokens, "東京")
}

func TestTermFrequencies(t *testing.T) {
	tok := NewTokenizer()

	tf := tok.TermFrequencies("fox fox dog")
	assert.Equal(t, 2, tf["fox"])
	assert.Equal(t, 1, tf["dog"])
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer()
	assert.Empty(t, tok.Tokenize("  ...  "))
}
