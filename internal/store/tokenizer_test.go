package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesASCIIWords(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, Tokenize("Hello, World!"))
}

func TestTokenizeSplitsEachCJKCodepoint(t *testing.T) {
	tokens := Tokenize("东京タワー")
	assert.Equal(t, []string{"东", "京", "タ", "ワ", "ー"}, tokens)
}

func TestTokenizeMixedScriptText(t *testing.T) {
	tokens := Tokenize("visit 東京 today")
	assert.Equal(t, []string{"visit", "東", "京", "today"}, tokens)
}

func TestTokenizeEmptyString(t *testing.T) {
	assert.Empty(t, Tokenize(""))
}

func TestTokenizeDoesNotStemASCIIWords(t *testing.T) {
	tokens := Tokenize("running runs runner")
	assert.Equal(t, []string{"running", "runs", "runner"}, tokens)
}

func TestSanitizeFTSQueryStripsMetacharacters(t *testing.T) {
	assert.Equal(t, "term", SanitizeFTSQuery(`"term"*^\`))
}
