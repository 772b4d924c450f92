package store

import (
	"strings"
	"unicode"
)

// ftsMetacharReplacer strips characters that are significant to FTS5's MATCH
// query syntax so user queries can't break or inject into it.
var ftsMetacharReplacer = strings.NewReplacer(`"`, "", "*", "", "^", "", `\`, "")

// isCJK reports whether r belongs to a script that is conventionally
// written without inter-word spaces (Han, Hiragana, Katakana, Hangul).
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// Tokenize splits text into lowercase tokens for indexing and querying.
// Every CJK codepoint becomes its own token; everything else is split on
// runs of letters/digits, matching whitespace/punctuation-delimited word
// boundaries. No stemming is applied.
func Tokenize(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(unicode.ToLower(r)))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// SanitizeFTSQuery strips FTS5 match-syntax metacharacters from a raw query
// term before it is wrapped as a prefix clause.
func SanitizeFTSQuery(term string) string {
	return ftsMetacharReplacer.Replace(term)
}
