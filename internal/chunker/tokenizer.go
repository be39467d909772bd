package chunker

import (
	"strings"
	"unicode"
)

// Token is a single word occurrence with its byte offsets in the source
// text. Offsets allow chunk text to be sliced out of the original
// document without ever splitting inside a word.
type Token struct {
	// Text is the token as it appears in the source.
	Text string

	// Start is the byte offset of the token's first rune.
	Start int

	// End is the byte offset just past the token's last rune.
	End int
}

// isWordRune reports whether r belongs inside a token. Tokens are maximal
// runs of letters, digits and underscores; everything else (whitespace,
// punctuation, markup symbols) is a boundary.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Tokenize splits text into whitespace/punctuation-aware word tokens.
// It is deterministic and used for both indexing and query parsing so the
// two sides always agree on term boundaries.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: text[start:], Start: start, End: len(text)})
	}

	return tokens
}

// Terms returns the lowercased token texts, the normalized form used by
// the lexical index and its queries.
func Terms(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = strings.ToLower(tok.Text)
	}
	return terms
}
