// Package textutil provides the text folding and tokenization shared by the
// classifier and the author check.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinWordLength is the shortest word Words keeps.
const MinWordLength = 3

// Fold lower-cases s and strips diacritics so "Química" and "quimica" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Words folds text and splits it on anything that is not a letter or digit, keeping
// words of at least MinWordLength runes.
func Words(text string) []string {
	raw := strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := raw[:0]
	for _, w := range raw {
		if utf8.RuneCountInString(w) >= MinWordLength {
			words = append(words, w)
		}
	}
	return words
}
