package resolver

import (
	"strings"

	"github.com/shishobooks/bookorg/pkg/textutil"
)

// VerifyAuthor reports whether any word (three or more letters) of any of the
// authors appears as a word of context, which is usually the original filename.
func VerifyAuthor(authors []string, context string) bool {
	if len(authors) == 0 || context == "" {
		return false
	}

	tokens := make(map[string]struct{})
	for _, w := range textutil.Words(context) {
		tokens[w] = struct{}{}
	}

	for _, author := range authors {
		for _, w := range textutil.Words(strings.ReplaceAll(author, ",", "")) {
			if _, ok := tokens[w]; ok {
				return true
			}
		}
	}
	return false
}
