// Package htmlutil extracts readable text from HTML and XHTML documents.
package htmlutil

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// blockSelector lists elements that end a visual line.
const blockSelector = "p, div, li, tr, blockquote, section, h1, h2, h3, h4, h5, h6"

var horizontalSpacePattern = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)

// Text parses an HTML document and returns its visible text. Block-level elements
// and <br> become line breaks, scripts and styles are dropped, entities are decoded
// and whitespace is collapsed within each line. Empty lines are removed.
func Text(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errors.WithStack(err)
	}

	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).AppendHtml("\n")

	return normalizeLines(doc.Text()), nil
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpacePattern.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
