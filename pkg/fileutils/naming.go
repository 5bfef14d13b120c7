package fileutils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shishobooks/bookorg/pkg/categorizer"
	"github.com/shishobooks/bookorg/pkg/models"
)

// MaxAuthorsInName is the most authors a composed name lists in full. Longer lists
// are cut to the first two.
const MaxAuthorsInName = 3

const maxFieldLength = 200

var (
	controlCharsRE = regexp.MustCompile(`[\x00-\x1f]`)
	spacesRE       = regexp.MustCompile(`\s+`)
)

// ComposeName builds the display filename for a book:
// "Authors - Title (Year) [ISBN].ext". Missing parts are left out. Without metadata
// the original name is kept as it is apart from "_ " turning back into ": " and
// slashes into underscores. The extension always comes from name.
func ComposeName(name string, md *models.Metadata) string {
	if md == nil {
		name = strings.ReplaceAll(name, "_ ", ": ")
		return strings.ReplaceAll(name, "/", "_")
	}

	ext := filepath.Ext(name)
	authors := md.Authors
	if len(authors) > MaxAuthorsInName {
		authors = authors[:2]
	}

	var b strings.Builder
	if joined := sanitizeForFilename(strings.Join(authors, ", ")); joined != "" {
		b.WriteString(joined)
		b.WriteString(" - ")
	}
	b.WriteString(sanitizeForFilename(md.Title))
	if published := sanitizeForFilename(md.Published); published != "" {
		b.WriteString(" (" + published + ")")
	}
	if isbn := sanitizeForFilename(md.ISBN); isbn != "" {
		b.WriteString(" [" + isbn + "]")
	}
	b.WriteString(ext)
	return b.String()
}

// ComposeCategories returns the categories a book is filed under, most relevant
// first. The result is never empty.
//
// Publisher categories are used as they are unless they are missing or hold the
// "uncategorized" placeholder, in which case the title is classified and the
// placeholder dropped. Unresolved books are filed under "no-metadata" first, with
// any categories classified from the composed name after it.
func ComposeCategories(md *models.Metadata, rawName string, c *categorizer.Categorizer) []string {
	if md == nil {
		composed := strings.ToLower(ComposeName(rawName, nil))
		return append([]string{models.CategoryNoMetadata}, c.Classify(composed)...)
	}

	if !md.HasPlaceholderCategory() {
		return append([]string(nil), md.Categories...)
	}

	var categories []string
	for _, category := range md.Categories {
		if category != models.CategoryUncategorized {
			categories = append(categories, category)
		}
	}
	categories = append(categories, c.Classify(md.Title)...)
	if len(categories) == 0 {
		return []string{models.CategoryUncategorized}
	}
	return categories
}

// sanitizeForFilename makes a single name component safe to use as a path element.
// Slashes become underscores so the component never turns into a directory.
func sanitizeForFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = controlCharsRE.ReplaceAllString(name, "")
	name = spacesRE.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if len(name) > maxFieldLength {
		cut := maxFieldLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.TrimSpace(name[:cut])
	}

	return name
}
