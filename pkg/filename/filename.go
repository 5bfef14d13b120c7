// Package filename parses ebook filenames into structured bibliographic fields.
//
// Filenames in the wild follow several competing conventions ("Author - Title",
// "Title by Author", "[Series] Title (2001, Publisher)", archive dumps separated by
// " -- ", download-site suffixes...). Parse applies a fixed sequence of best-effort
// steps; a step that does not match simply leaves its fields unset.
package filename

import (
	"regexp"
	"strings"
)

// Extensions are the book extensions stripped from filenames, in no particular
// order. SplitExtension picks the longest one that matches.
var Extensions = []string{".mobi", ".djvu", ".txt", ".epub", ".pdf", ".azw3"}

const archiveSeparator = " -- "

var (
	whitespaceRE    = regexp.MustCompile(`\s+`)
	seriesRE        = regexp.MustCompile(`^[\[(]([^\])]+)[\])]\s*(.+)$`)
	yearPublisherRE = regexp.MustCompile(`\((\d{4}),\s*([^)]+)\)`)
	yearOnlyRE      = regexp.MustCompile(`\((\d{4})\)$`)
	trailingISBNRE  = regexp.MustCompile(`\s*\[([\dXx-]{10,17})\]$`)
	zlibRE          = regexp.MustCompile(`-?for\(z-lib.*?\)`)
	libgenRE        = regexp.MustCompile(`-?libgen.*$`)
	volumeRE        = regexp.MustCompile(`(Volume|V\.)\s*(\d+)`)
)

// Parsed is the structured form of a filename. Nil fields were not found.
type Parsed struct {
	Series    *string
	Authors   *string
	Title     *string
	Publisher *string
	Year      *string
	Volume    *string
	// ISBN is set when the name ends with a bracketed ISBN, which is how composed
	// names carry it.
	ISBN      *string
	Extension string
}

// TitleString returns the title or an empty string.
func (p *Parsed) TitleString() string {
	return deref(p.Title)
}

// AuthorsString returns the raw authors field or an empty string.
func (p *Parsed) AuthorsString() string {
	return deref(p.Authors)
}

// AuthorList splits the authors field into individual names.
func (p *Parsed) AuthorList() []string {
	return SplitNames(p.AuthorsString())
}

// Parse turns a raw filename (no directory) into a Parsed record. It never fails.
func Parse(name string) *Parsed {
	if strings.Contains(name, archiveSeparator) {
		return parseArchive(name)
	}

	p := &Parsed{}
	stem, ext := SplitExtension(name)
	p.Extension = ext

	s := Normalize(stem)

	if m := seriesRE.FindStringSubmatch(s); m != nil {
		p.Series = ptr(strings.TrimSpace(m[1]))
		s = m[2]
	}

	if m := trailingISBNRE.FindStringSubmatch(s); m != nil {
		p.ISBN = ptr(strings.ReplaceAll(m[1], "-", ""))
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	// Publisher/year annotations are assumed to terminate the title.
	if loc := yearPublisherRE.FindStringSubmatchIndex(s); loc != nil {
		p.Year = ptr(s[loc[2]:loc[3]])
		p.Publisher = ptr(strings.TrimSpace(s[loc[4]:loc[5]]))
		s = strings.TrimSpace(s[:loc[0]])
	} else if m := yearOnlyRE.FindStringSubmatch(s); m != nil {
		p.Year = ptr(m[1])
		s = strings.TrimSpace(yearOnlyRE.ReplaceAllString(s, ""))
	}

	s = strings.TrimSpace(zlibRE.ReplaceAllString(s, ""))
	s = strings.TrimSpace(libgenRE.ReplaceAllString(s, ""))

	if people, title, ok := strings.Cut(s, " - "); ok {
		p.Authors = nonEmpty(people)
		p.Title = nonEmpty(dropPublisherNoise(title))
	} else if title, people, ok := strings.Cut(s, " by "); ok {
		p.Authors = nonEmpty(people)
		p.Title = nonEmpty(dropPublisherNoise(title))
	} else {
		p.Title = nonEmpty(s)
	}

	if m := volumeRE.FindStringSubmatch(p.TitleString()); m != nil {
		p.Volume = ptr(m[2])
	}

	return p
}

// parseArchive handles the "title -- author -- edition -- publisher -- hash -- site"
// convention used by archive mirrors. It never carries series, year or publisher.
func parseArchive(name string) *Parsed {
	stem, ext := SplitExtension(name)
	parts := strings.SplitN(stem, archiveSeparator, 3)

	p := &Parsed{Extension: ext}
	p.Title = nonEmpty(parts[0])
	if len(parts) > 1 {
		p.Authors = nonEmpty(parts[1])
	}
	return p
}

// SplitExtension strips the longest whitelisted extension (case-insensitive) and
// returns the stem and the extension as it appeared. Unknown extensions are left
// on the stem.
func SplitExtension(name string) (string, string) {
	lower := strings.ToLower(name)
	best := ""
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return name, ""
	}
	cut := len(name) - len(best)
	return name[:cut], name[cut:]
}

// Normalize applies the filename clean-up used before parsing: "_ " becomes ": ",
// remaining underscores become spaces, en-dashes become hyphens and whitespace is
// collapsed.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "_ ", ": ")
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "–", "-")
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// dropPublisherNoise treats hyphens in the title half of a filename as noise. Many
// hyphens are word separators; a few usually mean a trailing publisher segment.
func dropPublisherNoise(title string) string {
	switch n := strings.Count(title, "-"); {
	case n > 3:
		title = strings.ReplaceAll(title, "-", " ")
		title = whitespaceRE.ReplaceAllString(title, " ")
	case n > 0:
		title = title[:strings.LastIndex(title, "-")]
	}
	return strings.TrimSpace(title)
}

// SplitNames splits a string of names by common delimiters (comma, semicolon and
// ampersand), trims whitespace from each name, and returns non-empty names.
func SplitNames(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	for _, segment := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == '&'
	}) {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func ptr(s string) *string {
	return &s
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
