package models

import (
	"strings"
	"unicode/utf8"
)

const (
	CategoryUncategorized = "uncategorized"
	CategoryNoMetadata    = "no-metadata"
)

// Metadata is the normalized bibliographic record produced by a lookup. A nil
// *Metadata means the file could not be resolved.
type Metadata struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Published  string   `json:"published"`
	ISBN       string   `json:"isbn"`
	Publisher  string   `json:"publisher"`
	Categories []string `json:"categories"`
	ImageURL   *string  `json:"image_url,omitempty"`
}

// Normalize enforces the invariants every client must return: no nil slices,
// lower-cased categories defaulting to "uncategorized", and a published value of
// at most four characters.
func (m *Metadata) Normalize() *Metadata {
	m.Title = strings.TrimSpace(m.Title)
	m.Publisher = strings.TrimSpace(m.Publisher)
	m.ISBN = strings.TrimSpace(m.ISBN)

	authors := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	m.Authors = authors

	categories := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		categories = []string{CategoryUncategorized}
	}
	m.Categories = categories

	m.Published = truncateRunes(strings.TrimSpace(m.Published), 4)

	if m.ImageURL != nil && strings.TrimSpace(*m.ImageURL) == "" {
		m.ImageURL = nil
	}

	return m
}

// HasPlaceholderCategory reports whether the categories are missing or contain the
// "uncategorized" placeholder.
func (m *Metadata) HasPlaceholderCategory() bool {
	if len(m.Categories) == 0 {
		return true
	}
	for _, c := range m.Categories {
		if c == CategoryUncategorized {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
