package mediafile

import (
	"fmt"
)

const (
	DataSourceEPUBMetadata = "epub_metadata"
	DataSourcePDFMetadata  = "pdf_metadata"
)

// ParsedIdentifier represents an identifier parsed from file metadata.
type ParsedIdentifier struct {
	Type  string // One of the identifiers.Type constants (isbn_10, isbn_13) or empty for anything else
	Value string
}

// EmbeddedMetadata holds the bibliographic hints read from inside a document. A nil
// field was not present, which is different from a present but empty value.
type EmbeddedMetadata struct {
	Title  *string
	Author *string
	ISBN   *string
	Date   *string
	// DataSource is one of the DataSource constants, or empty when nothing was read.
	DataSource string
}

// IsEmpty reports whether no field was found.
func (m *EmbeddedMetadata) IsEmpty() bool {
	return m == nil || (m.Title == nil && m.Author == nil && m.ISBN == nil && m.Date == nil)
}

// TitleString returns the title or an empty string.
func (m *EmbeddedMetadata) TitleString() string {
	if m == nil || m.Title == nil {
		return ""
	}
	return *m.Title
}

// AuthorString returns the author or an empty string.
func (m *EmbeddedMetadata) AuthorString() string {
	if m == nil || m.Author == nil {
		return ""
	}
	return *m.Author
}

// ISBNString returns the ISBN or an empty string.
func (m *EmbeddedMetadata) ISBNString() string {
	if m == nil || m.ISBN == nil {
		return ""
	}
	return *m.ISBN
}

func (m *EmbeddedMetadata) String() string {
	return fmt.Sprintf("Title:       %s\nAuthor:      %s\nISBN:        %s\nDate:        %s\nData Source: %s",
		show(m.Title), show(m.Author), show(m.ISBN), show(m.Date), m.DataSource)
}

func show(s *string) string {
	if s == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *s)
}
