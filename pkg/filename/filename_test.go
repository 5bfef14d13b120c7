package filename

import (
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected *Parsed
	}{
		{
			name:  "author dash title",
			input: "Jane Doe - A Tale of Code.pdf",
			expected: &Parsed{
				Authors:   pointerutil.String("Jane Doe"),
				Title:     pointerutil.String("A Tale of Code"),
				Extension: ".pdf",
			},
		},
		{
			name:  "year and publisher",
			input: "Book Title (2021, Wiley).pdf",
			expected: &Parsed{
				Title:     pointerutil.String("Book Title"),
				Year:      pointerutil.String("2021"),
				Publisher: pointerutil.String("Wiley"),
				Extension: ".pdf",
			},
		},
		{
			name:  "year and publisher truncate the rest",
			input: "Book Title (2021, O'Reilly Media) extra words.epub",
			expected: &Parsed{
				Title:     pointerutil.String("Book Title"),
				Year:      pointerutil.String("2021"),
				Publisher: pointerutil.String("O'Reilly Media"),
				Extension: ".epub",
			},
		},
		{
			name:  "archive convention",
			input: "My Book -- John Doe.pdf",
			expected: &Parsed{
				Title:     pointerutil.String("My Book"),
				Authors:   pointerutil.String("John Doe"),
				Extension: ".pdf",
			},
		},
		{
			name:  "archive convention ignores later segments",
			input: "Deep Work (2016) -- Cal Newport -- 1st ed -- Grand Central -- 9d1f0c -- Anna's Archive.epub",
			expected: &Parsed{
				Title:     pointerutil.String("Deep Work (2016)"),
				Authors:   pointerutil.String("Cal Newport"),
				Extension: ".epub",
			},
		},
		{
			name:  "series prefix and trailing year",
			input: "[Dune Saga] Frank Herbert - Dune Messiah (1969).epub",
			expected: &Parsed{
				Series:    pointerutil.String("Dune Saga"),
				Authors:   pointerutil.String("Frank Herbert"),
				Title:     pointerutil.String("Dune Messiah"),
				Year:      pointerutil.String("1969"),
				Extension: ".epub",
			},
		},
		{
			name:  "parenthesized series prefix",
			input: "(Discworld) Guards! Guards!.mobi",
			expected: &Parsed{
				Series:    pointerutil.String("Discworld"),
				Title:     pointerutil.String("Guards! Guards!"),
				Extension: ".mobi",
			},
		},
		{
			name:  "title by author with underscores",
			input: "Python_ Crash_Course by Eric Matthes.pdf",
			expected: &Parsed{
				Title:     pointerutil.String("Python: Crash Course"),
				Authors:   pointerutil.String("Eric Matthes"),
				Extension: ".pdf",
			},
		},
		{
			name:  "zlib suffix",
			input: "Robert Martin - Clean Code-for(z-lib.org).pdf",
			expected: &Parsed{
				Authors:   pointerutil.String("Robert Martin"),
				Title:     pointerutil.String("Clean Code"),
				Extension: ".pdf",
			},
		},
		{
			name:  "libgen suffix",
			input: "Some Title libgen.li.djvu",
			expected: &Parsed{
				Title:     pointerutil.String("Some Title"),
				Extension: ".djvu",
			},
		},
		{
			name:  "many hyphens become spaces",
			input: "John Smith - the-art-of-unix-programming.pdf",
			expected: &Parsed{
				Authors:   pointerutil.String("John Smith"),
				Title:     pointerutil.String("the art of unix programming"),
				Extension: ".pdf",
			},
		},
		{
			name:  "few hyphens drop the last segment",
			input: "John Smith - Deep Learning - Manning.pdf",
			expected: &Parsed{
				Authors:   pointerutil.String("John Smith"),
				Title:     pointerutil.String("Deep Learning"),
				Extension: ".pdf",
			},
		},
		{
			name:  "en dash is a separator",
			input: "Jane Doe – Title.azw3",
			expected: &Parsed{
				Authors:   pointerutil.String("Jane Doe"),
				Title:     pointerutil.String("Title"),
				Extension: ".azw3",
			},
		},
		{
			name:  "volume marker",
			input: "Naruto Volume 3.pdf",
			expected: &Parsed{
				Title:     pointerutil.String("Naruto Volume 3"),
				Volume:    pointerutil.String("3"),
				Extension: ".pdf",
			},
		},
		{
			name:  "short volume marker",
			input: "Berserk V.12.epub",
			expected: &Parsed{
				Title:     pointerutil.String("Berserk V.12"),
				Volume:    pointerutil.String("12"),
				Extension: ".epub",
			},
		},
		{
			name:  "volume keyword is case sensitive",
			input: "Naruto volume 3.pdf",
			expected: &Parsed{
				Title:     pointerutil.String("Naruto volume 3"),
				Extension: ".pdf",
			},
		},
		{
			name:  "extension recorded verbatim",
			input: "Book.PDF",
			expected: &Parsed{
				Title:     pointerutil.String("Book"),
				Extension: ".PDF",
			},
		},
		{
			name:  "unknown extension stays on the title",
			input: "notes.docx",
			expected: &Parsed{
				Title: pointerutil.String("notes.docx"),
			},
		},
		{
			name:  "trailing bracketed isbn",
			input: "Jane Doe, John Roe - A Tale of Code (2020) [9780306406157].pdf",
			expected: &Parsed{
				Authors:   pointerutil.String("Jane Doe, John Roe"),
				Title:     pointerutil.String("A Tale of Code"),
				Year:      pointerutil.String("2020"),
				ISBN:      pointerutil.String("9780306406157"),
				Extension: ".pdf",
			},
		},
		{
			name:     "empty",
			input:    "",
			expected: &Parsed{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

func TestSplitExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		stem  string
		ext   string
	}{
		{"book.epub", "book", ".epub"},
		{"book.AZW3", "book", ".AZW3"},
		{"book.tar.gz", "book.tar.gz", ""},
		{"book", "book", ""},
		{".pdf", "", ".pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stem, ext := SplitExtension(tt.input)
			assert.Equal(t, tt.stem, stem)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Go: The Language", Normalize("Go_ The_Language"))
	assert.Equal(t, "a - b", Normalize("  a   –  b "))
	assert.Equal(t, "", Normalize("___"))
}

func TestAuthorList(t *testing.T) {
	t.Parallel()

	p := Parse("Jane Doe, John Roe & Ann Poe - Title.pdf")
	assert.Equal(t, []string{"Jane Doe", "John Roe", "Ann Poe"}, p.AuthorList())

	p = Parse("Title.pdf")
	assert.Nil(t, p.AuthorList())
}

func TestSplitNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"Jane Doe", []string{"Jane Doe"}},
		{"Jane Doe; John Roe", []string{"Jane Doe", "John Roe"}},
		{" , Jane Doe ,, ", []string{"Jane Doe"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitNames(tt.input))
		})
	}
}
