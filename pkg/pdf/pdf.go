// Package pdf reads document properties and page text from PDF files.
package pdf

import (
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/identifiers"
	"github.com/shishobooks/bookorg/pkg/mediafile"
)

// DefaultMaxPages is how many leading pages are scanned for an ISBN.
const DefaultMaxPages = 3

func init() {
	// pdfcpu otherwise writes a configuration directory under the user's home.
	api.DisableConfigDir()
}

// Validate checks the file's structure with pdfcpu in relaxed mode. Files that fail
// are not safe to hand to the text extractor.
func Validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return errors.Wrapf(err, "invalid pdf %s", path)
	}
	return nil
}

// Parse returns the title, author and creation date from the document information
// dictionary, and the first ISBN printed on one of the first maxPages pages.
func Parse(path string, maxPages int) (*mediafile.EmbeddedMetadata, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	meta := &mediafile.EmbeddedMetadata{DataSource: mediafile.DataSourcePDFMetadata}

	info := r.Trailer().Key("Info")
	meta.Title = infoString(info, "Title")
	meta.Author = infoString(info, "Author")
	meta.Date = infoString(info, "CreationDate")
	if meta.Date == nil {
		meta.Date = infoString(info, "ModDate")
	}

	if isbn, ok := identifiers.FromText(pagesText(r, maxPages, true)); ok {
		meta.ISBN = &isbn
	}

	return meta, nil
}

// Text returns the plain text of the first maxPages pages, one page per line group.
// A maxPages of zero or less reads every page.
func Text(path string, maxPages int) (string, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	return pagesText(r, maxPages, false), nil
}

// pagesText concatenates page text. With stopAtISBN, reading ends at the first page
// that contains an ISBN.
func pagesText(r *ledongthuc.Reader, maxPages int, stopAtISBN bool) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")

		if stopAtISBN {
			if _, ok := identifiers.FromText(text); ok {
				break
			}
		}
	}
	return builder.String()
}

func infoString(info ledongthuc.Value, key string) *string {
	v := info.Key(key)
	if v.Kind() != ledongthuc.String {
		return nil
	}
	s := strings.TrimSpace(v.Text())
	return &s
}
