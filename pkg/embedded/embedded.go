// Package embedded reads bibliographic hints stored inside PDF and EPUB files.
package embedded

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/epub"
	"github.com/shishobooks/bookorg/pkg/mediafile"
	"github.com/shishobooks/bookorg/pkg/pdf"
)

// Extractor dispatches on the file extension. Unsupported types and files that
// fail to parse yield an empty record, never an error.
type Extractor struct {
	pdfPages int
}

type Option func(*Extractor)

// WithPDFPages sets how many leading PDF pages are scanned for an ISBN.
func WithPDFPages(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.pdfPages = n
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{pdfPages: pdf.DefaultMaxPages}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns whatever metadata can be read from path.
func (e *Extractor) Extract(ctx context.Context, path string) (meta *mediafile.EmbeddedMetadata) {
	log := logger.FromContext(ctx)

	defer func() {
		// PDF parsers panic on some malformed inputs.
		if r := recover(); r != nil {
			log.Warn("recovered from panic while reading embedded metadata", logger.Data{"path": path, "panic": r})
			meta = &mediafile.EmbeddedMetadata{}
		}
	}()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		meta, err = e.extractPDF(path)
	case ".epub":
		meta, err = epub.Parse(path)
	default:
		return &mediafile.EmbeddedMetadata{}
	}
	if err != nil {
		log.Err(err).Warn("failed to read embedded metadata", logger.Data{"path": path})
		return &mediafile.EmbeddedMetadata{}
	}

	log.Debug("read embedded metadata", logger.Data{
		"path":   path,
		"title":  meta.TitleString(),
		"author": meta.AuthorString(),
		"isbn":   meta.ISBNString(),
	})
	return meta
}

func (e *Extractor) extractPDF(path string) (*mediafile.EmbeddedMetadata, error) {
	if err := pdf.Validate(path); err != nil {
		return nil, errors.WithStack(err)
	}
	return pdf.Parse(path, e.pdfPages)
}
