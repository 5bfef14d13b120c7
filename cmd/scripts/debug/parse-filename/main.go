package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/embedded"
	"github.com/shishobooks/bookorg/pkg/filename"
	"github.com/shishobooks/bookorg/pkg/identifiers"
	"github.com/shishobooks/bookorg/pkg/pdf"
)

func main() {
	log := logger.New()

	var opts struct {
		Embedded bool `short:"e" long:"embedded" description:"Also read the metadata embedded in the file"`
		PDFPages int  `long:"pdf-pages" default:"3" description:"Number of PDF pages scanned for an ISBN"`
		PDFText  bool `long:"pdf-text" description:"Print the text of the scanned PDF pages"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-filename [--embedded] <path/to/file>")
		os.Exit(1)
	}

	name := filepath.Base(args[0])
	p := filename.Parse(name)
	fmt.Printf("Series: %s\nAuthors: %s\nAuthor list: %s\nTitle: %s\nPublisher: %s\nYear: %s\nVolume: %s\nISBN: %s\nExtension: %s\n",
		show(p.Series), show(p.Authors), strings.Join(p.AuthorList(), "; "), show(p.Title), show(p.Publisher), show(p.Year), show(p.Volume), show(p.ISBN), p.Extension)

	if isbn, ok := identifiers.FromFilename(name); ok {
		fmt.Printf("ISBN in filename: %s\n", isbn)
	} else {
		fmt.Println("ISBN in filename: -")
	}

	if opts.Embedded {
		ctx := log.WithContext(context.Background())
		meta := embedded.New(embedded.WithPDFPages(opts.PDFPages)).Extract(ctx, args[0])
		fmt.Printf("\nEmbedded metadata:\n%s\n", meta)
	}

	if opts.PDFText {
		text, err := pdf.Text(args[0], opts.PDFPages)
		if err != nil {
			log.Err(err).Fatal("pdf text error")
		}
		fmt.Printf("\nPDF text:\n%s\n", text)
	}
}

func show(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
