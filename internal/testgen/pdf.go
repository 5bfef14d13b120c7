package testgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GeneratePDF writes a minimal single-font PDF with an Info dictionary and one text
// line per page. Object offsets in the cross-reference table are exact so strict
// readers accept the file.
func GeneratePDF(t *testing.T, dir, filename string, opts PDFOptions) string {
	t.Helper()

	pages := opts.Pages
	if len(pages) == 0 {
		pages = []string{""}
	}

	// Object layout: 1 catalog, 2 page tree, 3 font, 4 info, then a page object
	// and its content stream for each page.
	const firstPageObj = 5
	var objects []string

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPageObj+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		generateInfo(opts),
	)

	for i, text := range pages {
		contentObj := firstPageObj + 2*i + 1
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentObj,
		))

		stream := "BT /F1 12 Tf 72 720 Td ET"
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escapePDFString(text))
		}
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write PDF file: %v", err)
	}
	return path
}

func generateInfo(opts PDFOptions) string {
	var entries []string
	if opts.Title != "" {
		entries = append(entries, fmt.Sprintf("/Title (%s)", escapePDFString(opts.Title)))
	}
	if opts.Author != "" {
		entries = append(entries, fmt.Sprintf("/Author (%s)", escapePDFString(opts.Author)))
	}
	if opts.CreationDate != "" {
		entries = append(entries, fmt.Sprintf("/CreationDate (%s)", escapePDFString(opts.CreationDate)))
	}
	entries = append(entries, "/Producer (testgen)")
	return "<< " + strings.Join(entries, " ") + " >>"
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
