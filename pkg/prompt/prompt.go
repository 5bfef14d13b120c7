// Package prompt asks a human to choose between candidate metadata records.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/shishobooks/bookorg/pkg/resolver"
)

var candidateFields = []string{"index", "title", "authors", "published", "isbn", "publisher", "categories", "image_url"}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Terminal shows candidates as a table and reads the chosen index from a line of
// input. Anything that is not an index skips.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

var _ resolver.Selector = (*Terminal)(nil)

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Select(ctx context.Context, options []*models.Metadata) (int, bool) {
	if len(options) == 0 {
		return 0, false
	}

	fmt.Fprintln(t.out, RenderCandidates(options))
	fmt.Fprint(t.out, "Select an item by index (anything else skips): ")

	line, err := t.readLine(ctx)
	if err != nil {
		fmt.Fprintln(t.out)
		return 0, false
	}
	return ParseChoice(line, len(options))
}

// readLine returns the next line of input, or ctx's error if it is cancelled
// first. The reading goroutine finishes with the next line or EOF.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			ch <- result{err: err}
			return
		}
		ch <- result{line: line}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// ParseChoice turns user input into an index into n options. Only a plain
// non-negative number below n selects.
func ParseChoice(input string, n int) (int, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, false
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(input)
	if err != nil || index >= n {
		return 0, false
	}
	return index, true
}

// RenderCandidates lays the options out one per row.
func RenderCandidates(options []*models.Metadata) string {
	headers := make([]string, len(candidateFields))
	for i, field := range candidateFields {
		headers[i] = strcase.ToDelimited(field, ' ')
	}

	rows := make([][]string, 0, len(options))
	for i, md := range options {
		imageURL := ""
		if md.ImageURL != nil {
			imageURL = *md.ImageURL
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			md.Title,
			strings.Join(md.Authors, ", "),
			md.Published,
			md.ISBN,
			md.Publisher,
			strings.Join(md.Categories, ", "),
			imageURL,
		})
	}

	return RenderTable(headers, rows, []ColumnAlignment{AlignRight})
}

// Serialized lets one selector be shared by concurrent workers; prompts are shown
// one at a time.
type Serialized struct {
	mu       sync.Mutex
	selector resolver.Selector
}

func NewSerialized(selector resolver.Selector) *Serialized {
	return &Serialized{selector: selector}
}

func (s *Serialized) Select(ctx context.Context, options []*models.Metadata) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return 0, false
	}
	return s.selector.Select(ctx, options)
}
