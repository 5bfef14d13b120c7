package prompt

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/shishobooks/bookorg/pkg/resolver"
	"github.com/stretchr/testify/assert"
)

func candidates() []*models.Metadata {
	return []*models.Metadata{
		{
			Title:      "A Tale of Code",
			Authors:    []string{"Jane Doe", "John Roe"},
			Published:  "2020",
			ISBN:       "9780306406157",
			Publisher:  "Wiley",
			Categories: []string{"computers"},
			ImageURL:   pointerutil.String("http://img/1.jpg"),
		},
		{Title: "Another Tale", Authors: []string{"Ann Poe"}, Categories: []string{"uncategorized"}},
	}
}

func TestParseChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		index int
		ok    bool
	}{
		{"0", 0, true},
		{" 1 \n", 1, true},
		{"2", 0, false},
		{"", 0, false},
		{"s", 0, false},
		{"-1", 0, false},
		{"1a", 0, false},
		{"99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			index, ok := ParseChoice(tt.input, 2)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestTerminal_Select(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("1\n"), &out)

	index, ok := term.Select(context.Background(), candidates())
	assert.True(t, ok)
	assert.Equal(t, 1, index)

	rendered := out.String()
	assert.Contains(t, rendered, "A Tale of Code")
	assert.Contains(t, rendered, "Jane Doe, John Roe")
	assert.Contains(t, rendered, "http://img/1.jpg")
	assert.Contains(t, rendered, "IMAGE URL")
	assert.Contains(t, rendered, "Select an item by index")
}

func TestTerminal_SelectWithoutNewline(t *testing.T) {
	t.Parallel()

	term := NewTerminal(strings.NewReader("0"), &bytes.Buffer{})

	index, ok := term.Select(context.Background(), candidates())
	assert.True(t, ok)
	assert.Equal(t, 0, index)
}

func TestTerminal_Skip(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"s\n", "\n", ""} {
		term := NewTerminal(strings.NewReader(input), &bytes.Buffer{})
		_, ok := term.Select(context.Background(), candidates())
		assert.False(t, ok, "input %q", input)
	}
}

func TestTerminal_NoOptions(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("0\n"), &out)

	_, ok := term.Select(context.Background(), nil)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestTerminal_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	term := NewTerminal(blockingReader{}, &bytes.Buffer{})
	_, ok := term.Select(ctx, candidates())
	assert.False(t, ok)
}

func TestSerialized(t *testing.T) {
	t.Parallel()

	var active, maxActive atomic.Int32
	inner := resolver.SelectorFunc(func(context.Context, []*models.Metadata) (int, bool) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return 0, true
	})
	s := NewSerialized(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := s.Select(context.Background(), candidates())
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RenderTable(nil, nil, nil))

	out := RenderTable([]string{"a", "b"}, [][]string{{"1"}, {"2", "x"}}, nil)
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "x")
}
