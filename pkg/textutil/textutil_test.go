package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "quimica", Fold("Química"))
	assert.Equal(t, "garcia marquez", Fold("García Márquez"))
	assert.Equal(t, "plain", Fold("PLAIN"))
}

func TestWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected []string
	}{
		{"Doe, Jane", []string{"doe", "jane"}},
		{"Jane_Doe_-_A_Tale_of_Code.pdf", []string{"jane", "doe", "tale", "code", "pdf"}},
		{"J. R. R. Tolkien", []string{"tolkien"}},
		{"Gabriel García Márquez", []string{"gabriel", "garcia", "marquez"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Words(tt.input))
		})
	}
}

func TestWords_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Words(""))
	assert.Empty(t, Words("a b -- ."))
}
