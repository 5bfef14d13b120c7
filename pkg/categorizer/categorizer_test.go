package categorizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	require.NotNil(t, c)
	assert.Same(t, c, Default())
	assert.Greater(t, c.Len(), 100)

	tests := []struct {
		input    string
		expected []string
	}{
		{"learning linux 2024", []string{"computers"}},
		{"Python_Cybersecurity_Handbook", []string{"programming", "cybersecurity"}},
		{"ETHEREUM_BlockChain_Primer", []string{"blockchain"}},
		{"intro to physics and physiology", []string{"science"}},
		{"Startup [Business!]", []string{"business"}},
		{"Química General", []string{"science"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := c.Classify(tt.input)
			for _, category := range tt.expected {
				assert.Contains(t, result, category)
			}
		})
	}
}

func TestDefault_NoMatch(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Default().Classify("xyzzy plugh"))
	assert.Empty(t, Default().Classify(""))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	c := New(Table{
		{Keyword: "game", Category: "GameDev"},
		{Keyword: "unity", Category: "gamedev"},
		{Keyword: "dev", Category: "programming"},
		{Keyword: " ip ", Category: "networking"},
		{Keyword: "Química", Category: "science"},
	})

	t.Run("token order then rule order without dedupe", func(t *testing.T) {
		assert.Equal(t, []string{"gamedev", "programming", "gamedev"}, c.Classify("Game Development with Unity"))
	})

	t.Run("substring of a token", func(t *testing.T) {
		assert.Equal(t, []string{"gamedev", "programming"}, c.Classify("gamedevelopment"))
	})

	t.Run("keywords with spaces never match", func(t *testing.T) {
		assert.Nil(t, c.Classify("tcp ip stack"))
	})

	t.Run("diacritics are folded on both sides", func(t *testing.T) {
		assert.Equal(t, []string{"science"}, c.Classify("quimica basica"))
		assert.Equal(t, []string{"science"}, c.Classify("QUÍMICA"))
	})
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"learning_linux_2024", "pdf"}, Tokenize("Learning_Linux_2024.pdf"))
	assert.Equal(t, []string{"arboles", "y", "flores"}, Tokenize("Árboles y: flores!"))
	assert.Nil(t, Tokenize("--- !!"))
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		table, err := LoadTable(strings.NewReader(`
- {keyword: linux, category: Computers}
- keyword: chess
  category: chess
`))
		require.NoError(t, err)
		assert.Equal(t, Table{
			{Keyword: "linux", Category: "Computers"},
			{Keyword: "chess", Category: "chess"},
		}, table)

		assert.Equal(t, []string{"computers"}, New(table).Classify("Linux"))
	})

	t.Run("empty document", func(t *testing.T) {
		table, err := LoadTable(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("empty keyword", func(t *testing.T) {
		_, err := LoadTable(strings.NewReader(`- {keyword: "", category: x}`))
		assert.Error(t, err)
	})

	t.Run("empty category", func(t *testing.T) {
		_, err := LoadTable(strings.NewReader(`- {keyword: linux}`))
		assert.Error(t, err)
	})

	t.Run("not a list", func(t *testing.T) {
		_, err := LoadTable(strings.NewReader(`linux: computers`))
		assert.Error(t, err)
	})
}
