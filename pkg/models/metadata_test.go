package models

import (
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataNormalize(t *testing.T) {
	t.Parallel()

	t.Run("fills defaults", func(t *testing.T) {
		m := (&Metadata{Title: " Dune "}).Normalize()
		assert.Equal(t, "Dune", m.Title)
		assert.NotNil(t, m.Authors)
		assert.Empty(t, m.Authors)
		assert.Equal(t, []string{CategoryUncategorized}, m.Categories)
		assert.Nil(t, m.ImageURL)
	})

	t.Run("cleans values", func(t *testing.T) {
		m := (&Metadata{
			Authors:    []string{"Frank Herbert", " ", ""},
			Published:  "1965-08-01",
			Categories: []string{"Fiction", " Science Fiction "},
			ImageURL:   pointerutil.String(""),
		}).Normalize()
		assert.Equal(t, []string{"Frank Herbert"}, m.Authors)
		assert.Equal(t, "1965", m.Published)
		assert.Equal(t, []string{"fiction", "science fiction"}, m.Categories)
		assert.Nil(t, m.ImageURL)
	})

	t.Run("short published kept", func(t *testing.T) {
		m := (&Metadata{Published: "19"}).Normalize()
		assert.Equal(t, "19", m.Published)
	})
}

func TestMetadataHasPlaceholderCategory(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Metadata{}).HasPlaceholderCategory())
	assert.True(t, (&Metadata{Categories: []string{"uncategorized"}}).HasPlaceholderCategory())
	assert.True(t, (&Metadata{Categories: []string{"fiction", "uncategorized"}}).HasPlaceholderCategory())
	assert.False(t, (&Metadata{Categories: []string{"fiction"}}).HasPlaceholderCategory())
}

func TestDispositionCategories(t *testing.T) {
	t.Parallel()

	d := &Disposition{CategoriesParsed: []string{"no-metadata", "computers"}}
	require.NoError(t, d.MarshalCategories())
	assert.JSONEq(t, `["no-metadata","computers"]`, d.Categories)

	restored := &Disposition{Categories: d.Categories}
	require.NoError(t, restored.UnmarshalCategories())
	assert.Equal(t, []string{"no-metadata", "computers"}, restored.CategoriesParsed)

	empty := &Disposition{}
	require.NoError(t, empty.UnmarshalCategories())
	assert.Nil(t, empty.CategoriesParsed)
}
