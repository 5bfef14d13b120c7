package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shishobooks/bookorg/pkg/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	h := lookup.NewHTTP(lookup.WithRateLimit(0), lookup.WithBackoff(time.Millisecond, 2*time.Millisecond))
	return New(WithEndpoint(server.URL+"/search.json"), WithHTTP(h))
}

func TestByISBN(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "0441013597", r.URL.Query().Get("isbn"))
		_, _ = w.Write([]byte(`{
  "numFound": 1,
  "docs": [{
    "key": "/works/OL893415W",
    "title": "Dune",
    "author_name": ["Frank Herbert"],
    "first_publish_year": 1965,
    "publisher": ["Chilton Books", "Ace"],
    "isbn": ["9780000000002", "0441013597", "9780441013593"],
    "subject": ["Science Fiction", "Desert", "Ecology", "Politics"],
    "cover_i": 11481354
  }]
}`))
	})

	md, err := client.ByISBN(context.Background(), "0441013597")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "Dune", md.Title)
	assert.Equal(t, []string{"Frank Herbert"}, md.Authors)
	assert.Equal(t, "1965", md.Published)
	assert.Equal(t, "Chilton Books", md.Publisher)
	assert.Equal(t, "9780441013593", md.ISBN)
	assert.Equal(t, []string{"science fiction", "desert", "ecology"}, md.Categories)
	require.NotNil(t, md.ImageURL)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/11481354-M.jpg", *md.ImageURL)
}

func TestByISBN_SparseDoc(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"numFound":1,"docs":[{"title":"Pamphlet"}]}`))
	})

	md, err := client.ByISBN(context.Background(), "9780306406157")
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "Pamphlet", md.Title)
	assert.Equal(t, "", md.Published)
	assert.Equal(t, "", md.ISBN)
	assert.Equal(t, []string{"uncategorized"}, md.Categories)
	assert.Nil(t, md.ImageURL)
}

func TestByISBN_NoDocs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
	})

	md, err := client.ByISBN(context.Background(), "9780306406157")
	assert.NoError(t, err)
	assert.Nil(t, md)
}

func TestByISBN_Error(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	md, err := client.ByISBN(context.Background(), "9780306406157")
	assert.Error(t, err)
	assert.Nil(t, md)
}

func TestByQuery(t *testing.T) {
	t.Parallel()

	md, err := New().ByQuery(context.Background(), "intitle:Dune")
	assert.NoError(t, err)
	assert.Nil(t, md)
}
