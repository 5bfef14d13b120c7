// Package openlibrary looks up editions through the Open Library search API. It only
// answers ISBN lookups and serves as a fallback behind Google Books.
package openlibrary

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/identifiers"
	"github.com/shishobooks/bookorg/pkg/lookup"
	"github.com/shishobooks/bookorg/pkg/models"
)

const (
	DefaultEndpoint = "https://openlibrary.org/search.json"
	coverURLFormat  = "https://covers.openlibrary.org/b/id/%d-M.jpg"
	// Open Library subjects are numerous and noisy; only the leading ones become
	// categories.
	maxCategories = 3
)

type Response struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	Subject          []string `json:"subject"`
	CoverI           int      `json:"cover_i"`
}

type Client struct {
	endpoint string
	http     *lookup.HTTP
}

var _ lookup.Client = (*Client)(nil)

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func WithHTTP(h *lookup.HTTP) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = lookup.NewHTTP()
	}
	return c
}

func (c *Client) ByISBN(ctx context.Context, isbn string) (*models.Metadata, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, errors.New("isbn must not be empty")
	}

	params := url.Values{}
	params.Set("isbn", isbn)
	params.Set("limit", "1")

	var resp Response
	found, err := c.http.GetJSON(ctx, c.endpoint+"?"+params.Encode(), &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "open library isbn %s", isbn)
	}
	if !found || len(resp.Docs) == 0 {
		return nil, nil
	}
	return resp.Docs[0].Metadata(isbn), nil
}

// ByQuery always reports a miss: Open Library does not understand the intitle:/
// inauthor: query grammar.
func (c *Client) ByQuery(_ context.Context, _ string) (*models.Metadata, error) {
	return nil, nil
}

// Metadata normalizes a search document. The looked-up ISBN is preferred when the
// document lists it, so the result matches the edition that was asked for.
func (d Doc) Metadata(requested string) *models.Metadata {
	md := &models.Metadata{
		Title:   d.Title,
		Authors: d.AuthorName,
	}
	if d.FirstPublishYear > 0 {
		md.Published = strconv.Itoa(d.FirstPublishYear)
	}
	if len(d.Publisher) > 0 {
		md.Publisher = d.Publisher[0]
	}

	requested13 := identifiers.ToISBN13(requested)
	for _, isbn := range d.ISBN {
		if len(isbn) != 13 {
			continue
		}
		if md.ISBN == "" || isbn == requested13 {
			md.ISBN = isbn
		}
	}

	subjects := d.Subject
	if len(subjects) > maxCategories {
		subjects = subjects[:maxCategories]
	}
	md.Categories = subjects

	if d.CoverI > 0 {
		cover := fmt.Sprintf(coverURLFormat, d.CoverI)
		md.ImageURL = &cover
	}
	return md.Normalize()
}
