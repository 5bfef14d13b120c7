// Package googlebooks looks up volumes through the Google Books search API.
package googlebooks

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/identifiers"
	"github.com/shishobooks/bookorg/pkg/lookup"
	"github.com/shishobooks/bookorg/pkg/models"
)

// DefaultEndpoint ends with the query parameter so queries can be appended.
const DefaultEndpoint = "https://www.googleapis.com/books/v1/volumes?q="

type Response struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Categories          []string             `json:"categories"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
}

type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type Client struct {
	endpoint string
	apiKey   string
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

// WithAPIKey raises the anonymous quota. Optional.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithHTTP shares rate limiting and retry settings with other clients.
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

// ByISBN searches "isbn:{isbn}" and returns the first volume.
func (c *Client) ByISBN(ctx context.Context, isbn string) (*models.Metadata, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, errors.New("isbn must not be empty")
	}
	return c.search(ctx, "isbn:"+isbn)
}

// ByQuery runs a raw search query such as "intitle:Dune+inauthor:Herbert" and
// returns the first volume.
func (c *Client) ByQuery(ctx context.Context, query string) (*models.Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	return c.search(ctx, query)
}

func (c *Client) search(ctx context.Context, query string) (*models.Metadata, error) {
	u := c.endpoint + escapeQuery(query)
	if c.apiKey != "" {
		u += "&key=" + url.QueryEscape(c.apiKey)
	}

	var resp Response
	found, err := c.http.GetJSON(ctx, u, &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "google books search %q", query)
	}
	if !found || len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0].Metadata(), nil
}

// escapeQuery escapes a search query but keeps the ':' and '+' that the search
// grammar relies on.
func escapeQuery(query string) string {
	return strings.NewReplacer("%3A", ":", "%2B", "+").Replace(url.QueryEscape(query))
}

// Metadata normalizes a volume. The ISBN is the ISBN_13 industry identifier, or
// empty when the volume has none.
func (v Volume) Metadata() *models.Metadata {
	info := v.VolumeInfo
	md := &models.Metadata{
		Title:      info.Title,
		Authors:    info.Authors,
		Published:  info.PublishedDate,
		Publisher:  info.Publisher,
		Categories: info.Categories,
	}
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			md.ISBN = identifiers.NormalizeISBN(id.Identifier)
			break
		}
	}
	if info.ImageLinks != nil && info.ImageLinks.Thumbnail != "" {
		thumbnail := info.ImageLinks.Thumbnail
		md.ImageURL = &thumbnail
	}
	return md.Normalize()
}
