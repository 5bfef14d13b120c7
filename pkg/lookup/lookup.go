// Package lookup defines the bibliographic lookup contract and the HTTP plumbing
// shared by its implementations.
package lookup

import (
	"context"

	"github.com/shishobooks/bookorg/pkg/models"
)

// Client queries a bibliographic service. A nil result with a nil error means
// nothing was found; callers treat an error the same way, as a reason to try the
// next source.
type Client interface {
	ByISBN(ctx context.Context, isbn string) (*models.Metadata, error)
	ByQuery(ctx context.Context, query string) (*models.Metadata, error)
}

// Chain asks each client in order and returns the first result.
type Chain []Client

var _ Client = Chain(nil)

func (c Chain) ByISBN(ctx context.Context, isbn string) (*models.Metadata, error) {
	return c.first(func(client Client) (*models.Metadata, error) {
		return client.ByISBN(ctx, isbn)
	})
}

func (c Chain) ByQuery(ctx context.Context, query string) (*models.Metadata, error) {
	return c.first(func(client Client) (*models.Metadata, error) {
		return client.ByQuery(ctx, query)
	})
}

// first returns the first non-nil result. The last error is only reported when no
// client produced a result.
func (c Chain) first(call func(Client) (*models.Metadata, error)) (*models.Metadata, error) {
	var lastErr error
	for _, client := range c {
		md, err := call(client)
		if err != nil {
			lastErr = err
			continue
		}
		if md != nil {
			return md, nil
		}
	}
	return nil, lastErr
}
