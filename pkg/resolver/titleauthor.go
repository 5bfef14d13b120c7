package resolver

import (
	"context"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/lookup"
	"github.com/shishobooks/bookorg/pkg/models"
)

// Selector lets a human pick one of several unverified candidates. ok is false when
// the user skipped.
type Selector interface {
	Select(ctx context.Context, options []*models.Metadata) (index int, ok bool)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, options []*models.Metadata) (int, bool)

func (f SelectorFunc) Select(ctx context.Context, options []*models.Metadata) (int, bool) {
	return f(ctx, options)
}

// TitleAuthor searches by title and author using a fixed list of query strategies.
type TitleAuthor struct {
	client     lookup.Client
	selector   Selector
	strategies []Strategy
}

// NewTitleAuthor returns a resolver using the default strategies. selector may be
// nil, in which case interactive resolution behaves like non-interactive.
func NewTitleAuthor(client lookup.Client, selector Selector) *TitleAuthor {
	return &TitleAuthor{
		client:     client,
		selector:   selector,
		strategies: Strategies,
	}
}

// Resolve runs the strategies in order. The first result whose authors (or the
// queried author) are confirmed by verificationContext is returned immediately.
// Unconfirmed results are collected and, in interactive mode, offered to the
// selector once every strategy has been tried.
func (r *TitleAuthor) Resolve(ctx context.Context, author, title string, interactive bool, verificationContext string) *models.Metadata {
	log := logger.FromContext(ctx)

	var options []*models.Metadata
	for _, strategy := range r.strategies {
		if ctx.Err() != nil {
			return nil
		}

		query := strategy.Build(author, title)
		if query == "" {
			continue
		}

		md, err := r.client.ByQuery(ctx, query)
		if err != nil {
			log.Err(err).Warn("search failed", logger.Data{"strategy": strategy.Name, "query": query})
			continue
		}
		if md == nil {
			log.Debug("no search result", logger.Data{"strategy": strategy.Name, "query": query})
			continue
		}

		if VerifyAuthor(md.Authors, verificationContext) || VerifyAuthor([]string{author}, verificationContext) {
			log.Info("author verified", logger.Data{"strategy": strategy.Name, "title": md.Title, "authors": md.Authors})
			return md
		}
		log.Debug("author not verified", logger.Data{"strategy": strategy.Name, "title": md.Title, "authors": md.Authors})
		options = append(options, md)
	}

	if !interactive || r.selector == nil || len(options) == 0 {
		return nil
	}

	index, ok := r.selector.Select(ctx, options)
	if !ok || index < 0 || index >= len(options) {
		log.Info("no candidate selected", logger.Data{"options": len(options)})
		return nil
	}
	return options[index]
}
