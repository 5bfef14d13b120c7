// Package resolver finds canonical metadata for a book file by trying a fixed
// sequence of stages, each only when the previous ones found nothing.
package resolver

import (
	"context"
	"path/filepath"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/filename"
	"github.com/shishobooks/bookorg/pkg/identifiers"
	"github.com/shishobooks/bookorg/pkg/lookup"
	"github.com/shishobooks/bookorg/pkg/mediafile"
	"github.com/shishobooks/bookorg/pkg/models"
)

// Provider reads metadata embedded in a file. It never fails; unreadable files yield
// an empty record.
type Provider interface {
	Extract(ctx context.Context, path string) *mediafile.EmbeddedMetadata
}

// Result is the outcome of resolving one file. Metadata is nil when Stage is
// models.StageUnresolved.
type Result struct {
	Metadata *models.Metadata
	Stage    string
	Parsed   *filename.Parsed
	Embedded *mediafile.EmbeddedMetadata
}

// Resolved reports whether any stage produced metadata.
func (r *Result) Resolved() bool {
	return r.Metadata != nil
}

type state struct {
	path        string
	basename    string
	interactive bool
	result      *Result
}

type stage struct {
	name string
	run  func(ctx context.Context, s *state) *models.Metadata
}

type Resolver struct {
	client      lookup.Client
	provider    Provider
	titleAuthor *TitleAuthor
	stages      []stage
}

type Option func(*Resolver)

// WithSelector sets the selector used for interactive disambiguation.
func WithSelector(selector Selector) Option {
	return func(r *Resolver) {
		r.titleAuthor.selector = selector
	}
}

// New returns a Resolver. provider may be nil to skip embedded metadata.
func New(client lookup.Client, provider Provider, opts ...Option) *Resolver {
	r := &Resolver{
		client:      client,
		provider:    provider,
		titleAuthor: NewTitleAuthor(client, nil),
	}
	r.stages = []stage{
		{name: models.StageFilenameISBN, run: r.fromFilenameISBN},
		{name: models.StageEmbedded, run: r.fromEmbedded},
		{name: models.StageFilename, run: r.fromFilename},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the stages for path in order and stops at the first one that
// produces metadata. Stages are never retried.
func (r *Resolver) Resolve(ctx context.Context, path string, interactive bool) *Result {
	log := logger.FromContext(ctx)

	s := &state{
		path:        path,
		basename:    filepath.Base(path),
		interactive: interactive,
		result:      &Result{Stage: models.StageUnresolved},
	}

	for _, st := range r.stages {
		if ctx.Err() != nil {
			break
		}
		md := st.run(ctx, s)
		if md == nil {
			continue
		}
		s.result.Metadata = md
		s.result.Stage = st.name
		log.Info("resolved metadata", logger.Data{"stage": st.name, "title": md.Title, "authors": md.Authors})
		break
	}

	if s.result.Parsed == nil {
		s.result.Parsed = filename.Parse(s.basename)
	}
	if s.result.Metadata == nil {
		log.Warn("no metadata found", logger.Data{"file": s.basename})
	}
	return s.result
}

func (r *Resolver) fromFilenameISBN(ctx context.Context, s *state) *models.Metadata {
	isbn, ok := identifiers.FromFilename(s.basename)
	if !ok {
		return nil
	}
	log := logger.FromContext(ctx)
	log.Info("found isbn in filename", logger.Data{"isbn": isbn})
	return r.byISBN(ctx, isbn)
}

func (r *Resolver) fromEmbedded(ctx context.Context, s *state) *models.Metadata {
	if r.provider == nil {
		return nil
	}
	em := r.provider.Extract(ctx, s.path)
	if em == nil {
		em = &mediafile.EmbeddedMetadata{}
	}
	s.result.Embedded = em
	if em.IsEmpty() {
		return nil
	}

	if isbn := em.ISBNString(); isbn != "" {
		if md := r.byISBN(ctx, isbn); md != nil {
			return md
		}
	}

	title, author := em.TitleString(), em.AuthorString()
	if title == "" && author == "" {
		return nil
	}
	return r.titleAuthor.Resolve(ctx, author, title, s.interactive, s.basename)
}

func (r *Resolver) fromFilename(ctx context.Context, s *state) *models.Metadata {
	parsed := filename.Parse(s.basename)
	s.result.Parsed = parsed

	title := filename.Normalize(parsed.TitleString())
	if title == "" {
		logger.FromContext(ctx).Warn("no usable title in filename", logger.Data{"file": s.basename})
		return nil
	}
	return r.titleAuthor.Resolve(ctx, parsed.AuthorsString(), title, s.interactive, s.basename)
}

func (r *Resolver) byISBN(ctx context.Context, isbn string) *models.Metadata {
	md, err := r.client.ByISBN(ctx, isbn)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("isbn lookup failed", logger.Data{"isbn": isbn})
		return nil
	}
	return md
}
