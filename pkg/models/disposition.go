package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	StageFilenameISBN = "filename_isbn"
	StageEmbedded     = "embedded"
	StageFilename     = "filename"
	StageUnresolved   = "unresolved"
)

const (
	DispositionStatusPlaced  = "placed"
	DispositionStatusSkipped = "skipped"
	DispositionStatusFailed  = "failed"
)

// Disposition records where one input file ended up during a run.
type Disposition struct {
	bun.BaseModel `bun:"table:dispositions,alias:d"`

	ID               int       `bun:",pk,nullzero" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	RunID            string    `bun:",nullzero" json:"run_id"`
	SourcePath       string    `bun:",nullzero" json:"source_path"`
	TargetPath       *string   `json:"target_path,omitempty"`
	Status           string    `bun:",nullzero" json:"status"`
	Stage            string    `bun:",nullzero" json:"stage"`
	Title            *string   `json:"title,omitempty"`
	ISBN             *string   `json:"isbn,omitempty"`
	Categories       string    `bun:",nullzero" json:"-"`
	CategoriesParsed []string  `bun:"-" json:"categories"`
	DryRun           bool      `json:"dry_run"`
	Error            *string   `json:"error,omitempty"`
}

func (d *Disposition) MarshalCategories() error {
	b, err := json.Marshal(d.CategoriesParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	d.Categories = string(b)
	return nil
}

func (d *Disposition) UnmarshalCategories() error {
	d.CategoriesParsed = nil
	if d.Categories == "" {
		return nil
	}
	err := json.Unmarshal([]byte(d.Categories), &d.CategoriesParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
