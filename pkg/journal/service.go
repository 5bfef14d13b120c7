// Package journal stores where each processed file ended up, one row per file
// per run. It is a record of actions, not a metadata cache: nothing in it is read
// back during resolution.
package journal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/uptrace/bun"
)

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

type ListOptions struct {
	Limit int
	RunID string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Record inserts a disposition.
func (svc *Service) Record(ctx context.Context, d *models.Disposition) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if err := d.MarshalCategories(); err != nil {
		return err
	}

	_, err := svc.db.
		NewInsert().
		Model(d).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// List returns the most recent dispositions first.
func (svc *Service) List(ctx context.Context, opts ListOptions) ([]*models.Disposition, error) {
	dispositions := []*models.Disposition{}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := svc.db.
		NewSelect().
		Model(&dispositions).
		Order("d.id DESC").
		Limit(limit)

	if opts.RunID != "" {
		q = q.Where("d.run_id = ?", opts.RunID)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, d := range dispositions {
		if err := d.UnmarshalCategories(); err != nil {
			return nil, err
		}
	}

	return dispositions, nil
}

// CountByStatus tallies the dispositions of one run.
func (svc *Service) CountByStatus(ctx context.Context, runID string) (map[string]int, error) {
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}

	err := svc.db.
		NewSelect().
		Model((*models.Disposition)(nil)).
		Column("d.status").
		ColumnExpr("COUNT(*) AS count").
		Where("d.run_id = ?", runID).
		Group("d.status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
