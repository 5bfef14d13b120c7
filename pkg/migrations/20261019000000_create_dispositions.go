package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE dispositions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				run_id TEXT NOT NULL,
				source_path TEXT NOT NULL,
				target_path TEXT,
				status TEXT NOT NULL,
				stage TEXT NOT NULL,
				title TEXT,
				isbn TEXT,
				categories TEXT,
				dry_run BOOLEAN NOT NULL DEFAULT FALSE,
				error TEXT
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_dispositions_run_id ON dispositions(run_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_dispositions_created_at ON dispositions(created_at)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP INDEX IF EXISTS ix_dispositions_created_at`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP INDEX IF EXISTS ix_dispositions_run_id`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS dispositions`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
