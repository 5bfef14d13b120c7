package database_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/bookorg/pkg/config"
	"github.com/shishobooks/bookorg/pkg/database"
	"github.com/shishobooks/bookorg/pkg/journal"
	"github.com/shishobooks/bookorg/pkg/migrations"
	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileJournal opens a migrated journal in a temp output directory, the way
// the organize command does for a real run.
func newFileJournal(t *testing.T) *journal.Service {
	t.Helper()

	cfg := config.NewForTest()
	cfg.JournalPath = filepath.Join(t.TempDir(), ".bookorg", "journal.sqlite")

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	return journal.NewService(db)
}

func disposition(runID string, worker, file int) *models.Disposition {
	d := &models.Disposition{
		RunID:            runID,
		SourcePath:       fmt.Sprintf("/in/shelf-%d/book-%d.epub", worker, file),
		Status:           models.DispositionStatusPlaced,
		Stage:            models.StageEmbedded,
		Title:            pointerutil.String(fmt.Sprintf("Book %d", file)),
		CategoriesParsed: []string{"computers"},
	}
	switch file % 4 {
	case 1:
		d.Status = models.DispositionStatusSkipped
		d.Stage = models.StageUnresolved
		d.CategoriesParsed = []string{models.CategoryNoMetadata}
	case 2:
		d.Status = models.DispositionStatusFailed
		d.Error = pointerutil.String("permission denied")
	}
	return d
}

func TestJournal_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newFileJournal(t)

	const workers = 8
	const filesPerWorker = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*filesPerWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for f := 0; f < filesPerWorker; f++ {
				if err := svc.Record(ctx, disposition("run-a", worker, f)); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	counts, err := svc.CountByStatus(ctx, "run-a")
	require.NoError(t, err)
	// Per worker: files 0..24 give 13 placed (0,3 mod 4), 6 skipped, 6 failed.
	assert.Equal(t, map[string]int{
		models.DispositionStatusPlaced:  workers * 13,
		models.DispositionStatusSkipped: workers * 6,
		models.DispositionStatusFailed:  workers * 6,
	}, counts)

	all, err := svc.List(ctx, journal.ListOptions{Limit: workers * filesPerWorker * 2, RunID: "run-a"})
	require.NoError(t, err)
	assert.Len(t, all, workers*filesPerWorker)

	seen := map[string]bool{}
	for _, d := range all {
		assert.False(t, seen[d.SourcePath], "duplicate row for %s", d.SourcePath)
		seen[d.SourcePath] = true
	}
}

func TestJournal_RecordWhileListing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newFileJournal(t)

	for f := 0; f < 20; f++ {
		require.NoError(t, svc.Record(ctx, disposition("earlier", 0, f)))
	}

	const writers = 4
	const readers = 4
	const ops = 50

	var wg sync.WaitGroup
	errs := make(chan error, (writers+readers)*ops)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for f := 0; f < ops; f++ {
				if err := svc.Record(ctx, disposition("current", worker, f)); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				list, err := svc.List(ctx, journal.ListOptions{RunID: "earlier"})
				if err != nil {
					errs <- err
					continue
				}
				if len(list) != 20 {
					errs <- fmt.Errorf("earlier run has %d rows", len(list))
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	counts, err := svc.CountByStatus(ctx, "current")
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, writers*ops, total)
}

func TestNew_Memory(t *testing.T) {
	t.Parallel()

	db, err := database.New(config.NewForTest())
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.JournalPath = filepath.Join(t.TempDir(), "nested", ".bookorg", "journal.sqlite")

	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.DirExists(t, filepath.Dir(cfg.JournalPath))
	assert.FileExists(t, cfg.JournalPath)
}
