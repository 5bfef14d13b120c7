// Package organizer resolves book files and files them into the output tree.
package organizer

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/categorizer"
	"github.com/shishobooks/bookorg/pkg/fileutils"
	"github.com/shishobooks/bookorg/pkg/models"
	"github.com/shishobooks/bookorg/pkg/resolver"
	"github.com/shishobooks/bookorg/pkg/worker"
)

// StateDir holds the lock and the journal inside the output directory.
const StateDir = ".bookorg"

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is in use by another run")

// Resolver finds metadata for one file.
type Resolver interface {
	Resolve(ctx context.Context, path string, interactive bool) *resolver.Result
}

// Recorder stores what happened to each file.
type Recorder interface {
	Record(ctx context.Context, d *models.Disposition) error
}

type Options struct {
	OutputDir   string
	Extensions  []string
	Concurrency int
	DryRun      bool
	Interactive bool
}

// Plan is where a file would go, before anything is moved.
type Plan struct {
	Path       string
	Result     *resolver.Result
	Name       string
	Categories []string
}

// Outcome is a Plan together with the placement it led to.
type Outcome struct {
	*Plan
	Placement *fileutils.PlaceResult
	Status    string
}

type Organizer struct {
	resolver    Resolver
	categorizer *categorizer.Categorizer
	recorder    Recorder
	opts        Options
	runID       string
}

// New returns an Organizer. recorder may be nil to skip journaling.
func New(res Resolver, c *categorizer.Categorizer, recorder Recorder, opts Options) *Organizer {
	if c == nil {
		c = categorizer.Default()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Organizer{
		resolver:    res,
		categorizer: c,
		recorder:    recorder,
		opts:        opts,
		runID:       uuid.New().String(),
	}
}

// RunID identifies the journal entries written by this Organizer.
func (o *Organizer) RunID() string {
	return o.runID
}

// Plan resolves path and composes its name and categories without touching the
// filesystem.
func (o *Organizer) Plan(ctx context.Context, path string) *Plan {
	result := o.resolver.Resolve(ctx, path, o.opts.Interactive)
	name := filepath.Base(path)
	return &Plan{
		Path:       path,
		Result:     result,
		Name:       fileutils.ComposeName(name, result.Metadata),
		Categories: fileutils.ComposeCategories(result.Metadata, name, o.categorizer),
	}
}

// Organize plans path and places it under the output directory. Every attempt is
// journaled. A file that disappeared before it could be handled is skipped.
func (o *Organizer) Organize(ctx context.Context, path string) (*Outcome, error) {
	log := logger.FromContext(ctx)

	if _, err := os.Lstat(path); os.IsNotExist(err) {
		log.Info("file is gone, skipping", logger.Data{"path": path})
		outcome := &Outcome{Plan: &Plan{Path: path}, Status: models.DispositionStatusSkipped}
		o.record(ctx, outcome, nil)
		return outcome, nil
	}

	outcome := &Outcome{Plan: o.Plan(ctx, path)}
	if err := ctx.Err(); err != nil {
		return outcome, errors.WithStack(err)
	}

	placement, err := fileutils.Place(path, fileutils.PlaceOptions{
		OutputDir:  o.opts.OutputDir,
		Categories: outcome.Categories,
		Name:       outcome.Name,
		DryRun:     o.opts.DryRun,
	})
	outcome.Placement = placement
	if err != nil {
		outcome.Status = models.DispositionStatusFailed
		o.record(ctx, outcome, err)
		return outcome, errors.Wrapf(err, "failed to place %s", path)
	}

	outcome.Status = models.DispositionStatusPlaced
	log.Info("placed file", logger.Data{
		"target":     placement.NewPath,
		"categories": outcome.Categories,
		"links":      len(placement.Links),
		"dry_run":    o.opts.DryRun,
	})
	o.record(ctx, outcome, nil)
	return outcome, nil
}

func (o *Organizer) record(ctx context.Context, outcome *Outcome, placeErr error) {
	if o.recorder == nil {
		return
	}

	d := &models.Disposition{
		RunID:            o.runID,
		SourcePath:       outcome.Path,
		Status:           outcome.Status,
		Stage:            models.StageUnresolved,
		CategoriesParsed: outcome.Categories,
		DryRun:           o.opts.DryRun,
	}
	if outcome.Result != nil {
		d.Stage = outcome.Result.Stage
		if md := outcome.Result.Metadata; md != nil {
			d.Title = nonEmpty(md.Title)
			d.ISBN = nonEmpty(md.ISBN)
		}
	}
	if outcome.Placement != nil {
		d.TargetPath = nonEmpty(outcome.Placement.NewPath)
	}
	if placeErr != nil {
		msg := placeErr.Error()
		d.Error = &msg
	}

	if err := o.recorder.Record(ctx, d); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to journal disposition")
	}
}

// Summary tallies a run.
type Summary struct {
	RunID      string
	Total      int
	Placed     int
	Unresolved int
	Skipped    int
	Failed     int
	ByStage    map[string]int

	mu sync.Mutex
}

func (s *Summary) add(outcome *Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Total++
	switch {
	case err != nil:
		s.Failed++
	case outcome.Status == models.DispositionStatusSkipped:
		s.Skipped++
	default:
		s.Placed++
	}
	if outcome != nil && outcome.Result != nil {
		s.ByStage[outcome.Result.Stage]++
		if !outcome.Result.Resolved() {
			s.Unresolved++
		}
	}
}

// Process adapts Organize to a worker.ProcessFunc, tallying into summary when it
// is not nil.
func (o *Organizer) Process(summary *Summary) worker.ProcessFunc {
	return func(ctx context.Context, path string) error {
		outcome, err := o.Organize(ctx, path)
		if summary != nil {
			summary.add(outcome, err)
		}
		return err
	}
}

// NewSummary returns an empty summary for this Organizer's run.
func (o *Organizer) NewSummary() *Summary {
	return &Summary{RunID: o.runID, ByStage: map[string]int{}}
}

// Run organizes every eligible file under root (or root itself) with a pool of
// workers. Per-file failures are logged and counted; only setup failures and
// cancellation are returned.
func (o *Organizer) Run(ctx context.Context, root string) (*Summary, error) {
	log := logger.FromContext(ctx)

	unlock, err := Lock(o.opts.OutputDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	files, err := worker.Scan(ctx, root, o.opts.Extensions, o.opts.OutputDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan input")
	}
	log.Info("found files", logger.Data{"count": len(files), "root": root, "run_id": o.runID})

	summary := o.NewSummary()
	w := worker.New(log, o.opts.Concurrency, o.Process(summary))
	w.Start(ctx)

	var enqueueErr error
	for _, path := range files {
		if enqueueErr = w.Enqueue(ctx, path); enqueueErr != nil {
			break
		}
	}
	w.Close()

	if enqueueErr != nil {
		return summary, enqueueErr
	}
	if err := ctx.Err(); err != nil {
		return summary, errors.WithStack(err)
	}
	return summary, nil
}

// Lock takes an exclusive lock on outputDir for the life of a run. It creates the
// directory if needed.
func Lock(outputDir string) (func(), error) {
	stateDir := filepath.Join(outputDir, StateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	lock := flock.New(filepath.Join(stateDir, "lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock")
	}
	if !ok {
		return nil, errors.WithStack(ErrLocked)
	}
	return func() {
		_ = lock.Unlock()
	}, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
