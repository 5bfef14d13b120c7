// Package watcher queues book files as they appear in an inbox directory.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookorg/pkg/worker"
)

const DefaultDebounce = 2 * time.Second

// Enqueuer receives the paths of files ready to be organized.
type Enqueuer interface {
	Enqueue(ctx context.Context, path string) error
}

type Options struct {
	Extensions []string
	// Debounce is how long the inbox has to be quiet before pending files are
	// queued.
	Debounce time.Duration
	// Skip lists directories that are never watched, like an output directory
	// inside the inbox.
	Skip []string
}

type Watcher struct {
	dir      string
	sink     Enqueuer
	allowed  map[string]struct{}
	debounce time.Duration
	skip     map[string]struct{}

	fsw     *fsnotify.Watcher
	pending map[string]struct{}
}

func New(dir string, sink Enqueuer, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	skip := make(map[string]struct{}, len(opts.Skip))
	for _, s := range opts.Skip {
		if abs, err := filepath.Abs(s); err == nil {
			skip[abs] = struct{}{}
		}
	}
	return &Watcher{
		dir:      dir,
		sink:     sink,
		allowed:  worker.ExtensionSet(opts.Extensions),
		debounce: opts.Debounce,
		skip:     skip,
		pending:  map[string]struct{}{},
	}
}

// Run queues the files already in the inbox, then watches it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	defer fsw.Close()
	w.fsw = fsw

	if err := w.addTree(w.dir); err != nil {
		return err
	}
	log.Info("watching inbox", logger.Data{"dir": w.dir, "debounce": w.debounce.String()})

	if err := w.flush(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(ctx, event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Err(err).Warn("watcher error")
		case <-timer.C:
			if err := w.flush(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// handleEvent records the paths touched by event and reports whether anything
// became pending.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	log := logger.FromContext(ctx)

	if event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename {
		delete(w.pending, event.Name)
		return false
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		return false
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create == 0 {
			return false
		}
		// Watch first so nothing written into the new directory is missed.
		if err := w.addTree(event.Name); err != nil {
			log.Err(err).Warn("failed to watch new directory", logger.Data{"dir": event.Name})
		}
		return true
	}

	if !info.Mode().IsRegular() {
		return false
	}
	if _, ok := w.allowed[extension(event.Name)]; !ok {
		return false
	}
	w.pending[event.Name] = struct{}{}
	return true
}

// addTree watches root and every directory below it, marking files already there
// as pending.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if d.IsDir() {
			if w.skipped(path) {
				return filepath.SkipDir
			}
			return errors.WithStack(w.fsw.Add(path))
		}
		if d.Type().IsRegular() {
			if _, ok := w.allowed[extension(path)]; ok {
				w.pending[path] = struct{}{}
			}
		}
		return nil
	})
}

// flush hands pending files to the sink in path order. Files that vanished or
// whose content does not match their extension are dropped.
func (w *Watcher) flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	w.pending = map[string]struct{}{}

	logger.FromContext(ctx).Info("queueing new files", logger.Data{"count": len(paths)})
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if !worker.Accept(ctx, path, w.allowed) {
			continue
		}
		if err := w.sink.Enqueue(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) skipped(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	_, ok := w.skip[abs]
	return ok
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
