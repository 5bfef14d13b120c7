// Package worker runs a fixed pool of goroutines over a queue of file paths.
package worker

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

var processID = randStringBytes(8)

// ErrClosed is returned by Enqueue once the worker no longer accepts paths.
var ErrClosed = errors.New("worker is closed")

// ProcessFunc handles one path. The context carries a logger scoped to the path.
type ProcessFunc func(ctx context.Context, path string) error

type Worker struct {
	processes int
	log       logger.Logger
	process   ProcessFunc

	queue    chan string
	shutdown chan struct{}

	closeOnce    sync.Once
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// New returns a worker with the given number of processes. It does nothing until
// Start is called.
func New(log logger.Logger, processes int, process ProcessFunc) *Worker {
	if processes < 1 {
		processes = 1
	}
	return &Worker{
		processes: processes,
		log:       log,
		process:   process,
		queue:     make(chan string, processes),
		shutdown:  make(chan struct{}),
	}
}

// Start launches the processes. Paths are processed under ctx; cancelling it has
// the same effect as Shutdown.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.processes; i++ {
		w.wg.Add(1)
		go w.processPaths(ctx)
	}
}

// Enqueue hands path to the next free process. It blocks while every process is
// busy. It must not be called after Close.
func (w *Worker) Enqueue(ctx context.Context, path string) error {
	select {
	case <-w.shutdown:
		return ErrClosed
	default:
	}

	select {
	case <-w.shutdown:
		return ErrClosed
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case w.queue <- path:
		return nil
	}
}

// Close stops accepting paths and waits for everything queued to be processed.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

// Shutdown stops the processes after the path each one is working on. Queued
// paths are dropped.
func (w *Worker) Shutdown() {
	w.shutdownOnce.Do(func() {
		close(w.shutdown)
	})
	w.wg.Wait()
}

func (w *Worker) processPaths(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ctx.Done():
			return
		case path, ok := <-w.queue:
			if !ok {
				return
			}
			w.processPath(ctx, path)
		}
	}
}

func (w *Worker) processPath(ctx context.Context, path string) {
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"path": path, "process_id": processID})
	ctx = log.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing file", logger.Data{"panic": r})
		}
	}()

	if err := w.process(ctx, path); err != nil {
		log.Err(err).Error("process error")
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
