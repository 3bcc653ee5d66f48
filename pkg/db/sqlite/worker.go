package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var ErrWorkerClosed = errors.New("sqlite worker closed")

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker runs every transaction on one goroutine, so read-then-write sequences
// against the database never interleave. jobs is never closed: Close signals through
// closed, so a Do racing with Close cannot send on a closed channel.
type Worker struct {
	db        *sql.DB
	jobs      chan job
	done      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:     db,
		jobs:   make(chan job, 256),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.closed) })
	<-w.done
}

func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	select {
	case <-w.closed:
		return ErrWorkerClosed
	default:
	}

	select {
	case w.jobs <- j:
	case <-w.closed:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// A job whose caller gave up still runs to completion; its result is dropped.
	// A job still queued when the loop exits is never run.
	select {
	case err := <-ch:
		return err
	case <-w.done:
		select {
		case err := <-ch:
			return err
		default:
			return ErrWorkerClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.closed:
			w.drain()
			return
		case j := <-w.jobs:
			j.ch <- w.run(j)
		}
	}
}

// drain rejects jobs that were queued before Close.
func (w *Worker) drain() {
	for {
		select {
		case j := <-w.jobs:
			j.ch <- ErrWorkerClosed
		default:
			return
		}
	}
}

func (w *Worker) run(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		return err
	}

	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
