// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
)

const writeQueueSize = 64

type writeJob struct {
	ctx   context.Context
	query string
	args  []any
	done  chan writeResult
}

type writeResult struct {
	res sql.Result
	err error
}

// writer executes every write statement on one connection, in submission
// order.
type writer struct {
	conn    *sql.Conn
	jobs    chan writeJob
	quit    chan struct{}
	exited  chan struct{}
	wg      sync.WaitGroup
	stopped atomic.Bool
}

func startWriter(conn *sql.Conn) *writer {
	w := &writer{
		conn:   conn,
		jobs:   make(chan writeJob, writeQueueSize),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *writer) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if w.stopped.Load() {
		return nil, ErrClosed
	}

	job := writeJob{ctx: ctx, query: query, args: args, done: make(chan writeResult, 1)}
	select {
	case w.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, ErrClosed
	}

	select {
	case out := <-job.done:
		return out.res, out.err
	case <-w.exited:
		// the loop may have exited between our send and its final drain
		select {
		case out := <-job.done:
			return out.res, out.err
		default:
			return nil, ErrClosed
		}
	}
}

func (w *writer) beginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if w.stopped.Load() {
		return nil, ErrClosed
	}
	return w.conn.BeginTx(ctx, opts)
}

func (w *writer) loop() {
	defer w.wg.Done()
	defer close(w.exited)
	for {
		select {
		case job := <-w.jobs:
			w.run(job)
		case <-w.quit:
			for {
				select {
				case job := <-w.jobs:
					w.run(job)
				default:
					return
				}
			}
		}
	}
}

func (w *writer) run(job writeJob) {
	res, err := w.conn.ExecContext(job.ctx, job.query, job.args...)
	recordWrite(err)
	job.done <- writeResult{res: res, err: err}
}

// stop drains queued jobs, waits for the loop to exit and releases the
// connection.
func (w *writer) stop() error {
	if !w.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(w.quit)
	w.wg.Wait()
	return w.conn.Close()
}
