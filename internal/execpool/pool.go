// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package execpool is the bounded worker pool the scheduler runs
// commands through (spec §4.H). It is deliberately independent of the
// task-graph types above it: a WorkItem carries an opaque ID and a
// closure, so the pool can be unit-tested without any ninja manifest
// in scope.
package execpool

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WorkItem is one unit of work submitted to the pool.
type WorkItem struct {
	ID  interface{}
	Run func(ctx context.Context) (interface{}, error)
}

// Result is what came back from running a WorkItem.
type Result struct {
	ID    interface{}
	Value interface{}
	Err   error
}

// PanicError wraps a recovered panic from inside a worker so a crashing
// command handler can't take the whole process down with it.
type PanicError struct {
	Recovered interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("execpool: worker panic: %v", e.Recovered)
}

// Pool is a fixed-size set of worker goroutines draining a single FIFO
// job queue, joined with an errgroup so Stop can wait for every worker
// to actually exit before returning (spec §4.H).
//
// Shutdown is a broadcast of up to `workers` stop signals over a
// dedicated buffered channel rather than sentinel values threaded
// through the job queue: a worker mid-panic must be able to request
// shutdown without risking a blocked send into a jobs channel nobody
// is left to drain. This is the Go analogue of the original's
// lock-free Injector.push, which is non-blocking by construction; the
// buffered channel plus a non-blocking select gives the same guarantee
// here (spec §4.H, §9).
type Pool struct {
	jobs    chan *WorkItem
	results chan Result
	stop    chan struct{}
	group   *errgroup.Group
	workers int
	running int32
}

// New starts a Pool with the given number of workers. ctx cancellation
// propagates to every in-flight WorkItem.Run call.
func New(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		jobs:    make(chan *WorkItem),
		results: make(chan Result, workers),
		stop:    make(chan struct{}, workers),
		group:   g,
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p.work(gctx)
			return nil
		})
	}
	return p
}

func (p *Pool) work(ctx context.Context) {
	for {
		select {
		case <-p.stop:
			return
		case item := <-p.jobs:
			atomic.AddInt32(&p.running, 1)
			res, panicked := p.runOne(ctx, item)
			atomic.AddInt32(&p.running, -1)
			p.results <- res
			if panicked {
				// A peer must not keep pulling jobs from a build the
				// driver is about to abort (spec §4.H "worker panic...
				// enqueues N Stop sentinels so peers exit promptly").
				p.requestStop()
				return
			}
		}
	}
}

func (p *Pool) runOne(ctx context.Context, item *WorkItem) (res Result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{ID: item.ID, Err: &PanicError{Recovered: r}}
			panicked = true
		}
	}()
	val, err := item.Run(ctx)
	return Result{ID: item.ID, Value: val, Err: err}, false
}

// requestStop signals up to one exit per worker without blocking: a
// full buffer simply means every worker has already been told. No
// worker ever consumes more than one signal, so over-delivery is
// harmless and under-delivery is impossible (spec §4.H, §9).
func (p *Pool) requestStop() {
	for i := 0; i < p.workers; i++ {
		select {
		case p.stop <- struct{}{}:
		default:
		}
	}
}

// Submit enqueues item. It blocks until a worker is free to accept it.
func (p *Pool) Submit(item *WorkItem) {
	p.jobs <- item
}

// Results returns the channel Submit's outcomes arrive on, one per
// accepted WorkItem, in completion order. It is buffered to the worker
// count: once it is full, workers block until results are read, and
// Submit blocks with them.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// RequestStop tells every worker to exit promptly without joining them.
// It is the driver-panic-safe counterpart to Stop (spec §4.H, §9: "a
// deferred action enqueues N Stop sentinels so workers drain and
// exit"), meant to be called from a deferred recover() where blocking
// to join worker goroutines is not an option.
func (p *Pool) RequestStop() {
	p.requestStop()
}

// Stop requests every worker to exit, waits for every worker goroutine
// to actually exit, and closes the results channel. It is safe to call
// exactly once after the last Submit.
func (p *Pool) Stop() error {
	p.requestStop()
	err := p.group.Wait()
	if n := atomic.LoadInt32(&p.running); n != 0 {
		panic(fmt.Sprintf("execpool: %d jobs still running after Stop", n))
	}
	close(p.results)
	return err
}
