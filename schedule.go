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

package ninja

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/nburns/nbuild/internal/execpool"
)

// Scheduler is the single-threaded cooperative driver over a
// BuildState: it dequeues ready nodes, decides (via the Rebuilder)
// whether each one actually needs to run, dispatches the ones that do
// to the command pool bounded by a weighted semaphore, and folds
// completions back into the graph through a result channel (spec
// §4.H).
type Scheduler struct {
	bs     *BuildState
	oracle Oracle
	pool   *execpool.Pool
	sem    *semaphore.Weighted
	status *Status

	outstanding int
	firstErr    error
	aborting    bool
}

// NewScheduler builds a Scheduler over bs, bounding concurrent running
// commands to jobs (spec §6 "-j").
func NewScheduler(ctx context.Context, bs *BuildState, oracle Oracle, status *Status, jobs int) *Scheduler {
	if jobs < 1 {
		jobs = 1
	}
	return &Scheduler{
		bs:     bs,
		oracle: oracle,
		pool:   execpool.New(ctx, jobs),
		sem:    semaphore.NewWeighted(int64(jobs)),
		status: status,
	}
}

// Run drives the build to completion: it alternates dispatching every
// currently-ready node (up to the semaphore's weight) and draining
// finished results, until every node in bs has either finished or been
// poisoned. It returns the first command or rebuilder failure
// encountered, if any (spec §4.H, §7).
func (s *Scheduler) Run(ctx context.Context) error {
	// A driver-side panic (e.g. a future bug in dispatchReady/reapOne)
	// must not leave pool workers blocked waiting on a jobs channel
	// nobody will ever submit to again; signal them non-blockingly and
	// let the panic keep unwinding (spec §4.H, §9).
	defer func() {
		if r := recover(); r != nil {
			s.pool.RequestStop()
			panic(r)
		}
	}()
	for !s.bs.Done() {
		var dispatched bool
		if !s.aborting {
			dispatched = s.dispatchReady(ctx)
		}
		if !dispatched && s.outstanding == 0 {
			// Nothing ready and nothing in flight: either every
			// remaining node is poisoned, or we're aborting and have
			// drained the last outstanding command.
			break
		}
		if s.outstanding > 0 {
			s.reapOne()
		}
	}
	if err := s.pool.Stop(); err != nil && s.firstErr == nil {
		s.firstErr = err
	}
	return s.firstErr
}

// dispatchReady pulls ready nodes off the graph, one per acquired
// semaphore slot, and either finishes each immediately (sources,
// retrieve shims, and nodes the Rebuilder finds Clean) or submits it to
// the pool. It never blocks: once every slot is held by an outstanding
// command, it returns so Run can drain a result and free one up. It
// reports whether it dispatched at least one node or finished one
// inline.
//
// A rebuilder error aborts the invocation at the point it is observed
// (spec §7, §4.G item 1): no further node is dispatched after one, in
// flight commands are left to finish via reapOne, and Run stops
// calling dispatchReady once aborting is set.
func (s *Scheduler) dispatchReady(ctx context.Context) bool {
	progressed := false
	for {
		if s.aborting {
			return progressed
		}
		if !s.sem.TryAcquire(1) {
			return progressed
		}
		key, task, ok := s.bs.NextReady()
		if !ok {
			s.sem.Release(1)
			return progressed
		}
		progressed = true

		disposition, err := NeedsRebuild(task, s.oracle)
		if err != nil {
			s.sem.Release(1)
			s.fail(err)
			s.aborting = true
			s.bs.FinishNode(key, false)
			return progressed
		}

		if task.Kind != TaskCommand || disposition == Clean {
			s.sem.Release(1)
			s.status.Skipped(key)
			s.bs.FinishNode(key, true)
			continue
		}

		if task.Phony {
			// Phony edges join dependencies but never spawn a command.
			s.sem.Release(1)
			s.bs.FinishNode(key, true)
			continue
		}

		if err := EnsureOutputDirs(task.Outputs); err != nil {
			s.sem.Release(1)
			s.fail(err)
			s.bs.FinishNode(key, false)
			continue
		}

		s.status.EdgeStarted(task.Description, task.Command)
		s.outstanding++
		command := task.Command
		k := key
		t := task
		s.pool.Submit(&execpool.WorkItem{
			ID: k,
			Run: func(ctx context.Context) (interface{}, error) {
				res, err := RunCommand(ctx, command)
				return struct {
					res CommandResult
					t   *Task
				}{res, t}, err
			},
		})
	}
}

// reapOne blocks for exactly one pool result and folds it back into
// the graph.
func (s *Scheduler) reapOne() {
	r := <-s.pool.Results()
	s.sem.Release(1)
	s.outstanding--

	key, _ := r.ID.(Key)

	if panicErr, ok := r.Err.(*execpool.PanicError); ok {
		// Executor panics are distinct from command failures (spec §7:
		// "Command failures do NOT abort... Executor panics surface as
		// an executor error and terminate the build."): poison this
		// node and stop dispatching any further work, rather than
		// letting unrelated branches keep running.
		err := &ExecutorPanicError{Recovered: panicErr.Recovered}
		s.fail(err)
		s.aborting = true
		s.status.EdgeFinished("", "", Dirty, err, nil)
		s.bs.FinishNode(key, false)
		return
	}

	if r.Err != nil {
		// A non-panic executor error (e.g. a failure to even start the
		// command) is not a rebuilder or panic error; it poisons only
		// this node's transitive dependents, same as a command failure.
		s.fail(r.Err)
		s.status.EdgeFinished("", "", Dirty, r.Err, nil)
		s.bs.FinishNode(key, false)
		return
	}

	payload := r.Value.(struct {
		res CommandResult
		t   *Task
	})
	if payload.res.ExitCode != 0 {
		cmdErr := &CommandFailedError{
			Command:  payload.t.Command,
			ExitCode: payload.res.ExitCode,
			Stderr:   string(payload.res.Output),
		}
		s.fail(cmdErr)
		s.status.EdgeFinished(payload.t.Description, payload.t.Command, Dirty, cmdErr, payload.res.Output)
		s.bs.FinishNode(key, false)
		return
	}

	s.status.EdgeFinished(payload.t.Description, payload.t.Command, Dirty, nil, payload.res.Output)
	s.bs.FinishNode(key, true)
}

func (s *Scheduler) fail(err error) {
	if s.firstErr == nil {
		s.firstErr = err
	}
}
