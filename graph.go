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

// node is one graph-indexed entry: a Task plus the bookkeeping the
// BuildState needs to know when it becomes runnable (spec §4.F).
type node struct {
	task *Task

	// preds is every key this node must wait on before it can run:
	// dependencies and order-only dependencies combined, since both
	// gate scheduling order even though only dependencies gate
	// dirtiness (spec §4.D).
	preds []Key
	// succs is the reverse edge set: nodes that list this key among
	// their preds.
	succs []Key

	remaining int // preds not yet finished
	poisoned  bool
	finished  bool
}

// BuildState is the mutable scheduling state over a TaskMap restricted
// to whatever is reachable from a set of requested roots: a
// node-indexed adjacency list partitioned into ready/waiting/finished
// (spec §4.F). It has no notion of concurrency or execution; Scheduler
// drives it.
type BuildState struct {
	nodes map[Key]*node
	ready []Key

	finishedCount int
	poisonedCount int
	failed        error
}

// NewBuildState computes the subgraph of tm reachable from roots via a
// post-order DFS, detects cycles, and seeds the ready queue with every
// leaf (a node with no predecessors) in post-order (spec §4.F).
func NewBuildState(tm TaskMap, roots []Key) (*BuildState, error) {
	bs := &BuildState{nodes: map[Key]*node{}}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	mark := map[Key]int{}
	var order []Key
	var stack []string

	var visit func(k Key) error
	visit = func(k Key) error {
		switch mark[k] {
		case visited:
			return nil
		case visiting:
			cycle := append(append([]string(nil), stack...), k.String())
			return &DependencyCycleError{Cycle: cycle}
		}
		mark[k] = visiting
		stack = append(stack, k.String())

		t, ok := tm[k]
		if !ok {
			t = &Task{Key: k, Kind: TaskSource}
		}
		preds := append(append([]Key(nil), t.Dependencies...), t.OrderOnly...)
		for _, p := range preds {
			if err := visit(p); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		mark[k] = visited
		order = append(order, k)
		bs.nodes[k] = &node{task: t, preds: preds}
		return nil
	}

	for _, r := range roots {
		if err := visit(r); err != nil {
			return nil, err
		}
	}

	for _, k := range order {
		n := bs.nodes[k]
		n.remaining = len(n.preds)
		for _, p := range n.preds {
			pn := bs.nodes[p]
			pn.succs = append(pn.succs, k)
		}
	}
	for _, k := range order {
		if bs.nodes[k].remaining == 0 {
			bs.ready = append(bs.ready, k)
		}
	}

	return bs, nil
}

// Done reports whether every node has either finished or been
// poisoned.
func (bs *BuildState) Done() bool {
	return bs.finishedCount+bs.poisonedCount == len(bs.nodes)
}

// NextReady pops the next runnable node in FIFO order, or reports
// false if none is currently ready.
func (bs *BuildState) NextReady() (Key, *Task, bool) {
	if len(bs.ready) == 0 {
		return Key{}, nil, false
	}
	k := bs.ready[0]
	bs.ready = bs.ready[1:]
	return k, bs.nodes[k].task, true
}

// FinishNode records that key's task completed, with ok indicating
// success. On failure every transitive dependent is poisoned (skipped
// rather than scheduled) instead of the whole build stopping outright,
// mirroring the teacher's Plan::NodeFinished/CleanNode fallout
// (spec §4.F, §7). It returns the set of dependents that became ready
// as a result.
func (bs *BuildState) FinishNode(key Key, ok bool) []Key {
	n := bs.nodes[key]
	n.finished = true
	bs.finishedCount++
	if !ok {
		bs.poisonDependents(n)
		return nil
	}

	var newlyReady []Key
	for _, s := range n.succs {
		sn := bs.nodes[s]
		if sn.poisoned || sn.finished {
			continue
		}
		sn.remaining--
		if sn.remaining == 0 {
			bs.ready = append(bs.ready, s)
			newlyReady = append(newlyReady, s)
		}
	}
	return newlyReady
}

// poisonDependents marks every not-yet-finished transitive dependent of
// n as poisoned, so the scheduler will never dequeue it.
func (bs *BuildState) poisonDependents(n *node) {
	var walk func(n *node)
	walk = func(n *node) {
		for _, s := range n.succs {
			sn := bs.nodes[s]
			if sn.poisoned || sn.finished {
				continue
			}
			sn.poisoned = true
			bs.poisonedCount++
			walk(sn)
		}
	}
	walk(n)
}
