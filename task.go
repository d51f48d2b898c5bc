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

// TaskKind distinguishes the three shapes of node the task graph holds
// (spec §3 "Task"):
//
//   - TaskSource:   a leaf path nobody's "build" statement produces.
//     It has no dependencies and is never "run"; it is dirty only
//     in the sense that it must exist on disk.
//   - TaskCommand:  the result of a "build" statement with a command
//     (or phony, which runs nothing). Keyed by a Single key when the
//     edge has one output, or a Multi key when it has several.
//   - TaskRetrieve: a shim for one output of a multi-output edge. It
//     has exactly one dependency, the edge's Multi key, and lets every
//     individual output path be addressed (and depended upon) on its
//     own even though the edge itself only runs once.
type TaskKind int

const (
	TaskSource TaskKind = iota
	TaskCommand
	TaskRetrieve
)

func (k TaskKind) String() string {
	switch k {
	case TaskSource:
		return "source"
	case TaskCommand:
		return "command"
	case TaskRetrieve:
		return "retrieve"
	}
	return "unknown"
}

// Task is one node of the task graph (spec §3). Dependencies feed the
// rebuilder's dirtiness check; OrderOnly only constrains scheduling
// order (spec §4.D).
type Task struct {
	Key Key
	Kind TaskKind

	Phony       bool
	Command     string
	Description string
	Pos         Position

	// Outputs holds the underlying output paths this task is
	// responsible for producing. For a Single-keyed TaskCommand this is
	// one path (== Key.Path()); for a Multi-keyed one it's every output
	// of the edge. Empty for TaskSource and TaskRetrieve.
	Outputs []string

	Dependencies []Key
	OrderOnly    []Key
}

// TaskMap is the full set of tasks discovered while building the task
// graph, indexed by Key (spec §3 "TaskMap").
type TaskMap map[Key]*Task

// BuildTaskMap turns a CanonicalDescription into a TaskMap: one
// TaskCommand per edge (Single- or Multi-keyed depending on output
// count), one TaskRetrieve shim per output of a multi-output edge, and
// one TaskSource for every dependency path that is nobody's output
// (spec §4.C → §3 transition, "task-builder").
func BuildTaskMap(desc *CanonicalDescription) (TaskMap, error) {
	tm := TaskMap{}
	produced := map[string]bool{}

	for _, b := range desc.Builds {
		var key Key
		if len(b.Outputs) == 1 {
			key = SingleKey(b.Outputs[0])
		} else {
			key = MultiKey(b.Outputs)
		}

		deps := make([]Key, 0, len(b.Dependencies()))
		for _, d := range b.Dependencies() {
			deps = append(deps, SingleKey(d))
		}
		orderOnly := make([]Key, 0, len(b.OrderOnlyDependencies()))
		for _, d := range b.OrderOnlyDependencies() {
			orderOnly = append(orderOnly, SingleKey(d))
		}

		tm[key] = &Task{
			Key:          key,
			Kind:         TaskCommand,
			Phony:        b.Phony,
			Command:      b.Command,
			Description:  b.Description,
			Pos:          b.Pos,
			Outputs:      append([]string(nil), b.Outputs...),
			Dependencies: deps,
			OrderOnly:    orderOnly,
		}

		for _, o := range b.Outputs {
			produced[o] = true
			if key.IsMulti() {
				sk := SingleKey(o)
				tm[sk] = &Task{
					Key:          sk,
					Kind:         TaskRetrieve,
					Dependencies: []Key{key},
				}
			}
		}
	}

	for _, b := range desc.Builds {
		for _, d := range b.Dependencies() {
			if produced[d] {
				continue
			}
			sk := SingleKey(d)
			if _, ok := tm[sk]; ok {
				continue
			}
			tm[sk] = &Task{Key: sk, Kind: TaskSource}
		}
		for _, d := range b.OrderOnlyDependencies() {
			if produced[d] {
				continue
			}
			sk := SingleKey(d)
			if _, ok := tm[sk]; ok {
				continue
			}
			tm[sk] = &Task{Key: sk, Kind: TaskSource}
		}
	}

	return tm, nil
}

// ComputeRoots returns the Single key for every output path that is
// nobody's dependency: the graph's externals, which is what the tool
// builds when invoked with no explicit targets (spec §6).
func ComputeRoots(desc *CanonicalDescription) []Key {
	consumed := map[string]bool{}
	for _, b := range desc.Builds {
		for _, d := range b.Dependencies() {
			consumed[d] = true
		}
		for _, d := range b.OrderOnlyDependencies() {
			consumed[d] = true
		}
	}

	var roots []Key
	for _, b := range desc.Builds {
		for _, o := range b.Outputs {
			if !consumed[o] {
				roots = append(roots, SingleKey(o))
			}
		}
	}
	return roots
}
