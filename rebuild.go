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

import "time"

// Oracle answers the single question the rebuilder needs: does path
// exist, and if so, when was it last modified (spec §4.E). DiskOracle
// is the only production implementation; tests supply a fake.
type Oracle interface {
	Stat(path string) (mtime time.Time, exists bool, err error)
}

// Disposition is the rebuilder's verdict for one task (spec §4.E).
type Disposition int

const (
	// Clean means the task's current on-disk state already satisfies
	// its dependencies; it does not need to run.
	Clean Disposition = iota
	// Dirty means the task must run unconditionally: it is a phony
	// edge, which has no output file to compare, or one of its
	// dependencies does not exist.
	Dirty
	// DoesNotExist means a required output is missing.
	DoesNotExist
	// Modified means an output exists but is older than a dependency,
	// so the command must be re-run to refresh it.
	Modified
)

func (d Disposition) String() string {
	switch d {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case DoesNotExist:
		return "does-not-exist"
	case Modified:
		return "modified"
	}
	return "unknown"
}

// NeedsRebuild reports whether task must run. It is pure given oracle:
// called only once every dependency of task has itself finished (so a
// dependency's freshly-produced output already carries its final
// mtime), it never needs to know whether an upstream task "was dirty"
// — restat-ing its own outputs against its dependencies' current
// mtimes is sufficient (spec §4.E).
func NeedsRebuild(task *Task, oracle Oracle) (Disposition, error) {
	switch task.Kind {
	case TaskSource:
		_, exists, err := oracle.Stat(task.Key.Path())
		if err != nil {
			return 0, &RebuilderError{Path: task.Key.Path(), Err: err}
		}
		if !exists {
			return DoesNotExist, nil
		}
		return Clean, nil

	case TaskRetrieve:
		// A retrieve shim never itself runs; its freshness is entirely
		// inherited from the Multi task it points at.
		return Clean, nil
	}

	if task.Phony {
		return Dirty, nil
	}

	oldest, ok, err := oldestMTime(oracle, task.Outputs)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DoesNotExist, nil
	}

	for _, dep := range task.Dependencies {
		depPath := dep.Path()
		depTime, exists, err := oracle.Stat(depPath)
		if err != nil {
			return 0, &RebuilderError{Path: depPath, Err: err}
		}
		if !exists {
			return Dirty, nil
		}
		if depTime.After(oldest) {
			return Modified, nil
		}
	}
	return Clean, nil
}

func oldestMTime(oracle Oracle, paths []string) (time.Time, bool, error) {
	var oldest time.Time
	for i, p := range paths {
		t, exists, err := oracle.Stat(p)
		if err != nil {
			return time.Time{}, false, &RebuilderError{Path: p, Err: err}
		}
		if !exists {
			return time.Time{}, false, nil
		}
		if i == 0 || t.Before(oldest) {
			oldest = t
		}
	}
	return oldest, true, nil
}
