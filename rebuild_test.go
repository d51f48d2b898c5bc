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
	"testing"
	"time"
)

type fakeOracle map[string]time.Time

func (f fakeOracle) Stat(path string) (time.Time, bool, error) {
	t, ok := f[path]
	return t, ok, nil
}

var epoch = time.Unix(0, 0)

func TestNeedsRebuildMissingOutput(t *testing.T) {
	task := &Task{Kind: TaskCommand, Outputs: []string{"foo.o"}, Dependencies: []Key{SingleKey("foo.c")}}
	oracle := fakeOracle{"foo.c": epoch}
	got, err := NeedsRebuild(task, oracle)
	if err != nil {
		t.Fatal(err)
	}
	if got != DoesNotExist {
		t.Fatalf("NeedsRebuild() = %v, want DoesNotExist", got)
	}
}

func TestNeedsRebuildModifiedDependency(t *testing.T) {
	task := &Task{Kind: TaskCommand, Outputs: []string{"foo.o"}, Dependencies: []Key{SingleKey("foo.c")}}
	oracle := fakeOracle{
		"foo.o": epoch,
		"foo.c": epoch.Add(time.Hour),
	}
	got, err := NeedsRebuild(task, oracle)
	if err != nil {
		t.Fatal(err)
	}
	if got != Modified {
		t.Fatalf("NeedsRebuild() = %v, want Modified", got)
	}
}

func TestNeedsRebuildClean(t *testing.T) {
	task := &Task{Kind: TaskCommand, Outputs: []string{"foo.o"}, Dependencies: []Key{SingleKey("foo.c")}}
	oracle := fakeOracle{
		"foo.o": epoch.Add(time.Hour),
		"foo.c": epoch,
	}
	got, err := NeedsRebuild(task, oracle)
	if err != nil {
		t.Fatal(err)
	}
	if got != Clean {
		t.Fatalf("NeedsRebuild() = %v, want Clean", got)
	}
}

func TestNeedsRebuildPhonyAlwaysDirty(t *testing.T) {
	task := &Task{Kind: TaskCommand, Phony: true}
	got, err := NeedsRebuild(task, fakeOracle{})
	if err != nil {
		t.Fatal(err)
	}
	if got != Dirty {
		t.Fatalf("NeedsRebuild() = %v, want Dirty", got)
	}
}

func TestNeedsRebuildMultiOutputOldestGoverns(t *testing.T) {
	task := &Task{Kind: TaskCommand, Outputs: []string{"a", "b"}, Dependencies: []Key{SingleKey("src")}}
	oracle := fakeOracle{
		"a":   epoch.Add(2 * time.Hour),
		"b":   epoch.Add(time.Hour), // oldest output governs
		"src": epoch.Add(90 * time.Minute),
	}
	got, err := NeedsRebuild(task, oracle)
	if err != nil {
		t.Fatal(err)
	}
	if got != Modified {
		t.Fatalf("NeedsRebuild() = %v, want Modified (src newer than oldest output b)", got)
	}
}

func TestNeedsRebuildSource(t *testing.T) {
	exists := &Task{Kind: TaskSource, Key: SingleKey("present")}
	missing := &Task{Kind: TaskSource, Key: SingleKey("absent")}
	oracle := fakeOracle{"present": epoch}

	if got, _ := NeedsRebuild(exists, oracle); got != Clean {
		t.Fatalf("present source = %v, want Clean", got)
	}
	if got, _ := NeedsRebuild(missing, oracle); got != DoesNotExist {
		t.Fatalf("missing source = %v, want DoesNotExist", got)
	}
}
