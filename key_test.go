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

	"github.com/google/go-cmp/cmp"
)

func TestSingleKeyEquality(t *testing.T) {
	a := SingleKey("foo.o")
	b := SingleKey("foo.o")
	if a != b {
		t.Fatalf("%v != %v", a, b)
	}
	if a.IsMulti() {
		t.Fatal("IsMulti() = true for a Single key")
	}
	if a.Path() != "foo.o" {
		t.Fatalf("Path() = %q", a.Path())
	}
}

func TestMultiKeySortsAndDedups(t *testing.T) {
	a := MultiKey([]string{"b", "a", "a", "c"})
	b := MultiKey([]string{"c", "b", "a"})
	if a != b {
		t.Fatalf("%v != %v", a, b)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, a.Paths()); diff != "" {
		t.Fatalf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiKeyAsMapKey(t *testing.T) {
	m := map[Key]int{}
	m[MultiKey([]string{"x", "y"})] = 1
	if v := m[MultiKey([]string{"y", "x"})]; v != 1 {
		t.Fatalf("lookup with reordered children = %d, want 1", v)
	}
}

func TestKeySingles(t *testing.T) {
	single := SingleKey("a")
	if got := single.Singles(); len(got) != 1 || got[0] != single {
		t.Fatalf("Singles() on a Single key = %v", got)
	}

	multi := MultiKey([]string{"b", "a"})
	want := []Key{SingleKey("a"), SingleKey("b")}
	if diff := cmp.Diff(want, multi.Singles(), cmp.AllowUnexported(Key{})); diff != "" {
		t.Fatalf("Singles() mismatch (-want +got):\n%s", diff)
	}
}
