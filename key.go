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
	"sort"
	"strings"
)

// Key is the unit of identity in the task graph (spec §3): either a
// single output path or the sorted set of outputs of a multi-output
// edge. Paths are carried as Go strings, which are just byte sequences;
// nothing here requires them to be valid UTF-8.
//
// A Key is comparable by value (children is empty for Single and holds
// the sorted, joined children for Multi), so it can be used as a map
// key directly.
type Key struct {
	path     string
	children string // children joined with keySep, empty for Single
}

const keySep = "\x00"

// SingleKey builds a Key identifying one output path.
func SingleKey(path string) Key {
	return Key{path: path}
}

// MultiKey builds a Key identifying a multi-output edge's aggregate
// identity. paths is copied and sorted; duplicates are removed the way
// a set of declared outputs naturally would be.
func MultiKey(paths []string) Key {
	cp := append([]string(nil), paths...)
	sort.Strings(cp)
	cp = dedupSorted(cp)
	return Key{children: strings.Join(cp, keySep)}
}

func dedupSorted(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// IsMulti reports whether k is a Multi key.
func (k Key) IsMulti() bool { return k.children != "" }

// Path returns the single output path. Only valid when !IsMulti().
func (k Key) Path() string { return k.path }

// Paths returns the sorted child output paths of a Multi key. Only
// valid when IsMulti().
func (k Key) Paths() []string {
	if k.children == "" {
		return nil
	}
	return strings.Split(k.children, keySep)
}

// Singles decomposes k into its constituent Single keys: itself for a
// Single key, or one per child for a Multi key.
func (k Key) Singles() []Key {
	if !k.IsMulti() {
		return []Key{k}
	}
	paths := k.Paths()
	out := make([]Key, len(paths))
	for i, p := range paths {
		out[i] = SingleKey(p)
	}
	return out
}

// String renders a debug-friendly, deterministic representation.
func (k Key) String() string {
	if !k.IsMulti() {
		return k.path
	}
	return "{" + strings.Join(k.Paths(), ", ") + "}"
}
