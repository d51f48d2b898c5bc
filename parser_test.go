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
	"fmt"
	"testing"
)

// mapLoader is an in-memory FileLoader for tests, avoiding any real
// filesystem access while exercising include/subninja.
type mapLoader map[string][]byte

func (m mapLoader) Load(request string) ([]byte, error) {
	b, ok := m[request]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", request)
	}
	return b, nil
}

func TestParseSimpleBuildEdge(t *testing.T) {
	src := mapLoader{"build.ninja": []byte(
		"rule cc\n  command = gcc -c $in -o $out\n\nbuild foo.o: cc foo.c\n",
	)}
	desc, err := ParseManifest(src, "build.ninja")
	if err != nil {
		t.Fatal(err)
	}
	if len(desc.Builds) != 1 {
		t.Fatalf("len(Builds) = %d, want 1", len(desc.Builds))
	}
	b := desc.Builds[0]
	if b.ruleName != "cc" {
		t.Fatalf("ruleName = %q", b.ruleName)
	}
	if len(b.outs) != 1 || b.outs[0].Evaluate(desc.TopEnv) != "foo.o" {
		t.Fatalf("outs = %v", b.outs)
	}
	if len(b.ins) != 1 || b.ins[0].Evaluate(desc.TopEnv) != "foo.c" {
		t.Fatalf("ins = %v", b.ins)
	}
}

func TestParseImplicitAndOrderOnlyInputs(t *testing.T) {
	src := mapLoader{"build.ninja": []byte(
		"rule cc\n  command = x\n\nbuild out1 out2 | implicit_out: cc in1 | implicit_in || order_in\n",
	)}
	desc, err := ParseManifest(src, "build.ninja")
	if err != nil {
		t.Fatal(err)
	}
	b := desc.Builds[0]
	if len(b.outs) != 3 || b.implicitOuts != 1 {
		t.Fatalf("outs = %v, implicitOuts = %d", b.outs, b.implicitOuts)
	}
	if len(b.ins) != 3 || b.implicitIns != 1 || b.orderOnlyIns != 1 {
		t.Fatalf("ins = %v, implicitIns = %d, orderOnlyIns = %d", b.ins, b.implicitIns, b.orderOnlyIns)
	}
}

func TestParseIncludeExpandsIntoCurrentScope(t *testing.T) {
	src := mapLoader{
		"build.ninja": []byte("include other.ninja\nbuild b: phony a\n"),
		"other.ninja": []byte("build a: phony\n"),
	}
	desc, err := ParseManifest(src, "build.ninja")
	if err != nil {
		t.Fatal(err)
	}
	if len(desc.Builds) != 2 {
		t.Fatalf("len(Builds) = %d, want 2", len(desc.Builds))
	}
}

func TestParseSubninjaGetsFreshChildScope(t *testing.T) {
	src := mapLoader{
		"build.ninja": []byte("x = top\nsubninja child.ninja\n"),
		"child.ninja":  []byte("rule r\n  command = echo $x\nbuild out: r\n"),
	}
	desc, err := ParseManifest(src, "build.ninja")
	if err != nil {
		t.Fatal(err)
	}
	b := desc.Builds[0]
	rule := b.env.LookupRule("r")
	if rule == nil {
		t.Fatal("rule r not found via child scope")
	}
	if got := EvaluateCommand(rule, b.env); got != "echo top" {
		t.Fatalf("EvaluateCommand() = %q, want %q (parent lookup through subninja scope)", got, "echo top")
	}
}

func TestParseRejectsDuplicateRuleNamedPhony(t *testing.T) {
	src := mapLoader{"build.ninja": []byte("rule phony\n  command = x\n")}
	_, err := ParseManifest(src, "build.ninja")
	if err == nil {
		t.Fatal("expected error declaring a rule named phony")
	}
	if _, ok := err.(*DuplicateRuleError); !ok {
		t.Fatalf("err = %T, want *DuplicateRuleError", err)
	}
}

func TestParseRejectsUnknownRuleBinding(t *testing.T) {
	src := mapLoader{"build.ninja": []byte("rule cc\n  depfile = foo.d\n")}
	_, err := ParseManifest(src, "build.ninja")
	if err == nil {
		t.Fatal("expected error for unreserved rule binding")
	}
}

func TestParseDefaultStatement(t *testing.T) {
	src := mapLoader{"build.ninja": []byte("rule cc\n  command = x\nbuild out: cc\ndefault out\n")}
	desc, err := ParseManifest(src, "build.ninja")
	if err != nil {
		t.Fatal(err)
	}
	if len(desc.Defaults) != 1 || desc.Defaults[0].Evaluate(desc.TopEnv) != "out" {
		t.Fatalf("Defaults = %v", desc.Defaults)
	}
}
