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
	"strings"
	"unicode/utf8"
)

// phonyRuleName is the built-in rule every manifest has access to
// without declaring it: an edge with no command, used purely to group
// dependencies under a name (spec §4.C).
const phonyRuleName = "phony"

// CanonicalBuild is one fully-resolved build edge: every path and the
// command/description strings are plain, already-evaluated text, and
// Command is checked to be valid UTF-8 (spec §3 "Canonical
// description").
type CanonicalBuild struct {
	Pos Position

	Outputs         []string
	ImplicitOutputs int // suffix of Outputs that are implicit

	Inputs       []string
	ImplicitIns  int // count, within Inputs, that are implicit
	OrderOnlyIns int // count, within Inputs, that are order-only

	Phony       bool
	Command     string
	Description string
}

// ExplicitOutputs returns the edge's declared (non-implicit) outputs.
func (b *CanonicalBuild) ExplicitOutputs() []string {
	return b.Outputs[:len(b.Outputs)-b.ImplicitOutputs]
}

// ExplicitInputs returns the edge's declared (non-implicit,
// non-order-only) inputs.
func (b *CanonicalBuild) ExplicitInputs() []string {
	return b.Inputs[:len(b.Inputs)-b.ImplicitIns-b.OrderOnlyIns]
}

// Dependencies returns every input that participates in dirtiness
// checking: explicit plus implicit, excluding order-only (spec §3).
func (b *CanonicalBuild) Dependencies() []string {
	return b.Inputs[:len(b.Inputs)-b.OrderOnlyIns]
}

// OrderOnlyDependencies returns the inputs that gate scheduling order
// but are excluded from dirtiness checking (spec §3, §4.D).
func (b *CanonicalBuild) OrderOnlyDependencies() []string {
	return b.Inputs[len(b.Inputs)-b.OrderOnlyIns:]
}

// CanonicalDescription is the flat result of resolving a
// ParsedDescription: every rule reference checked, every path and
// command string evaluated (spec §4.C).
type CanonicalDescription struct {
	Builds []*CanonicalBuild
}

// Canonicalize resolves desc into a CanonicalDescription, checking for
// duplicate outputs, unknown rules, and commandless non-phony rules
// (spec §4.C, §7). Duplicate rules, including a user rule named
// "phony", are rejected by the parser and not checked again here.
func Canonicalize(desc *ParsedDescription) (*CanonicalDescription, error) {
	out := &CanonicalDescription{}
	seenOutputs := map[string]Position{}

	for _, pb := range desc.Builds {
		cb := &CanonicalBuild{Pos: pb.pos}

		cb.Outputs = make([]string, len(pb.outs))
		for i, ev := range pb.outs {
			cb.Outputs[i] = ev.Evaluate(pb.env)
		}
		cb.ImplicitOutputs = pb.implicitOuts

		cb.Inputs = make([]string, len(pb.ins))
		for i, ev := range pb.ins {
			cb.Inputs[i] = ev.Evaluate(pb.env)
		}
		cb.ImplicitIns = pb.implicitIns
		cb.OrderOnlyIns = pb.orderOnlyIns

		for _, o := range cb.Outputs {
			if prior, ok := seenOutputs[o]; ok {
				_ = prior
				return nil, &DuplicateOutputError{Pos: cb.Pos, Path: o}
			}
			seenOutputs[o] = cb.Pos
		}

		if pb.ruleName == phonyRuleName {
			cb.Phony = true
			out.Builds = append(out.Builds, cb)
			continue
		}

		rule := pb.env.LookupRule(pb.ruleName)
		if rule == nil {
			return nil, &UnknownRuleError{Pos: cb.Pos, Name: pb.ruleName}
		}
		if rule.GetBinding("command") == nil {
			return nil, &MissingCommandError{Pos: cb.Pos, Rule: pb.ruleName}
		}

		cmdEnv := NewBindingEnv(pb.env)
		cmdEnv.Bindings["in"] = strings.Join(cb.ExplicitInputs(), " ")
		cmdEnv.Bindings["out"] = strings.Join(cb.ExplicitOutputs(), " ")

		cb.Command = EvaluateCommand(rule, cmdEnv)
		cb.Description = EvaluateDescription(rule, cmdEnv)

		if !utf8.ValidString(cb.Command) {
			return nil, &InvalidCommandEncodingError{Pos: cb.Pos}
		}

		out.Builds = append(out.Builds, cb)
	}

	return out, nil
}
