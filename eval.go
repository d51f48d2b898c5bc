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

// Env is the lookup interface an EvalString evaluates against (spec §3,
// §9). BindingEnv implements it, and so does ruleScopedEnv for
// rule-binding expansion.
type Env interface {
	LookupVariable(name string) string
}

// reservedRuleBindings is the fixed set of rule-variable names the
// parser accepts; this spec only wires "command" and "description" but
// keeps the name open for extension the way the teacher's
// Rule.IsReservedBinding does (spec §4.B).
var reservedRuleBindings = map[string]bool{
	"command":     true,
	"description": true,
}

// IsReservedRuleBinding reports whether name is an allowed rule-level
// binding.
func IsReservedRuleBinding(name string) bool {
	return reservedRuleBindings[name]
}

// Rule is an invocable build command template plus metadata. Bindings
// are stored unevaluated: command may reference $in/$out, which are
// only known once a build edge expands the rule (spec §3, §9).
type Rule struct {
	Name     string
	Bindings map[string]*EvalString
}

func newRule(name string) *Rule {
	return &Rule{Name: name, Bindings: map[string]*EvalString{}}
}

// GetBinding returns the rule's raw (unevaluated) binding, or nil.
func (r *Rule) GetBinding(name string) *EvalString {
	return r.Bindings[name]
}

// BindingEnv is an Env with a map of variables to already-evaluated
// string values, a map of locally-declared rules, and an optional
// parent scope (spec §3 "Environment"). Lookup walks parents.
//
// Only the owner of a *BindingEnv may mutate its bindings; child scopes
// (subninja, build-edge) hold a pointer back to their parent and never
// write through it.
type BindingEnv struct {
	Bindings map[string]string
	Rules    map[string]*Rule
	parent   *BindingEnv
}

// NewBindingEnv creates a scope, optionally nested under parent. A nil
// parent marks the top-level (file-scope) environment.
func NewBindingEnv(parent *BindingEnv) *BindingEnv {
	return &BindingEnv{
		Bindings: map[string]string{},
		Rules:    map[string]*Rule{},
		parent:   parent,
	}
}

// LookupVariable implements Env: plain lookup, walking parents, with no
// rule-binding fallback (spec §3).
func (b *BindingEnv) LookupVariable(name string) string {
	for e := b; e != nil; e = e.parent {
		if v, ok := e.Bindings[name]; ok {
			return v
		}
	}
	return ""
}

// LookupRule finds a rule by name, walking parents (spec §4.B scoping).
func (b *BindingEnv) LookupRule(name string) *Rule {
	for e := b; e != nil; e = e.parent {
		if r, ok := e.Rules[name]; ok {
			return r
		}
	}
	return nil
}

// LookupRuleCurrentScope finds a rule declared directly in b, ignoring
// parents (used by the parser's duplicate-rule check).
func (b *BindingEnv) LookupRuleCurrentScope(name string) *Rule {
	return b.Rules[name]
}

// AddRule registers a rule in the current scope.
func (b *BindingEnv) AddRule(r *Rule) {
	b.Rules[r.Name] = r
}

// ruleScopedEnv is the lazy "for-build" lookup described in spec §4.C
// and §9: for names not bound in the edge's own environment, it first
// consults the rule's own (lazily evaluated) bindings — so a rule's
// "command" referencing a rule-level binding that itself references
// $in/$out resolves against the edge — before falling back to the
// parent chain.
type ruleScopedEnv struct {
	edge *BindingEnv
	rule *Rule
}

func (r *ruleScopedEnv) LookupVariable(name string) string {
	if v, ok := r.edge.Bindings[name]; ok {
		return v
	}
	if eval, ok := r.rule.Bindings[name]; ok {
		return eval.Evaluate(r)
	}
	if r.edge.parent != nil {
		return r.edge.parent.LookupVariable(name)
	}
	return ""
}

// EvaluateCommand expands the rule's "command" binding against edge,
// injecting the edge's own bindings ($in, $out, and any edge-local
// `name = value` lines) first, then the rule's bindings, then the
// parent chain (spec §4.C).
func EvaluateCommand(rule *Rule, edge *BindingEnv) string {
	cmd := rule.GetBinding("command")
	if cmd == nil {
		return ""
	}
	return cmd.Evaluate(&ruleScopedEnv{edge: edge, rule: rule})
}

// EvaluateDescription expands the rule's optional "description" binding
// the same way, falling back to the command itself when absent.
func EvaluateDescription(rule *Rule, edge *BindingEnv) string {
	desc := rule.GetBinding("description")
	if desc == nil {
		return EvaluateCommand(rule, edge)
	}
	return desc.Evaluate(&ruleScopedEnv{edge: edge, rule: rule})
}
