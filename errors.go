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
	"strings"
)

// Position locates a byte offset inside a named source file as a
// 1-based line and 0-based column, the way the teacher's Lexer.Error
// computes it.
type Position struct {
	Source string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Source, p.Line)
}

// SyntaxError is returned by the lexer and parser. It always carries a
// Position and, when available, the offending source line verbatim, so
// the CLI can print the same "file:line: message\n<source>\n^ near here"
// shape the teacher's Lexer.Error produces.
type SyntaxError struct {
	Pos     Position
	Message string
	Line    string // verbatim source line, may be empty
	Column  int    // 0 if unknown
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.Pos.Source, e.Pos.Line, e.Message)
	if e.Line == "" {
		return msg
	}
	col := e.Column
	if col < 0 {
		col = 0
	}
	pad := ""
	for i := 0; i < col; i++ {
		pad += " "
	}
	return fmt.Sprintf("%s\n%s\n%s^ near here", msg, e.Line, pad)
}

// Semantic error kinds produced by the parser (DuplicateRuleError) and
// the canonicalizer (the rest) (spec §4.C, §7).

// DuplicateRuleError is returned when a rule name collides with a
// previously declared rule, or with the built-in "phony" rule.
type DuplicateRuleError struct {
	Pos  Position
	Name string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("%s:%d: duplicate rule '%s'", e.Pos.Source, e.Pos.Line, e.Name)
}

// DuplicateOutputError is returned when an evaluated output path is
// produced by more than one build edge.
type DuplicateOutputError struct {
	Pos  Position
	Path string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("%s:%d: multiple rules generate '%s'", e.Pos.Source, e.Pos.Line, e.Path)
}

// UnknownRuleError is returned when a build edge references a rule name
// that was never declared (and is not the built-in "phony").
type UnknownRuleError struct {
	Pos  Position
	Name string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("%s:%d: unknown build rule '%s'", e.Pos.Source, e.Pos.Line, e.Name)
}

// MissingCommandError is returned when a non-phony rule has no "command"
// binding.
type MissingCommandError struct {
	Pos  Position
	Rule string
}

func (e *MissingCommandError) Error() string {
	return fmt.Sprintf("%s:%d: rule '%s' has no command", e.Pos.Source, e.Pos.Line, e.Rule)
}

// InvalidCommandEncodingError is returned when an evaluated command is
// not valid UTF-8.
type InvalidCommandEncodingError struct {
	Pos Position
}

func (e *InvalidCommandEncodingError) Error() string {
	return fmt.Sprintf("%s:%d: command is not valid UTF-8", e.Pos.Source, e.Pos.Line)
}

// DependencyCycleError is returned when the task graph contains a
// cycle reachable from a requested target (spec §4.F "Graph").
type DependencyCycleError struct {
	Cycle []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// RebuilderError wraps an oracle error other than not-found (spec §4.E,
// §7): an I/O failure while stat-ing a dependency or output.
type RebuilderError struct {
	Path string
	Err  error
}

func (e *RebuilderError) Error() string {
	return fmt.Sprintf("stat %s: %v", e.Path, e.Err)
}

func (e *RebuilderError) Unwrap() error { return e.Err }

// CommandFailedError is the build's final result when at least one
// command failed; it carries the first failure observed.
type CommandFailedError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Command)
}

// ExecutorPanicError surfaces a worker-goroutine panic through the
// command pool's return (spec §4.H, §7).
type ExecutorPanicError struct {
	Recovered interface{}
}

func (e *ExecutorPanicError) Error() string {
	return fmt.Sprintf("executor panic: %v", e.Recovered)
}
