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
	"sort"
)

// Token is a lexeme kind, unlike the teacher's re2c-generated lexer this
// one is hand-written but keeps the same token set (spec §4.A).
type Token int

const (
	ERROR Token = iota
	BUILD
	COLON
	DEFAULT
	EQUALS
	IDENT
	INCLUDE
	INDENT
	NEWLINE
	COMMENT
	PIPE
	PIPE2
	POOL
	RULE
	SUBNINJA
	TEOF
)

func (t Token) String() string {
	switch t {
	case ERROR:
		return "lexing error"
	case BUILD:
		return "'build'"
	case COLON:
		return "':'"
	case DEFAULT:
		return "'default'"
	case EQUALS:
		return "'='"
	case IDENT:
		return "identifier"
	case INCLUDE:
		return "'include'"
	case INDENT:
		return "indent"
	case NEWLINE:
		return "newline"
	case COMMENT:
		return "comment"
	case PIPE2:
		return "'||'"
	case PIPE:
		return "'|'"
	case POOL:
		return "'pool'"
	case RULE:
		return "'rule'"
	case SUBNINJA:
		return "'subninja'"
	case TEOF:
		return "eof"
	}
	return "unknown"
}

var keywords = map[string]Token{
	"build":    BUILD,
	"rule":     RULE,
	"default":  DEFAULT,
	"include":  INCLUDE,
	"subninja": SUBNINJA,
	"pool":     POOL,
}

// EvalString is a tokenized string that contains variable references; it
// can later be evaluated relative to an Env (spec §3/§9).
type EvalString struct {
	Parsed []evalToken
}

type evalToken struct {
	text    string
	special bool
}

func (e *EvalString) addText(s string) {
	if n := len(e.Parsed); n > 0 && !e.Parsed[n-1].special {
		e.Parsed[n-1].text += s
		return
	}
	e.Parsed = append(e.Parsed, evalToken{text: s})
}

func (e *EvalString) addSpecial(name string) {
	e.Parsed = append(e.Parsed, evalToken{text: name, special: true})
}

// Evaluate resolves every variable reference against env and
// concatenates the result.
func (e *EvalString) Evaluate(env Env) string {
	var buf []byte
	for _, tok := range e.Parsed {
		if tok.special {
			buf = append(buf, env.LookupVariable(tok.text)...)
		} else {
			buf = append(buf, tok.text...)
		}
	}
	return string(buf)
}

// Unparse renders the template back to ninja syntax ("${name}" for
// special tokens), used for the "rule name, command-template" pair
// round-trip property in spec §8.
func (e *EvalString) Unparse() string {
	var buf []byte
	for _, tok := range e.Parsed {
		if tok.special {
			buf = append(buf, '$', '{')
			buf = append(buf, tok.text...)
			buf = append(buf, '}')
		} else {
			buf = append(buf, tok.text...)
		}
	}
	return string(buf)
}

// Empty reports whether the template has no tokens at all (used by the
// parser to detect "no more paths on this line").
func (e *EvalString) Empty() bool { return len(e.Parsed) == 0 }

// lexer is a byte-level scanner over one source file's bytes (spec
// §4.A). Positions are offsets into input; position() converts an offset
// into a 1-based line/0-based column using a sorted list of line-start
// offsets, giving O(log L) position lookup as required by the spec.
type lexer struct {
	filename string
	input    []byte

	pos        int
	lineStarts []int

	lastTokenStart int
	atLineStart    bool
}

func newLexer(filename string, input []byte) *lexer {
	l := &lexer{filename: filename, input: input, atLineStart: true}
	l.lineStarts = append(l.lineStarts, 0)
	for i, b := range input {
		if b == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	return l
}

// position converts a byte offset into a Position via binary search
// over lineStarts (O(log L), spec §4.A).
func (l *lexer) position(offset int) Position {
	i := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Position{Source: l.filename, Line: i + 1, Column: offset - l.lineStarts[i]}
}

// retrieveLine returns the raw bytes of the line containing offset, for
// diagnostic context (spec §4.A).
func (l *lexer) retrieveLine(offset int) string {
	i := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	start := l.lineStarts[i]
	end := len(l.input)
	if i+1 < len(l.lineStarts) {
		end = l.lineStarts[i+1] - 1
	}
	if end > len(l.input) {
		end = len(l.input)
	}
	if end < start {
		end = start
	}
	return string(l.input[start:end])
}

func (l *lexer) errorAt(offset int, format string, args ...interface{}) *SyntaxError {
	pos := l.position(offset)
	return &SyntaxError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
		Line:    l.retrieveLine(offset),
		Column:  pos.Column,
	}
}

func (l *lexer) errorHere(format string, args ...interface{}) *SyntaxError {
	return l.errorAt(l.lastTokenStart, format, args...)
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' || b == '-' || b == '/' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// skipComment consumes a leading '#' through end of line (not including
// the newline itself).
func (l *lexer) skipComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
}

// readToken returns the next top-level token, as described in spec
// §4.A. It tracks beginning-of-line state to recognize INDENT.
func (l *lexer) readToken() (Token, error) {
	for {
		if l.pos >= len(l.input) {
			l.lastTokenStart = l.pos
			return TEOF, nil
		}

		if l.atLineStart {
			l.atLineStart = false
			if l.input[l.pos] == ' ' || l.input[l.pos] == '\t' {
				start := l.pos
				for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
					l.pos++
				}
				l.lastTokenStart = start
				if l.pos < len(l.input) && (l.input[l.pos] == '\n' || l.input[l.pos] == '#') {
					// Blank or comment-only indented line: treat as blank.
					continue
				}
				return INDENT, nil
			}
		}

		c := l.input[l.pos]
		switch {
		case c == '\n':
			l.lastTokenStart = l.pos
			l.pos++
			l.atLineStart = true
			return NEWLINE, nil
		case c == '\r':
			l.pos++
			continue
		case c == ' ' || c == '\t':
			l.pos++
			continue
		case c == '#':
			l.lastTokenStart = l.pos
			l.skipComment()
			return COMMENT, nil
		case c == ':':
			l.lastTokenStart = l.pos
			l.pos++
			return COLON, nil
		case c == '=':
			l.lastTokenStart = l.pos
			l.pos++
			return EQUALS, nil
		case c == '|':
			l.lastTokenStart = l.pos
			l.pos++
			if l.pos < len(l.input) && l.input[l.pos] == '|' {
				l.pos++
				return PIPE2, nil
			}
			return PIPE, nil
		case isIdentStart(c):
			start := l.pos
			for l.pos < len(l.input) && isIdentByte(l.input[l.pos]) {
				l.pos++
			}
			l.lastTokenStart = start
			word := string(l.input[start:l.pos])
			if tok, ok := keywords[word]; ok {
				return tok, nil
			}
			// Not a keyword: the identifier is consumed. A caller that
			// wants to re-read it (e.g. as a binding name via readIdent)
			// calls unreadToken.
			return IDENT, nil
		default:
			l.lastTokenStart = l.pos
			return ERROR, l.errorAt(l.pos, "lexing error: unexpected character")
		}
	}
}

// unreadToken rewinds to the start of the last-read token, the way the
// teacher's Lexer.UnreadToken does, so the parser can peek a token and
// put it back when it doesn't match what it expected.
func (l *lexer) unreadToken() {
	l.pos = l.lastTokenStart
	// If we rewind across a newline we must restore atLineStart so
	// INDENT detection still triggers correctly.
	if l.lastTokenStart == 0 {
		l.atLineStart = true
		return
	}
	l.atLineStart = l.input[l.lastTokenStart-1] == '\n'
}

// peekToken reads a token and, if it doesn't match expected, rewinds.
func (l *lexer) peekToken(expected Token) bool {
	start := l.pos
	startLineStart := l.atLineStart
	startLastTok := l.lastTokenStart
	tok, err := l.readToken()
	if err == nil && tok == expected {
		return true
	}
	l.pos = start
	l.atLineStart = startLineStart
	l.lastTokenStart = startLastTok
	return false
}

// readIdent reads a bare identifier (rule/pool/variable name), used
// right after BUILD/RULE/POOL keywords and at the start of "name = value"
// lines. Returns "" if the current position isn't an identifier.
func (l *lexer) readIdent() string {
	l.skipInlineSpace()
	// The identifier itself is the start-of-line token, so whitespace
	// after it must not be read back as INDENT.
	l.atLineStart = false
	start := l.pos
	for l.pos < len(l.input) && isIdentByte(l.input[l.pos]) {
		l.pos++
	}
	l.lastTokenStart = start
	return string(l.input[start:l.pos])
}

func (l *lexer) skipInlineSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

// readEvalString reads a $-escaped template. When path is true, it stops
// at the first unescaped space, newline, ':', or '|' (the delimiters
// between paths on a "build"/"default" line); otherwise it reads to the
// end of the (possibly $-continued) line, as spec.md §4.A describes.
// Leading horizontal whitespace is skipped in both modes.
func (l *lexer) readEvalString(path bool) (EvalString, error) {
	var out EvalString
	l.skipInlineSpace()
	start := l.pos
	flushRaw := func(end int) {
		if end > start {
			out.addText(string(l.input[start:end]))
		}
	}
	for {
		if l.pos >= len(l.input) {
			flushRaw(l.pos)
			return out, nil
		}
		c := l.input[l.pos]
		if c == '$' {
			flushRaw(l.pos)
			l.pos++
			if err := l.readEscape(&out); err != nil {
				return out, err
			}
			start = l.pos
			continue
		}
		if path {
			if c == ' ' || c == '\n' || c == '\r' || c == ':' || c == '|' {
				flushRaw(l.pos)
				return out, nil
			}
		} else {
			if c == '\n' {
				flushRaw(l.pos)
				return out, nil
			}
		}
		l.pos++
	}
}

// readEscape handles everything after a literal '$' has been consumed:
// line continuation, ${name}, $name, and single-char escapes (spec
// §4.A: "$ followed by a newline, a space, or a variable reference").
func (l *lexer) readEscape(out *EvalString) error {
	if l.pos >= len(l.input) {
		return l.errorAt(l.pos, "unexpected EOF")
	}
	c := l.input[l.pos]
	switch {
	case c == '\n':
		// Line continuation: join the next line after stripping its
		// leading horizontal whitespace. Lexer-level per spec §4.A.
		l.pos++
		l.skipInlineSpace()
		return nil
	case c == '\r':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '\n' {
			l.pos++
		}
		l.skipInlineSpace()
		return nil
	case c == ' ':
		out.addText(" ")
		l.pos++
		return nil
	case c == '$':
		out.addText("$")
		l.pos++
		return nil
	case c == ':':
		out.addText(":")
		l.pos++
		return nil
	case c == '{':
		l.pos++
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] != '}' {
			if l.input[l.pos] == '\n' {
				return l.errorAt(start, "expected '}'")
			}
			l.pos++
		}
		if l.pos >= len(l.input) {
			return l.errorAt(start, "expected '}'")
		}
		name := string(l.input[start:l.pos])
		l.pos++ // consume '}'
		if name == "" {
			return l.errorAt(start, "expected variable name")
		}
		out.addSpecial(name)
		return nil
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.input) && isIdentByte(l.input[l.pos]) {
			l.pos++
		}
		out.addSpecial(string(l.input[start:l.pos]))
		return nil
	default:
		return l.errorAt(l.pos, "bad $-escape (literal $ must be written as $$)")
	}
}

// expectToken consumes the next token and produces a positioned error
// if it doesn't match expected.
func (l *lexer) expectToken(expected Token) error {
	tok, err := l.readToken()
	if err != nil {
		return err
	}
	if tok != expected {
		return l.errorHere("expected %s, got %s", expected, tok)
	}
	return nil
}
