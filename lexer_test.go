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

import "testing"

func TestLexerReadEvalStringEscapes(t *testing.T) {
	l := newLexer("test", []byte("$ $$ab c$: $\ncde\n"))
	ev, err := l.readEvalString(false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ev.Evaluate(nilEnv), " $ab c: cde"; got != want {
		t.Fatalf("Evaluate() = %q, want %q", got, want)
	}
}

func TestLexerReadIdent(t *testing.T) {
	l := newLexer("test", []byte("foo baR baz_123 foo-bar"))
	for _, want := range []string{"foo", "baR", "baz_123", "foo-bar"} {
		if got := l.readIdent(); got != want {
			t.Fatalf("readIdent() = %q, want %q", got, want)
		}
	}
}

func TestLexerKeywordsAndPunctuation(t *testing.T) {
	l := newLexer("test", []byte("build rule default pool include subninja : = | ||\n"))
	want := []Token{BUILD, RULE, DEFAULT, POOL, INCLUDE, SUBNINJA, COLON, EQUALS, PIPE, PIPE2, NEWLINE, TEOF}
	for i, w := range want {
		tok, err := l.readToken()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok != w {
			t.Fatalf("token %d = %s, want %s", i, tok, w)
		}
	}
}

func TestLexerIndent(t *testing.T) {
	l := newLexer("test", []byte("build x: y\n  z = v\n\nnext\n"))
	var got []Token
	for {
		tok, err := l.readToken()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, tok)
		if tok == TEOF {
			break
		}
	}
	want := []Token{
		BUILD, IDENT, COLON, IDENT, NEWLINE,
		INDENT, IDENT, EQUALS, IDENT, NEWLINE,
		NEWLINE, // blank line between the edge and "next"
		IDENT, NEWLINE, TEOF,
	}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexerPositionReporting(t *testing.T) {
	l := newLexer("build.ninja", []byte("line one\nline two\nbad!\n"))
	_, err := l.readToken() // IDENT "line"
	if err != nil {
		t.Fatal(err)
	}
	pos := l.position(l.lastTokenStart)
	if pos.Line != 1 {
		t.Fatalf("Line = %d, want 1", pos.Line)
	}
}

// nilEnv is a nil *BindingEnv used where a template has no variable
// references to resolve, avoiding a throwaway NewBindingEnv(nil) in
// every escape test.
var nilEnv Env = (*BindingEnv)(nil)
