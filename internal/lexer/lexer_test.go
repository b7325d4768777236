// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lexer

import (
	"testing"

	"github.com/holyc-tools/holycc/internal/diag"
)

func allTokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New("<test>", []byte(src))
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next() on %q: %v", src, err)
		}
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks := allTokens(t, "I64 Foo bar_1 TRUE")
	want := []struct {
		kind Kind
		text string
	}{
		{Keyword, "I64"},
		{Ident, "Foo"},
		{Ident, "bar_1"},
		{Keyword, "TRUE"},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Errorf("token %d = %+v, want {%v %q}", i, toks[i], w.kind, w.text)
		}
	}
}

func TestScanNumbers(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"123", "123"},
		{"0x1F", "0x1F"},
		{"0xDEAD_BEEF", "0xDEAD_BEEF"},
		{"3.14", "3.14"},
		{"1_000", "1_000"},
	} {
		toks := allTokens(t, tc.in)
		if len(toks) != 1 || toks[0].Kind != Number || toks[0].Text != tc.want {
			t.Errorf("scanNumber(%q) = %+v, want single Number %q", tc.in, toks, tc.want)
		}
	}
}

func TestScanNumberStopsAtSecondDot(t *testing.T) {
	toks := allTokens(t, "1.5.6")
	if len(toks) < 3 {
		t.Fatalf("got %+v, want a Number, a '.' punct, and a Number", toks)
	}
	if toks[0].Kind != Number || toks[0].Text != "1.5" {
		t.Errorf("first token = %+v, want Number 1.5", toks[0])
	}
	if toks[1].Kind != Punct || toks[1].Text != "." {
		t.Errorf("second token = %+v, want Punct .", toks[1])
	}
	if toks[2].Kind != Number || toks[2].Text != "6" {
		t.Errorf("third token = %+v, want Number 6", toks[2])
	}
}

func TestScanString(t *testing.T) {
	toks := allTokens(t, `"hello\nworld\t\\\"end"`)
	if len(toks) != 1 || toks[0].Kind != String {
		t.Fatalf("got %+v, want single String token", toks)
	}
	want := "hello\nworld\t\\\"end"
	if toks[0].Text != want {
		t.Errorf("String.Text = %q, want %q", toks[0].Text, want)
	}
}

func TestScanStringUnterminated(t *testing.T) {
	l := New("<test>", []byte(`"unterminated`))
	_, err := l.Next()
	assertDiagCode(t, err, "HC2001")
}

func TestScanStringUnterminatedAfterEscape(t *testing.T) {
	l := New("<test>", []byte(`"abc\`))
	_, err := l.Next()
	assertDiagCode(t, err, "HC2001")
}

func TestScanChar(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int64
	}{
		{`'a'`, int64('a')},
		{`'\n'`, int64('\n')},
		{`'\''`, int64('\'')},
		{`'\0'`, 0},
	} {
		toks := allTokens(t, tc.in)
		if len(toks) != 1 || toks[0].Kind != Char {
			t.Fatalf("scanChar(%q) = %+v, want single Char token", tc.in, toks)
		}
		want := itoa(tc.want)
		if toks[0].Text != want {
			t.Errorf("scanChar(%q).Text = %q, want %q", tc.in, toks[0].Text, want)
		}
	}
}

func TestScanCharUnterminated(t *testing.T) {
	for _, in := range []string{`'a`, `'`, `'\`} {
		l := New("<test>", []byte(in))
		_, err := l.Next()
		assertDiagCode(t, err, "HC2002")
	}
}

func TestSkipLineComment(t *testing.T) {
	toks := allTokens(t, "I64 x; // trailing comment\nI64 y;")
	var kinds []string
	for _, tok := range toks {
		kinds = append(kinds, tok.Text)
	}
	for _, want := range []string{"I64", "x", ";", "I64", "y", ";"} {
		found := false
		for _, k := range kinds {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("tokens %v missing %q", kinds, want)
		}
	}
	if len(toks) != 6 {
		t.Errorf("got %d tokens (comment not fully skipped?): %+v", len(toks), toks)
	}
}

func TestSkipBlockComment(t *testing.T) {
	toks := allTokens(t, "I64/* a block\ncomment */x;")
	if len(toks) != 3 {
		t.Fatalf("got %+v, want 3 tokens", toks)
	}
	if toks[2].Line != 2 {
		t.Errorf("token after block comment has Line=%d, want 2 (comment spans a newline)", toks[2].Line)
	}
}

func TestSkipBlockCommentUnterminated(t *testing.T) {
	l := New("<test>", []byte("/* never closes"))
	_, err := l.Next()
	assertDiagCode(t, err, "HC2003")
}

func TestScanPunctuatorsLongestMatch(t *testing.T) {
	toks := allTokens(t, "<<= << < <=")
	want := []string{"<<=", "<<", "<", "<="}
	if len(toks) != len(want) {
		t.Fatalf("got %+v, want %v", toks, want)
	}
	for i, w := range want {
		if toks[i].Kind != Punct || toks[i].Text != w {
			t.Errorf("token %d = %+v, want Punct %q", i, toks[i], w)
		}
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	l := New("<test>", []byte("@"))
	_, err := l.Next()
	assertDiagCode(t, err, "HC2099")
}

func TestLineColumnTracking(t *testing.T) {
	toks := allTokens(t, "I64 x;\nI64 y;")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("first token at %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	var secondI64 Token
	seen := 0
	for _, tok := range toks {
		if tok.Text == "I64" {
			seen++
			if seen == 2 {
				secondI64 = tok
			}
		}
	}
	if secondI64.Line != 2 {
		t.Errorf("second I64 at line %d, want 2", secondI64.Line)
	}
}

func assertDiagCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want diagnostic %s", code)
	}
	d, ok := diag.AsDiagnostic(err)
	if !ok {
		t.Fatalf("error %v is not a diagnostic", err)
	}
	if d.Code != code {
		t.Errorf("diagnostic code = %q, want %q", d.Code, code)
	}
}
