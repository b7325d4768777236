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

package preprocess

import (
	"strings"

	"github.com/holyc-tools/holycc/internal/diag"
	"github.com/holyc-tools/holycc/internal/strutil"
)

// doExe handles one #exe { ... } directive, whose body is a mini-language
// of if/else, Stream*Print(literal) calls, and no-op Option/Cd calls.
// It returns the index of the line following the closing '}' of the
// balanced block.
func (p *Preprocessor) doExe(file string, lineno int, lines []string, i int) (int, error) {
	joined, end, err := collectBalancedBlock(lines, i)
	if err != nil {
		return i, diag.New("HC1018", file, lineno, 0, "#exe body must be one balanced {...} block")
	}
	if !p.active() {
		return end, nil
	}
	body := strings.TrimSpace(joined)
	body = strings.TrimPrefix(body, "#exe")
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return i, diag.New("HC1018", file, lineno, 0, "#exe body must be one balanced {...} block")
	}
	inner := body[1 : len(body)-1]
	if err := p.runExe(file, lineno, inner); err != nil {
		return i, err
	}
	return end, nil
}

// collectBalancedBlock joins physical lines starting at i until braces
// opened on those lines balance out, returning the joined text and the
// index of the next unconsumed line.
func collectBalancedBlock(lines []string, i int) (string, int, error) {
	depth := 0
	seenOpen := false
	var b strings.Builder
	j := i
	for j < len(lines) {
		line := lines[j]
		b.WriteString(line)
		b.WriteByte('\n')
		for _, c := range line {
			switch c {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
			}
		}
		if seenOpen && depth == 0 {
			return b.String(), j + 1, nil
		}
		j++
	}
	return "", 0, errUnbalanced
}

var errUnbalanced = unbalancedErr{}

type unbalancedErr struct{}

func (unbalancedErr) Error() string { return "unbalanced #exe block" }

// runExe executes the #exe mini-language body: a sequence of statements
// separated by ';', supporting "if (cond) { ... } else { ... }" and the
// fixed call vocabulary.
func (p *Preprocessor) runExe(file string, lineno int, body string) error {
	stmts, err := splitExeStatements(body)
	if err != nil {
		return diag.New("HC1018", file, lineno, 0, "%v", err)
	}
	for _, s := range stmts {
		if err := p.runExeStmt(file, lineno, s); err != nil {
			return err
		}
	}
	return nil
}

type exeStmt struct {
	text string // "if (cond) { then } else { else }" or a bare call
}

// splitExeStatements splits on top-level ';' while keeping brace/paren
// bodies of if/else intact (those don't end in ';').
func splitExeStatements(body string) ([]exeStmt, error) {
	var stmts []exeStmt
	for _, seg := range strutil.SplitTopLevel(body, ';') {
		if seg != "" {
			stmts = append(stmts, exeStmt{text: seg})
		}
	}
	return stmts, nil
}

func (p *Preprocessor) runExeStmt(file string, lineno int, s exeStmt) error {
	text := s.text
	if strings.HasPrefix(text, "if") && strings.HasPrefix(strings.TrimSpace(text[2:]), "(") {
		return p.runExeIf(file, lineno, text)
	}
	return p.runExeCall(file, lineno, text)
}

func (p *Preprocessor) runExeIf(file string, lineno int, text string) error {
	rest := strings.TrimSpace(text[2:])
	if !strings.HasPrefix(rest, "(") {
		return diag.New("HC1018", file, lineno, 0, "malformed #exe if")
	}
	close := matchParen(rest, 0)
	if close < 0 {
		return diag.New("HC1018", file, lineno, 0, "unterminated #exe if condition")
	}
	cond := rest[1:close]
	v, err := p.evalIfExpr(file, lineno, cond)
	if err != nil {
		return err
	}
	rest = strings.TrimSpace(rest[close+1:])
	thenBody, rest, err := takeBraceBlock(rest)
	if err != nil {
		return diag.New("HC1018", file, lineno, 0, "malformed #exe if body")
	}
	var elseBody string
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "else") {
		rest = strings.TrimSpace(rest[len("else"):])
		elseBody, _, err = takeBraceBlock(rest)
		if err != nil {
			return diag.New("HC1018", file, lineno, 0, "malformed #exe else body")
		}
	}
	chosen := elseBody
	if v != 0 {
		chosen = thenBody
	}
	return p.runExe(file, lineno, chosen)
}

func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func takeBraceBlock(s string) (inner, rest string, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return "", s, errUnbalanced
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", errUnbalanced
}

// runExeCall handles a single call expression: StreamPrint/StreamDoc/
// StreamExePrint(literal) emit text; Option(...)/Cd(...) are no-ops; any
// other call is rejected with HC1019.
func (p *Preprocessor) runExeCall(file string, lineno int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	paren := strings.IndexByte(text, '(')
	if paren < 0 || !strings.HasSuffix(text, ")") {
		return diag.New("HC1019", file, lineno, 0, "unsupported #exe statement %q", text)
	}
	name := strings.TrimSpace(text[:paren])
	argsText := text[paren+1 : len(text)-1]
	switch name {
	case "StreamPrint", "StreamDoc", "StreamExePrint":
		expanded, err := p.expandMacros(file, lineno, argsText, nil)
		if err != nil {
			return err
		}
		literal, err := concatenateStringLiterals(expanded)
		if err != nil {
			return diag.New("HC1019", file, lineno, 0, "%s expects a string literal argument: %v", name, err)
		}
		p.out.WriteString(literal)
		return nil
	case "Option", "Cd":
		return nil
	default:
		return diag.New("HC1019", file, lineno, 0, "unsupported #exe call %q", name)
	}
}

// concatenateStringLiterals parses one or more adjacent double-quoted
// string literals (runExeCall applies macro expansion before calling it) and
// concatenates them, matching the directive's documented semantics.
func concatenateStringLiterals(s string) (string, error) {
	s = strings.TrimSpace(s)
	var out strings.Builder
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] != '"' {
			return "", errUnbalanced
		}
		j := scanStringLiteral(s, i)
		lit := s[i+1 : j-1]
		out.WriteString(unescapeExeLiteral(lit))
		i = j
	}
	return out.String(), nil
}

func unescapeExeLiteral(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			out.WriteByte(decodeEscapeByte(s[i]))
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}

func decodeEscapeByte(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}
