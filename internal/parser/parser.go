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

// Package parser implements the HolyC recursive-descent parser, producing
// an ast.Node tree (ParsedNode). It is grounded on the
// teacher's rule_parser.go/expr.go hand-rolled precedence climbing,
// generalized from Makefile `$(...)` expressions to HolyC's full
// expression and statement grammar, and on parser.go's incremental-token
// bookkeeping (lineno tracking, balanced-delimiter scanning).
package parser

import (
	"fmt"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/diag"
	"github.com/holyc-tools/holycc/internal/lexer"
)

var anonAggregateCounter int

// Parser holds the fully materialized token stream for one source unit and
// a cursor into it.
type Parser struct {
	file   string
	toks   []lexer.Token
	pos    int
	anonID int
}

// Parse lexes and parses src into a Program node.
func Parse(file string, src []byte) (*ast.Node, error) {
	lx := lexer.New(file, src)
	var toks []lexer.Token
	for {
		t, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == lexer.EOF {
			break
		}
	}
	p := &Parser{file: file, toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) at(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) isPunct(s string) bool {
	return p.cur().Kind == lexer.Punct && p.cur().Text == s
}

func (p *Parser) isKeyword(s string) bool {
	return p.cur().Kind == lexer.Keyword && p.cur().Text == s
}

func (p *Parser) expectPunct(s string) (lexer.Token, error) {
	if !p.isPunct(s) {
		return lexer.Token{}, p.errf("HC2101", "expected %q, got %q", s, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) errf(code, format string, a ...interface{}) error {
	t := p.cur()
	return diag.New(code, p.file, t.Line, t.Column, format, a...)
}

func (p *Parser) nextAnonAggregate() string {
	p.anonID++
	return fmt.Sprintf("__holyc_anon_aggregate_%d", p.anonID)
}

// typeKeywords is the fixed set of HolyC core type tokens recognized when
// scanning a declarator's leading type.
var typeKeywords = map[string]bool{
	"U0": true, "I8": true, "I16": true, "I32": true, "I64": true,
	"U8": true, "U16": true, "U32": true, "U64": true, "F64": true, "Bool": true,
}

func (p *Parser) parseProgram() (*ast.Node, error) {
	prog := ast.New(ast.Program, "", 1, 1)
	for !p.isEOF() {
		stmt, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			prog.Add(stmt)
		}
	}
	return prog, nil
}

// parseTopLevel dispatches a top-level item: function, global declaration,
// class/union, typedef, linkage declaration, or start/end label.
func (p *Parser) parseTopLevel() (*ast.Node, error) {
	switch {
	case p.isKeyword("class") || p.isKeyword("union"):
		return p.parseClassOrUnion()
	case p.isPunct(";"):
		p.advance()
		return nil, nil
	case p.isIdent("typedef"):
		return p.parseTypeAlias()
	case p.isIdent("start") || p.isIdent("end"):
		return p.parseStartEndLabel()
	default:
		return p.parseDeclOrFunction(true)
	}
}

func (p *Parser) isIdent(s string) bool {
	return (p.cur().Kind == lexer.Ident || p.cur().Kind == lexer.Keyword) && p.cur().Text == s
}

func (p *Parser) parseStartEndLabel() (*ast.Node, error) {
	t := p.advance()
	kind := ast.StartLabel
	if t.Text == "end" {
		kind = ast.EndLabel
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	return ast.New(kind, t.Text, t.Line, t.Column), nil
}

func (p *Parser) parseTypeAlias() (*ast.Node, error) {
	t := p.advance() // "typedef"
	start := p.pos
	for !p.isPunct(";") && !p.isEOF() {
		p.advance()
	}
	text := p.spanText(start, p.pos)
	if p.isPunct(";") {
		p.advance()
	}
	return ast.New(ast.TypeAliasDecl, text, t.Line, t.Column), nil
}

// spanText rebuilds text from tokens [from, to) by joining their Text with
// single spaces; used for typedef bodies and inline-asm templates. The
// original source spacing is not preserved.
func (p *Parser) spanText(from, to int) string {
	s := ""
	for i := from; i < to && i < len(p.toks); i++ {
		if i > from {
			s += " "
		}
		s += p.toks[i].Text
	}
	return s
}

// looksLikeFunction scans ahead through a type/declarator and reports
// whether the next significant token after the declarator is '{' or ';'
// preceded by a parameter list, i.e. this is a FunctionDecl.
func (p *Parser) looksLikeFunction() bool {
	save := p.pos
	defer func() { p.pos = save }()

	p.skipModifiers()
	if !p.skipDeclaredType() {
		return false
	}
	for p.isPunct("*") {
		p.advance()
	}
	if p.cur().Kind != lexer.Ident {
		return false
	}
	p.advance()
	if !p.isPunct("(") {
		return false
	}
	if !p.skipBalanced("(", ")") {
		return false
	}
	return p.isPunct("{") || p.isPunct(";")
}

func (p *Parser) skipModifiers() {
	for {
		switch p.cur().Text {
		case "public", "extern", "import", "reg", "noreg", "interrupt",
			"no_warn", "_extern", "_import", "_export":
			p.advance()
		default:
			return
		}
	}
}

func (p *Parser) skipDeclaredType() bool {
	if typeKeywords[p.cur().Text] {
		p.advance()
		return true
	}
	if p.cur().Kind == lexer.Ident {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) skipBalanced(open, close string) bool {
	if !p.isPunct(open) {
		return false
	}
	depth := 0
	for !p.isEOF() {
		if p.isPunct(open) {
			depth++
		} else if p.isPunct(close) {
			depth--
			if depth == 0 {
				p.advance()
				return true
			}
		}
		p.advance()
	}
	return false
}
