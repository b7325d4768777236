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

package parser

import (
	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/lexer"
)

// parseAsm handles both inline-asm forms:
//
//	asm { ... }               balanced body rebuilt from its tokens as template text
//	asm(template, cstr, ...)  string template + constraint strings, each
//	                          optionally paired with an operand expression
func (p *Parser) parseAsm() (*ast.Node, error) {
	start := p.advance() // "asm"
	if p.isPunct("{") {
		return p.parseAsmBlock(start)
	}
	if p.isPunct("(") {
		return p.parseAsmCall(start)
	}
	return nil, p.errf("HC2161", "expected '{' or '(' after asm, got %q", p.cur().Text)
}

// parseAsmBlock takes the brace-balanced body as the template. The body
// has already been lexed as HolyC tokens, and the template is those
// tokens' texts joined with single spaces (see spanText): the original
// spacing and line breaks are not kept, and string literals appear in
// decoded form without their quotes.
func (p *Parser) parseAsmBlock(start lexer.Token) (*ast.Node, error) {
	p.advance() // '{'
	bodyStart := p.pos
	depth := 1
	for depth > 0 {
		if p.isEOF() {
			return nil, p.errf("HC2162", "unterminated asm block")
		}
		if p.isPunct("{") {
			depth++
		} else if p.isPunct("}") {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}
	text := p.spanText(bodyStart, p.pos)
	p.advance() // '}'
	n := ast.New(ast.AsmStmt, text, start.Line, start.Column)
	n.Add(ast.New(ast.DeclSpec, "block", start.Line, start.Column))
	return n, nil
}

// parseAsmCall parses the functional form: a string-literal template
// followed by zero or more constraint strings, each optionally followed by
// a parenthesized operand expression: "r"(x), "=r"(y), or a bare "cc".
func (p *Parser) parseAsmCall(start lexer.Token) (*ast.Node, error) {
	p.advance() // '('
	n := ast.New(ast.AsmStmt, "", start.Line, start.Column)
	n.Add(ast.New(ast.DeclSpec, "call", start.Line, start.Column))

	if p.cur().Kind != lexer.String {
		return nil, p.errf("HC2163", "expected string template as first asm() argument")
	}
	tmpl, err := p.parseStringLiteralConcat()
	if err != nil {
		return nil, err
	}
	n.Add(tmpl)

	for p.isPunct(",") {
		p.advance()
		if p.cur().Kind != lexer.String {
			return nil, p.errf("HC2164", "expected constraint string in asm() argument list")
		}
		constraint := p.advance()
		arg := ast.New(ast.AsmArg, constraint.Text, constraint.Line, constraint.Column)
		if p.isPunct("(") {
			p.advance()
			operand, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			arg.Add(operand)
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
		n.Add(arg)
	}

	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return n, nil
}
