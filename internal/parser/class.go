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

// parseClassOrUnion parses `class|union Name { fields... } [declarators];`.
// An anonymous aggregate synthesizes a fresh name; trailing
// declarators after the closing brace attach as VarDecl children using the
// aggregate name as base type.
func (p *Parser) parseClassOrUnion() (*ast.Node, error) {
	kindTok := p.advance() // "class" or "union"
	name := ""
	if p.cur().Kind == lexer.Ident {
		name = p.advance().Text
	} else {
		name = p.nextAnonAggregate()
	}
	decl := ast.New(ast.ClassDecl, name, kindTok.Line, kindTok.Column)
	decl.Add(ast.New(ast.DeclSpec, kindTok.Text, kindTok.Line, kindTok.Column))

	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.isPunct("}") {
		if p.isEOF() {
			return nil, p.errf("HC2121", "unterminated class/union body")
		}
		field, err := p.parseFieldDecl()
		if err != nil {
			return nil, err
		}
		decl.Add(field)
	}
	p.advance() // '}'

	for !p.isPunct(";") && p.cur().Kind == lexer.Ident {
		d, err := p.parseDeclarator(name)
		if err != nil {
			return nil, err
		}
		decl.Add(d)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(";") {
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseFieldDecl() (*ast.Node, error) {
	startTok := p.cur()
	typeText, err := p.parseDeclaredTypeText()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") {
		typeText += "*"
		p.advance()
	}
	nameTok := p.cur()
	if nameTok.Kind != lexer.Ident {
		return nil, p.errf("HC2122", "expected field name, got %q", nameTok.Text)
	}
	p.advance()

	field := ast.New(ast.FieldDecl, nameTok.Text, startTok.Line, startTok.Column)
	field.Add(ast.New(ast.DeclType, typeText, startTok.Line, startTok.Column))

	for p.isPunct("[") {
		p.advance()
		if !p.isPunct("]") {
			dim, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			field.Add(ast.New(ast.DeclSpec, "dim", startTok.Line, startTok.Column).Add(dim))
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}

	if p.isPunct(":") {
		p.advance()
		meta := ast.New(ast.FieldMetaTokens, "", startTok.Line, startTok.Column)
		for !p.isPunct(";") && !p.isEOF() {
			meta.Add(ast.New(ast.Literal, p.advance().Text, startTok.Line, startTok.Column))
		}
		field.Add(meta)
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return field, nil
}
