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

// parseDeclOrFunction handles the function-vs-statement lookahead
//: if the declarator is followed by '{' or ';' after a
// parameter list, it's a FunctionDecl; otherwise it's a variable
// declaration (possibly a VarDeclList) or a LinkageDecl.
func (p *Parser) parseDeclOrFunction(topLevel bool) (*ast.Node, error) {
	if p.looksLikeFunction() {
		return p.parseFunctionDecl()
	}
	return p.parseVarDeclOrLinkage(topLevel)
}

func (p *Parser) parseFunctionDecl() (*ast.Node, error) {
	startTok := p.cur()
	mods := p.collectModifiers()
	retType, err := p.parseDeclaredTypeText()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") {
		retType += "*"
		p.advance()
	}
	nameTok := p.advance() // identifier
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	fn := ast.New(ast.FunctionDecl, nameTok.Text, startTok.Line, startTok.Column)
	declType := ast.New(ast.DeclType, retType, startTok.Line, startTok.Column)
	fn.Add(declType, params)
	for _, m := range mods {
		fn.Add(ast.New(ast.DeclSpec, m, startTok.Line, startTok.Column))
	}

	if p.isPunct(";") {
		p.advance()
		return fn, nil
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Add(body)
	return fn, nil
}

func (p *Parser) collectModifiers() []string {
	var mods []string
	for {
		switch p.cur().Text {
		case "public", "extern", "import", "reg", "noreg", "interrupt",
			"no_warn", "_extern", "_import", "_export":
			mods = append(mods, p.advance().Text)
		default:
			return mods
		}
	}
}

// parseDeclaredTypeText consumes a core type token (keyword or identifier
// naming an aggregate) and returns its text.
func (p *Parser) parseDeclaredTypeText() (string, error) {
	if typeKeywords[p.cur().Text] || p.cur().Kind == lexer.Ident {
		return p.advance().Text, nil
	}
	return "", p.errf("HC2111", "expected a type in declaration, got %q", p.cur().Text)
}

// parseParamList collects comma-delimited parameters up to (but not
// consuming) ')'; '=' begins a default expression re-parsed as its own
// subtree.
func (p *Parser) parseParamList() (*ast.Node, error) {
	list := ast.New(ast.ParamList, "", p.cur().Line, p.cur().Column)
	if p.isPunct(")") {
		return list, nil
	}
	for {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		list.Add(param)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return list, nil
}

func (p *Parser) parseParam() (*ast.Node, error) {
	startTok := p.cur()
	typeText, err := p.parseDeclaredTypeText()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("&") {
		typeText += p.advance().Text
	}
	name := ""
	if p.cur().Kind == lexer.Ident {
		name = p.advance().Text
	}
	param := ast.New(ast.Param, name, startTok.Line, startTok.Column)
	param.Add(ast.New(ast.DeclType, typeText, startTok.Line, startTok.Column))
	if p.isPunct("=") {
		p.advance()
		defExpr, err := p.parseDefaultExprUntil()
		if err != nil {
			return nil, err
		}
		def := ast.New(ast.Default, "", startTok.Line, startTok.Column)
		def.Add(defExpr)
		param.Add(def)
	}
	return param, nil
}

// parseDefaultExprUntil parses one assignment-precedence expression, the
// default value, stopping before ',' or ')'.
func (p *Parser) parseDefaultExprUntil() (*ast.Node, error) {
	return p.parseAssignExpr()
}

// parseVarDeclOrLinkage handles the multi-declarator contract: subsequent
// declarators inherit the leading type tokens, and a
// top-level comma before ';' produces a VarDeclList.
func (p *Parser) parseVarDeclOrLinkage(topLevel bool) (*ast.Node, error) {
	startTok := p.cur()
	mods := p.collectModifiers()
	isLinkage := len(mods) > 0 && topLevel && containsStr(mods, "extern")

	typeText, err := p.parseDeclaredTypeText()
	if err != nil {
		return nil, err
	}

	first, err := p.parseDeclarator(typeText)
	if err != nil {
		return nil, err
	}

	if !p.isPunct(",") {
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		if isLinkage {
			ld := ast.New(ast.LinkageDecl, first.Text, startTok.Line, startTok.Column)
			ld.Add(first.Children...)
			return ld, nil
		}
		return first, nil
	}

	list := ast.New(ast.VarDeclList, "", startTok.Line, startTok.Column)
	list.Add(first)
	for p.isPunct(",") {
		p.advance()
		d, err := p.parseDeclarator(typeText)
		if err != nil {
			return nil, err
		}
		list.Add(d)
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return list, nil
}

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// parseDeclarator parses one `*name [= init] [array-suffix]` declarator
// sharing baseType with its siblings in a VarDeclList.
func (p *Parser) parseDeclarator(baseType string) (*ast.Node, error) {
	startTok := p.cur()
	typeText := baseType
	for p.isPunct("*") {
		typeText += "*"
		p.advance()
	}
	nameTok := p.cur()
	if nameTok.Kind != lexer.Ident {
		return nil, p.errf("HC2112", "expected declarator name, got %q", nameTok.Text)
	}
	p.advance()

	decl := ast.New(ast.VarDecl, nameTok.Text, startTok.Line, startTok.Column)
	decl.Add(ast.New(ast.DeclType, typeText, startTok.Line, startTok.Column))

	for p.isPunct("[") {
		p.advance()
		if !p.isPunct("]") {
			dim, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			decl.Add(ast.New(ast.DeclSpec, "dim", startTok.Line, startTok.Column).Add(dim))
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}

	if p.isPunct("=") {
		p.advance()
		init, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		decl.Add(init)
	}
	return decl, nil
}
