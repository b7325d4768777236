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

// parseExpr is the comma-expression entry point (lowest precedence).
func (p *Parser) parseExpr() (*ast.Node, error) {
	first, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(",") {
		return first, nil
	}
	n := ast.New(ast.CommaExpr, "", first.Line, first.Column)
	n.Add(first)
	for p.isPunct(",") {
		p.advance()
		e, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		n.Add(e)
	}
	return n, nil
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// parseAssignExpr parses right-associative assignment.
func (p *Parser) parseAssignExpr() (*ast.Node, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if assignOps[p.cur().Text] && p.cur().Kind == lexer.Punct {
		op := p.advance()
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.AssignExpr, op.Text, lhs.Line, lhs.Column)
		n.Add(lhs, rhs)
		return n, nil
	}
	return lhs, nil
}

func (p *Parser) parseLogicalOr() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"||"}, p.parseLogicalAnd)
}
func (p *Parser) parseLogicalAnd() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"&&"}, p.parseBitOr)
}
func (p *Parser) parseBitOr() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"|"}, p.parseBitXor)
}
func (p *Parser) parseBitXor() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"^"}, p.parseBitAnd)
}
func (p *Parser) parseBitAnd() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"&"}, p.parseEquality)
}
func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"==", "!="}, p.parseRelational)
}

// parseRelational builds a left-associative chain of relational operators;
// sema detects an immediately-nested relational on the LHS (the
// "Bool(chained)" rule) by inspecting the already-typed left child, not
// here.
func (p *Parser) parseRelational() (*ast.Node, error) {
	lhs, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for isRelOp(p.cur().Text) && p.cur().Kind == lexer.Punct {
		op := p.advance()
		rhs, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.BinaryExpr, op.Text, lhs.Line, lhs.Column)
		n.Add(lhs, rhs)
		lhs = n
	}
	return lhs, nil
}

func isRelOp(s string) bool {
	switch s {
	case "<", ">", "<=", ">=":
		return true
	}
	return false
}

func (p *Parser) parseShift() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"<<", ">>"}, p.parseAdditive)
}
func (p *Parser) parseAdditive() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"+", "-"}, p.parseMultiplicative)
}
func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	return p.parseBinaryLevel([]string{"*", "/", "%"}, p.parseUnary)
}

func (p *Parser) parseBinaryLevel(ops []string, next func() (*ast.Node, error)) (*ast.Node, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == lexer.Punct && containsOp(ops, p.cur().Text) {
		op := p.advance()
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.BinaryExpr, op.Text, lhs.Line, lhs.Column)
		n.Add(lhs, rhs)
		lhs = n
	}
	return lhs, nil
}

func containsOp(ops []string, s string) bool {
	for _, o := range ops {
		if o == s {
			return true
		}
	}
	return false
}

var unaryPrefixOps = map[string]bool{
	"+": true, "-": true, "!": true, "~": true, "&": true, "*": true,
	"++": true, "--": true,
}

// parseUnary handles prefix unary operators and the cast-expr form
// "(Type) unary", accepted only when the parenthesized tokens look like a
// type.
func (p *Parser) parseUnary() (*ast.Node, error) {
	t := p.cur()
	if t.Kind == lexer.Punct && unaryPrefixOps[t.Text] {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.UnaryExpr, t.Text, t.Line, t.Column)
		n.Add(operand)
		return n, nil
	}
	if t.Kind == lexer.Punct && t.Text == "(" && p.looksLikeCastAhead() {
		p.advance()
		typeText, err := p.parseCastTypeText()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.CastExpr, typeText, t.Line, t.Column)
		n.Add(operand)
		return n, nil
	}
	return p.parsePostfix()
}

// looksLikeCastAhead scans "( <type tokens> )" and requires that, if any
// pointer markers appear, at least one core type token also appears, and
// that whatever follows ')' can start a unary expression.
func (p *Parser) looksLikeCastAhead() bool {
	save := p.pos
	defer func() { p.pos = save }()

	p.advance() // '('
	sawCoreType := false
	sawAny := false
	for !p.isPunct(")") {
		if p.isEOF() {
			return false
		}
		if typeKeywords[p.cur().Text] || p.cur().Kind == lexer.Ident {
			sawCoreType = true
		}
		if !(p.cur().Kind == lexer.Ident || typeKeywords[p.cur().Text] || p.isPunct("*") || p.isPunct("&")) {
			return false
		}
		sawAny = true
		p.advance()
	}
	if !sawAny || !sawCoreType {
		return false
	}
	p.advance() // ')'
	return p.startsUnaryContext()
}

func (p *Parser) startsUnaryContext() bool {
	t := p.cur()
	if t.Kind == lexer.Ident || t.Kind == lexer.Number || t.Kind == lexer.String || t.Kind == lexer.Char {
		return true
	}
	if t.Kind == lexer.Punct {
		switch t.Text {
		case "(", "+", "-", "!", "~", "&", "*", "++", "--":
			return true
		}
	}
	return false
}

func (p *Parser) parseCastTypeText() (string, error) {
	text := ""
	for !p.isPunct(")") {
		text += p.advance().Text
	}
	return text, nil
}

// parsePostfix handles function calls, member access (. / ->), index
// expressions, lane access, and postfix ++/--.
func (p *Parser) parsePostfix() (*ast.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("("):
			n, err = p.parseCallTail(n)
		case p.isPunct(".") || p.isPunct("->"):
			n, err = p.parseMemberOrLaneTail(n)
		case p.isPunct("["):
			n, err = p.parseIndexTail(n)
		case p.isPunct("++") || p.isPunct("--"):
			op := p.advance()
			m := ast.New(ast.PostfixExpr, op.Text, n.Line, n.Column)
			m.Add(n)
			n = m
		default:
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseCallTail(callee *ast.Node) (*ast.Node, error) {
	p.advance() // '('
	args := ast.New(ast.CallArgs, "", callee.Line, callee.Column)
	if !p.isPunct(")") {
		for {
			if p.isPunct(",") || p.isPunct(")") {
				args.Add(ast.New(ast.EmptyArg, "", p.cur().Line, p.cur().Column))
			} else {
				a, err := p.parseAssignExpr()
				if err != nil {
					return nil, err
				}
				args.Add(a)
			}
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	n := ast.New(ast.CallExpr, "", callee.Line, callee.Column)
	n.Add(callee, args)
	return n, nil
}

// parseMemberOrLaneTail handles base.member, base->member, and the lane
// forms base.<sel>[idx] / base-><sel>[idx].
func (p *Parser) parseMemberOrLaneTail(base *ast.Node) (*ast.Node, error) {
	sepTok := p.advance() // '.' or '->'
	nameTok := p.cur()
	if nameTok.Kind != lexer.Ident {
		return nil, p.errf("HC2151", "expected member name after %q", sepTok.Text)
	}
	if _, ok := lexer.LaneSelectors[toLowerASCII(nameTok.Text)]; ok && p.at(1).Kind == lexer.Punct && p.at(1).Text == "[" {
		p.advance() // selector ident
		p.advance() // '['
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		n := ast.New(ast.LaneExpr, toLowerASCII(nameTok.Text), base.Line, base.Column)
		n.Add(base, idx)
		return n, nil
	}
	p.advance() // member name
	n := ast.New(ast.MemberExpr, nameTok.Text, base.Line, base.Column)
	n.Add(base)
	return n, nil
}

func (p *Parser) parseIndexTail(base *ast.Node) (*ast.Node, error) {
	p.advance() // '['
	idx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	n := ast.New(ast.IndexExpr, "", base.Line, base.Column)
	n.Add(base, idx)
	return n, nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	t := p.cur()
	switch {
	case t.Kind == lexer.Ident || t.Kind == lexer.Keyword:
		p.advance()
		return ast.New(ast.Identifier, t.Text, t.Line, t.Column), nil
	case t.Kind == lexer.Number:
		p.advance()
		return ast.New(ast.Literal, t.Text, t.Line, t.Column), nil
	case t.Kind == lexer.Char:
		p.advance()
		n := ast.New(ast.Literal, t.Text, t.Line, t.Column)
		n.Add(ast.New(ast.DeclSpec, "char", t.Line, t.Column))
		return n, nil
	case t.Kind == lexer.String:
		return p.parseStringLiteralConcat()
	case t.Kind == lexer.Punct && t.Text == "$":
		p.advance()
		inner, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.DollarExpr, "", t.Line, t.Column)
		n.Add(inner)
		return n, nil
	case t.Kind == lexer.Punct && t.Text == "(":
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case t.Kind == lexer.Punct && t.Text == "?":
		return nil, p.errf("HC2152", "'?:' ternary is not part of HolyC's grammar")
	default:
		return nil, p.errf("HC2150", "unexpected token %q in expression", t.Text)
	}
}

// parseStringLiteralConcat merges adjacent string-literal tokens into one
// Literal node, adjacent-concatenation rule.
func (p *Parser) parseStringLiteralConcat() (*ast.Node, error) {
	t := p.advance()
	text := t.Text
	for p.cur().Kind == lexer.String {
		text += p.advance().Text
	}
	n := ast.New(ast.Literal, text, t.Line, t.Column)
	n.Text = "\"" + n.Text + "\""
	return n, nil
}
