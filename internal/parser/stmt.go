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

func (p *Parser) parseBlock() (*ast.Node, error) {
	startTok := p.cur()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	block := ast.New(ast.Block, "", startTok.Line, startTok.Column)
	for !p.isPunct("}") {
		if p.isEOF() {
			return nil, p.errf("HC2131", "unterminated block")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			block.Add(s)
		}
	}
	p.advance() // '}'
	return block, nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	switch {
	case p.isPunct("{"):
		return p.parseBlock()
	case p.isPunct(";"):
		t := p.advance()
		return ast.New(ast.EmptyStmt, "", t.Line, t.Column), nil
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("do"):
		return p.parseDoWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("switch"):
		return p.parseSwitch()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("break"):
		t := p.advance()
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return ast.New(ast.BreakStmt, "", t.Line, t.Column), nil
	case p.isIdent("continue"):
		return nil, p.errf("HC2141", "'continue' is not part of HolyC; use goto")
	case p.isKeyword("goto"):
		return p.parseGoto()
	case p.isKeyword("try"):
		return p.parseTry()
	case p.isKeyword("throw"):
		return p.parseThrow()
	case p.isKeyword("lock"):
		return p.parseLock()
	case p.isKeyword("asm"):
		return p.parseAsm()
	case p.isKeyword("class") || p.isKeyword("union"):
		return p.parseClassOrUnion()
	case p.isIdent("start") || p.isIdent("end"):
		return p.parseStartEndLabel()
	case p.cur().Kind == lexer.Ident && p.at(1).Kind == lexer.Punct && p.at(1).Text == ":" &&
		!lexerSelectorTag(p.cur().Text):
		return p.parseLabel()
	case p.cur().Kind == lexer.String:
		return p.parsePrintOrExprStmt()
	default:
		return p.parseExprOrDeclStmt()
	}
}

func lexerSelectorTag(s string) bool {
	_, ok := lexer.LaneSelectors[toLowerASCII(s)]
	return ok
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

func (p *Parser) parseLabel() (*ast.Node, error) {
	t := p.advance()
	p.advance() // ':'
	return ast.New(ast.LabelStmt, t.Text, t.Line, t.Column), nil
}

func (p *Parser) parseGoto() (*ast.Node, error) {
	t := p.advance()
	nameTok := p.advance()
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New(ast.GotoStmt, nameTok.Text, t.Line, t.Column), nil
}

func (p *Parser) parseIf() (*ast.Node, error) {
	t := p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.IfStmt, "", t.Line, t.Column)
	n.Add(cond, then)
	if p.isKeyword("else") {
		p.advance()
		els, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		n.Add(els)
	}
	return n, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	t := p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.WhileStmt, "", t.Line, t.Column)
	n.Add(cond, body)
	return n, nil
}

func (p *Parser) parseDoWhile() (*ast.Node, error) {
	t := p.advance()
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("while") {
		return nil, p.errf("HC2132", "expected 'while' after do-block")
	}
	p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	n := ast.New(ast.DoWhileStmt, "", t.Line, t.Column)
	n.Add(body, cond)
	return n, nil
}

func (p *Parser) parseFor() (*ast.Node, error) {
	t := p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var init, cond, inc *ast.Node
	var err error
	if !p.isPunct(";") {
		init, err = p.parseExprOrDeclNoSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if !p.isPunct(";") {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if !p.isPunct(")") {
		inc, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.ForStmt, "", t.Line, t.Column)
	n.Add(orEmpty(init, t), orEmpty(cond, t), orEmpty(inc, t), body)
	return n, nil
}

func orEmpty(n *ast.Node, t lexer.Token) *ast.Node {
	if n != nil {
		return n
	}
	return ast.New(ast.EmptyStmt, "", t.Line, t.Column)
}

// parseExprOrDeclNoSemi parses a for-init clause: either a declaration or
// an expression statement, without consuming the trailing ';' (the caller
// does).
func (p *Parser) parseExprOrDeclNoSemi() (*ast.Node, error) {
	if p.startsDeclaration() {
		mods := p.collectModifiers()
		_ = mods
		typeText, err := p.parseDeclaredTypeText()
		if err != nil {
			return nil, err
		}
		first, err := p.parseDeclarator(typeText)
		if err != nil {
			return nil, err
		}
		if !p.isPunct(",") {
			return first, nil
		}
		list := ast.New(ast.VarDeclList, "", first.Line, first.Column)
		list.Add(first)
		for p.isPunct(",") {
			p.advance()
			d, err := p.parseDeclarator(typeText)
			if err != nil {
				return nil, err
			}
			list.Add(d)
		}
		return list, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.ExprStmt, "", e.Line, e.Column).Add(e), nil
}

func (p *Parser) startsDeclaration() bool {
	return typeKeywords[p.cur().Text]
}

func (p *Parser) parseSwitch() (*ast.Node, error) {
	t := p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	n := ast.New(ast.SwitchStmt, "", t.Line, t.Column)
	n.Add(cond)
	for !p.isPunct("}") {
		if p.isEOF() {
			return nil, p.errf("HC2133", "unterminated switch body")
		}
		switch {
		case p.isKeyword("case"):
			c, err := p.parseCase()
			if err != nil {
				return nil, err
			}
			n.Add(c)
		case p.isKeyword("default"):
			ct := p.advance()
			if _, err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			n.Add(ast.New(ast.DefaultClause, "", ct.Line, ct.Column))
		default:
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			n.Add(s)
		}
	}
	p.advance() // '}'
	return n, nil
}

// parseCase accepts "case E:", "case E ... F:", and "case :" (null-case).
func (p *Parser) parseCase() (*ast.Node, error) {
	t := p.advance() // "case"
	n := ast.New(ast.CaseClause, "", t.Line, t.Column)
	if p.isPunct(":") {
		p.advance()
		return n, nil
	}
	lo, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	n.Add(lo)
	isRange := p.isPunct("...")
	if isRange {
		p.advance()
	} else if p.isPunct(".") && p.at(1).Text == "." && p.at(2).Text == "." {
		isRange = true
		p.advance()
		p.advance()
		p.advance()
	}
	if isRange {
		hi, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		n.Add(hi)
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	t := p.advance()
	n := ast.New(ast.ReturnStmt, "", t.Line, t.Column)
	if !p.isPunct(";") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.Add(e)
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseTry() (*ast.Node, error) {
	t := p.advance()
	tryBody, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("catch") {
		return nil, p.errf("HC2134", "expected 'catch' after try-block")
	}
	p.advance()
	catchBody, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.TryStmt, "", t.Line, t.Column)
	n.Add(tryBody, catchBody)
	return n, nil
}

func (p *Parser) parseThrow() (*ast.Node, error) {
	t := p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	n := ast.New(ast.ThrowStmt, "", t.Line, t.Column)
	n.Add(e)
	return n, nil
}

func (p *Parser) parseLock() (*ast.Node, error) {
	t := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.LockStmt, "", t.Line, t.Column)
	n.Add(body)
	return n, nil
}

// parseExprOrDeclStmt is the statement-level decl/expr dispatch (mirrors
// parseTopLevel's contract but never yields a FunctionDecl).
func (p *Parser) parseExprOrDeclStmt() (*ast.Node, error) {
	if p.startsDeclaration() || isModifierTok(p.cur().Text) {
		n, err := p.parseVarDeclOrLinkage(false)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return p.parsePrintOrExprStmt()
}

func isModifierTok(s string) bool {
	switch s {
	case "public", "extern", "import", "reg", "noreg", "interrupt",
		"no_warn", "_extern", "_import", "_export":
		return true
	}
	return false
}

// parsePrintOrExprStmt handles a leading string literal (PrintStmt), a
// bare char literal (PrintCharStmt), or a plain expression/no-paren-call
// statement.
func (p *Parser) parsePrintOrExprStmt() (*ast.Node, error) {
	startTok := p.cur()
	if startTok.Kind == lexer.Char && p.at(1).Kind == lexer.Punct && p.at(1).Text == ";" {
		n := ast.New(ast.PrintCharStmt, "", startTok.Line, startTok.Column)
		lit := p.advance()
		charLit := ast.New(ast.Literal, lit.Text, startTok.Line, startTok.Column)
		charLit.Add(ast.New(ast.DeclSpec, "char", startTok.Line, startTok.Column))
		n.Add(charLit)
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return n, nil
	}
	if p.cur().Kind == lexer.String {
		n := ast.New(ast.PrintStmt, "", startTok.Line, startTok.Column)
		lit := p.advance()
		n.Add(ast.New(ast.Literal, lit.Text, startTok.Line, startTok.Column))
		for p.isPunct(",") {
			p.advance()
			if p.isPunct(",") || p.isPunct(";") {
				n.Add(ast.New(ast.EmptyArg, "", p.cur().Line, p.cur().Column))
				continue
			}
			e, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			n.Add(e)
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return n, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if e.Kind == ast.CallExpr {
		n := ast.New(ast.NoParenCallStmt, "", startTok.Line, startTok.Column)
		n.Add(e)
		return n, nil
	}
	n := ast.New(ast.ExprStmt, "", startTok.Line, startTok.Column)
	n.Add(e)
	return n, nil
}
