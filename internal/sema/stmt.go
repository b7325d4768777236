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

package sema

import (
	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/types"
)

// analyzeFunctionBody pushes a parameter scope, analyzes the body, and runs
// the goto-legality passes.
func (a *analyzer) analyzeFunctionBody(fn *ast.Node) error {
	if err := a.checkModifiers(fn); err != nil {
		return err
	}
	sig, ok := a.res.Functions[fn.Text]
	if !ok {
		return a.errf(fn, "HC3021", "internal: no signature collected for %q", fn.Text)
	}
	scope := a.res.Globals.Push()
	paramList := fn.Child(1)
	for i, p := range paramList.Children {
		if p.Text != "" {
			scope.Declare(&types.Symbol{Name: p.Text, Type: sig.Params[i], Kind: types.SymParam, Line: p.Line})
		}
		if len(p.Children) > 1 && p.Children[1].Kind == ast.Default {
			if _, err := a.typeOfExpr(scope, p.Children[1].Child(0)); err != nil {
				return err
			}
		}
	}

	a.gotoSites = nil
	a.labelDefs = nil
	a.initDecls = nil
	a.order = 0
	a.blockCounter = 0

	body := fn.Children[len(fn.Children)-1]
	if err := a.analyzeBlock(scope, body, nil); err != nil {
		return err
	}
	return a.checkGotoLegality(fn)
}

// analyzeBlock pushes a new scope and a new chain id, then analyzes every
// statement inside in order.
func (a *analyzer) analyzeBlock(scope *types.Scope, block *ast.Node, chain []int) error {
	inner := scope.Push()
	id := a.newBlockID()
	innerChain := append(append([]int{}, chain...), id)
	for _, stmt := range block.Children {
		if err := a.analyzeStmt(inner, stmt, innerChain); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) analyzeStmt(scope *types.Scope, n *ast.Node, chain []int) error {
	a.newOrder()
	switch n.Kind {
	case ast.Block:
		return a.analyzeBlock(scope, n, chain)
	case ast.EmptyStmt, ast.StartLabel, ast.EndLabel, ast.BreakStmt:
		return nil
	case ast.ClassDecl:
		return nil // layout already computed in the whole-program class pass
	case ast.IfStmt:
		if _, err := a.typeOfExpr(scope, n.Child(0)); err != nil {
			return err
		}
		if err := a.analyzeStmt(scope, n.Child(1), chain); err != nil {
			return err
		}
		if len(n.Children) > 2 {
			return a.analyzeStmt(scope, n.Child(2), chain)
		}
		return nil
	case ast.WhileStmt:
		if _, err := a.typeOfExpr(scope, n.Child(0)); err != nil {
			return err
		}
		return a.analyzeStmt(scope, n.Child(1), chain)
	case ast.DoWhileStmt:
		if err := a.analyzeStmt(scope, n.Child(0), chain); err != nil {
			return err
		}
		_, err := a.typeOfExpr(scope, n.Child(1))
		return err
	case ast.ForStmt:
		return a.analyzeFor(scope, n, chain)
	case ast.SwitchStmt:
		return a.analyzeSwitch(scope, n, chain)
	case ast.ReturnStmt:
		return a.analyzeReturn(scope, n)
	case ast.GotoStmt:
		a.gotoSites = append(a.gotoSites, gotoSite{name: n.Text, chain: chain, order: a.order, node: n})
		return nil
	case ast.LabelStmt:
		for _, l := range a.labelDefs {
			if l.name == n.Text {
				return a.errf(n, "HC3053", "duplicate label %q", n.Text)
			}
		}
		a.labelDefs = append(a.labelDefs, labelSite{name: n.Text, chain: chain, order: a.order})
		return nil
	case ast.TryStmt:
		if err := a.analyzeBlock(scope, n.Child(0), chain); err != nil {
			return err
		}
		return a.analyzeBlock(scope, n.Child(1), chain)
	case ast.ThrowStmt:
		t, err := a.typeOfExpr(scope, n.Child(0))
		if err != nil {
			return err
		}
		if !types.IsIntegralLike(t) && t != types.Unknown {
			return a.errf(n, "HC3061", "throw payload must be integral-like, got %q", t)
		}
		return nil
	case ast.LockStmt:
		return a.analyzeBlock(scope, n.Child(0), chain)
	case ast.AsmStmt:
		return a.analyzeAsm(scope, n)
	case ast.PrintStmt:
		return a.analyzePrint(scope, n)
	case ast.PrintCharStmt:
		_, err := a.typeOfExpr(scope, n.Child(0))
		return err
	case ast.VarDecl:
		return a.analyzeLocalVarDecl(scope, n, chain)
	case ast.VarDeclList:
		for _, d := range n.Children {
			if err := a.analyzeLocalVarDecl(scope, d, chain); err != nil {
				return err
			}
		}
		return nil
	case ast.ExprStmt, ast.NoParenCallStmt:
		_, err := a.typeOfExpr(scope, n.Child(0))
		return err
	}
	return nil
}

func (a *analyzer) analyzeFor(scope *types.Scope, n *ast.Node, chain []int) error {
	inner := scope.Push()
	init := n.Child(0)
	switch init.Kind {
	case ast.VarDecl:
		if err := a.analyzeLocalVarDecl(inner, init, chain); err != nil {
			return err
		}
	case ast.VarDeclList:
		for _, d := range init.Children {
			if err := a.analyzeLocalVarDecl(inner, d, chain); err != nil {
				return err
			}
		}
	case ast.ExprStmt:
		if len(init.Children) > 0 {
			if _, err := a.typeOfExpr(inner, init.Child(0)); err != nil {
				return err
			}
		}
	}
	if _, err := a.typeOfExpr(inner, n.Child(1)); err != nil {
		return err
	}
	if n.Child(2).Kind != ast.EmptyStmt {
		if _, err := a.typeOfExpr(inner, n.Child(2)); err != nil {
			return err
		}
	}
	return a.analyzeStmt(inner, n.Child(3), chain)
}

func (a *analyzer) analyzeSwitch(scope *types.Scope, n *ast.Node, chain []int) error {
	if _, err := a.typeOfExpr(scope, n.Child(0)); err != nil {
		return err
	}
	inner := scope.Push()
	id := a.newBlockID()
	innerChain := append(append([]int{}, chain...), id)
	for _, c := range n.Children[1:] {
		switch c.Kind {
		case ast.CaseClause:
			for _, v := range c.Children {
				if _, err := a.typeOfExpr(inner, v); err != nil {
					return err
				}
			}
		case ast.DefaultClause:
			// no payload
		default:
			if err := a.analyzeStmt(inner, c, innerChain); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *analyzer) analyzeReturn(scope *types.Scope, n *ast.Node) error {
	if len(n.Children) == 0 {
		return nil
	}
	_, err := a.typeOfExpr(scope, n.Child(0))
	return err
}

// analyzeLocalVarDecl declares a local in scope, rejecting a redeclaration
// within the same block, and records an initDecl site for goto-legality
// whenever an initializer is present.
func (a *analyzer) analyzeLocalVarDecl(scope *types.Scope, n *ast.Node, chain []int) error {
	declType := n.Child(0)
	sym := &types.Symbol{Name: n.Text, Type: declType.Text, Kind: types.SymLocal, Line: n.Line}
	if !scope.Declare(sym) {
		return a.errf(n, "HC3005", "duplicate local declaration %q", n.Text)
	}
	if len(n.Children) > 1 {
		last := n.Children[len(n.Children)-1]
		if last.Kind != ast.DeclSpec {
			if _, err := a.typeOfExpr(scope, last); err != nil {
				return err
			}
			a.initDecls = append(a.initDecls, initDeclSite{chain: chain, order: a.order})
		}
	}
	return nil
}

// checkGotoLegality enforces two goto rules: forbid jumping
// into a strictly deeper scope than shared with the goto site, and forbid a
// forward jump within the same immediate block that skips an initialized
// declaration.
func (a *analyzer) checkGotoLegality(fn *ast.Node) error {
	labelByName := make(map[string]labelSite)
	for _, l := range a.labelDefs {
		labelByName[l.name] = l
	}
	for _, g := range a.gotoSites {
		label, ok := labelByName[g.name]
		if !ok {
			return a.errf(g.node, "HC3054", "undefined label %q", g.name)
		}
		common := commonPrefixLen(label.chain, g.chain)
		if len(label.chain) > common {
			return a.errf(g.node, "HC3051", "goto %q jumps into a strictly deeper scope", g.name)
		}
		if sameBlock(label.chain, g.chain) && g.order < label.order {
			for _, d := range a.initDecls {
				if sameBlock(d.chain, g.chain) && d.order > g.order && d.order < label.order {
					return a.errf(g.node, "HC3052", "goto %q skips an initialized declaration", g.name)
				}
			}
		}
	}
	return nil
}

func commonPrefixLen(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func sameBlock(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	return commonPrefixLen(a, b) == len(a)
}
