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

// collectGlobals registers every VarDecl, VarDeclList member, LinkageDecl,
// and class-trailing VarDecl as a global symbol, rejecting conflicts with
// other globals or with function names.
func (a *analyzer) collectGlobals(prog *ast.Node) error {
	for _, n := range prog.Children {
		switch n.Kind {
		case ast.VarDecl:
			if err := a.declareGlobal(n); err != nil {
				return err
			}
		case ast.VarDeclList:
			for _, d := range n.Children {
				if err := a.declareGlobal(d); err != nil {
					return err
				}
			}
		case ast.LinkageDecl:
			if err := a.checkModifiers(n); err != nil {
				return err
			}
			if err := a.declareGlobal(n); err != nil {
				return err
			}
		case ast.ClassDecl:
			for _, c := range n.Children {
				if c.Kind == ast.VarDecl {
					if err := a.declareGlobal(c); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (a *analyzer) declareGlobal(n *ast.Node) error {
	if _, isFn := a.res.Functions[n.Text]; isFn {
		return a.errf(n, "HC3001", "global %q conflicts with a function of the same name", n.Text)
	}
	declType := n.Child(0)
	sym := &types.Symbol{Name: n.Text, Type: declType.Text, Kind: types.SymGlobal, Line: n.Line}
	if !a.res.Globals.Declare(sym) {
		return a.errf(n, "HC3001", "duplicate global declaration %q", n.Text)
	}
	if len(n.Children) > 1 {
		init := n.Children[len(n.Children)-1]
		if init.Kind != ast.DeclSpec {
			if _, err := a.typeOfExpr(a.res.Globals, init); err != nil {
				return err
			}
		}
	}
	return nil
}
