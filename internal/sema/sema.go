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

// Package sema implements the HolyC semantic analyzer: it
// consumes a ParsedNode tree from internal/parser and fills in each node's
// Type field in place, turning it into a TypedNode (internal/ast's Node
// carries both shapes). Scope handling follows a push/pop-around-a-block
// pattern for HolyC's lexical block scoping.
package sema

import (
	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/diag"
	"github.com/holyc-tools/holycc/internal/types"
)

// Options configures one analysis run.
type Options struct {
	File   string
	Strict bool // strict mode rejects compatibility modifiers
}

// Result bundles everything the HIR lowerer needs from semantic analysis,
// plus any non-fatal warnings collected along the way.
type Result struct {
	Aggregates map[string]*types.Aggregate
	Functions  map[string]*types.Signature
	Globals    *types.Scope
	Warnings   *diag.Bundle
}

// strictRejectedModifiers is checked when Options.Strict is set: these
// compatibility modifiers are errors in strict mode and are
// silently stripped in permissive mode.
var strictRejectedModifiers = map[string]bool{
	"public": true, "interrupt": true, "noreg": true, "reg": true,
	"no_warn": true, "_extern": true, "_import": true, "_export": true,
}

type analyzer struct {
	opts Options
	res  *Result

	// goto-legality bookkeeping, reset per function.
	gotoSites    []gotoSite
	labelDefs    []labelSite
	initDecls    []initDeclSite
	order        int
	blockCounter int
}

type gotoSite struct {
	name  string
	chain []int
	order int
	node  *ast.Node
}

type labelSite struct {
	name  string
	chain []int
	order int
}

type initDeclSite struct {
	chain []int
	order int
}

// newOrder hands out a strictly increasing position index for every
// statement/label/goto visited, used to tell forward jumps from backward
// ones during goto-legality checking.
func (a *analyzer) newOrder() int {
	a.order++
	return a.order
}

// newBlockID hands out a fresh id for each lexical block, used to build the
// chain-of-ancestor-blocks path compared during goto-legality checking.
func (a *analyzer) newBlockID() int {
	a.blockCounter++
	return a.blockCounter
}

// Analyze runs the full semantic pass over a Program node, returning the
// same tree with Type fields populated and a Result describing the
// program's global shape.
func Analyze(prog *ast.Node, opts Options) (*ast.Node, *Result, error) {
	res := &Result{
		Aggregates: make(map[string]*types.Aggregate),
		Functions:  make(map[string]*types.Signature),
		Globals:    types.NewRoot(),
		Warnings:   &diag.Bundle{},
	}
	seedBuiltinSymbols(res.Globals)
	seedBuiltinAggregates(res.Aggregates)
	seedBuiltinFunctions(res.Functions)

	a := &analyzer{opts: opts, res: res}

	if err := a.collectClasses(prog); err != nil {
		return nil, nil, err
	}
	if err := a.collectFunctions(prog); err != nil {
		return nil, nil, err
	}
	if err := a.collectGlobals(prog); err != nil {
		return nil, nil, err
	}
	for _, child := range prog.Children {
		if child.Kind == ast.FunctionDecl && len(child.Children) > 0 && child.Children[len(child.Children)-1].Kind == ast.Block {
			if err := a.analyzeFunctionBody(child); err != nil {
				return nil, nil, err
			}
		}
	}
	prog.Type = types.U0
	return prog, res, nil
}

func (a *analyzer) errf(n *ast.Node, code, format string, args ...interface{}) error {
	return diag.New(code, a.opts.File, n.Line, n.Column, format, args...)
}

// checkModifiers enforces strict-vs-permissive handling of the fixed
// compatibility-modifier set.
func (a *analyzer) checkModifiers(n *ast.Node) error {
	for _, c := range n.Children {
		if c.Kind != ast.DeclSpec || !strictRejectedModifiers[c.Text] {
			continue
		}
		if a.opts.Strict {
			return a.errf(n, "HC3071", "strict mode forbids modifier %q", c.Text)
		}
	}
	return nil
}
