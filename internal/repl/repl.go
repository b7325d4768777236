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

// Package repl implements the read-classify-prelude-execute loop sitting
// on top of internal/jit's Load/Execute. The incremental read-until-ready
// loop accumulates input while the buffer is an incomplete HolyC fragment;
// go-diff renders the prelude's growth between cells under verbose
// logging.
package repl

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/log"
)

// CellKind classifies one REPL input.
type CellKind int

const (
	CellDeclaration CellKind = iota
	CellExecutable
	CellExpression // executable cell containing exactly one ExprStmt
)

// Session accumulates the declaration prelude across cells and tracks a
// monotonic synthesized-entry counter.
type Session struct {
	declByText map[string]bool // dedup by rendered text
	prelude    []string        // rendered declaration forms, in first-seen order
	entrySeq   int
}

// NewSession starts an empty REPL session.
func NewSession() *Session {
	return &Session{declByText: make(map[string]bool)}
}

// Classify inspects a parsed cell's top-level nodes and returns its kind.
// A declaration cell requires every top-level node to be a declaration
// form; mixing declarations and executable statements in one cell is
// rejected.
func Classify(prog *ast.Node) (CellKind, error) {
	isDecl := func(n *ast.Node) bool {
		switch n.Kind {
		case ast.FunctionDecl, ast.VarDecl, ast.VarDeclList, ast.TypeAliasDecl,
			ast.ClassDecl, ast.LinkageDecl, ast.StartLabel, ast.EndLabel:
			return true
		}
		return false
	}
	allDecl, anyDecl := true, false
	for _, n := range prog.Children {
		if isDecl(n) {
			anyDecl = true
		} else {
			allDecl = false
		}
	}
	if allDecl && len(prog.Children) > 0 {
		return CellDeclaration, nil
	}
	if anyDecl {
		return 0, fmt.Errorf("a cell must not mix declarations and executable statements")
	}
	if len(prog.Children) == 1 && prog.Children[0].Kind == ast.ExprStmt {
		return CellExpression, nil
	}
	return CellExecutable, nil
}

// AddDeclarations renders each declaration node's source form and merges
// new ones into the prelude, deduplicating by rendered text so the
// prelude grows monotonically. Growth is traced via
// go-diff through log.V, which prints only when log.VerboseLog is set.
func (s *Session) AddDeclarations(decls []*ast.Node) {
	before := strings.Join(s.prelude, "\n")
	for _, d := range decls {
		text := renderPreludeForm(d)
		if text == "" || s.declByText[text] {
			continue
		}
		s.declByText[text] = true
		s.prelude = append(s.prelude, text)
	}
	after := strings.Join(s.prelude, "\n")
	if after != before {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(before, after, false)
		log.V("prelude grew:\n%s", dmp.DiffPrettyText(diffs))
	}
}

// Prelude returns the accumulated declaration text, newest last.
func (s *Session) Prelude() string { return strings.Join(s.prelude, "\n") }

// renderPreludeForm renders a declaration node into the form the prelude
// carries forward: function prototypes (skipping `static` functions),
// typedefs, class renderings, and extern-linkage forms of globals.
func renderPreludeForm(n *ast.Node) string {
	switch n.Kind {
	case ast.FunctionDecl:
		for _, c := range n.Children {
			if c.Kind == ast.DeclSpec && c.Text == "static" {
				return ""
			}
			if c.Kind == ast.DeclSpec && (c.Text == "reg" || c.Text == "noreg") {
				// storage/register hints don't change the prototype shape.
				continue
			}
		}
		ret := n.Child(0).Text
		var params []string
		for _, p := range n.Child(1).Children {
			params = append(params, p.Child(0).Text)
		}
		return fmt.Sprintf("%s %s(%s);", ret, n.Text, strings.Join(params, ","))
	case ast.VarDecl:
		return fmt.Sprintf("extern %s %s;", n.Child(0).Text, n.Text)
	case ast.TypeAliasDecl, ast.ClassDecl:
		var sb strings.Builder
		ast.Dump(&sb, n)
		return sb.String()
	}
	return ""
}

// NextEntryName returns the next __holyc_repl_exec_<N> synthesized entry
// name and advances the counter.
func (s *Session) NextEntryName() string {
	s.entrySeq++
	return fmt.Sprintf("__holyc_repl_exec_%d", s.entrySeq)
}

// WrapExecutable wraps an executable cell's body in a synthesized I64
// function: `I64 __holyc_repl_exec_<N>() { body return
// 0; }`. Expression-mode cells strip the trailing ';' and instead
// `return <expr>;`.
func (s *Session) WrapExecutable(body string, expressionMode bool) (name, source string) {
	name = s.NextEntryName()
	if expressionMode {
		expr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), ";"))
		return name, fmt.Sprintf("I64 %s() { return %s; }", name, expr)
	}
	return name, fmt.Sprintf("I64 %s() { %s return 0; }", name, body)
}
