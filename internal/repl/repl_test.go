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

package repl

import (
	"strings"
	"testing"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/parser"
)

func TestReadyBalancedBrackets(t *testing.T) {
	for _, tc := range []struct {
		buf  string
		want bool
	}{
		{"I64 x = 1;\n", true},
		{"if (x\n", false},
		{"if (x) {\n", false},
		{"if (x) { y = 1;\n", false},
		{`Print("unterminated` + "\n", false},
		{"/* block\n", false},
		{"x = 1 +\n", false},
	} {
		if got := Ready(tc.buf, ""); got != tc.want {
			t.Errorf("Ready(%q, \"\") = %v, want %v", tc.buf, got, tc.want)
		}
	}
}

func TestReadyEOFAdjacentError(t *testing.T) {
	if Ready("I64 x = 1", "expected ';'") {
		t.Error("Ready should keep reading on an EOF-adjacent parse error")
	}
	if !Ready("I64 x = 1;", "some unrelated semantic error") {
		t.Error("Ready should stop reading on a non-EOF-adjacent error once brackets balance")
	}
}

func TestClassifyDeclarationCell(t *testing.T) {
	prog, err := parser.Parse("<repl>", []byte("I64 Foo(I64 a) { return a; }"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	kind, err := Classify(prog)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if kind != CellDeclaration {
		t.Errorf("Classify(func decl) = %v, want CellDeclaration", kind)
	}
}

// Classify operates on whatever top-level nodes a cell parses to; since
// bare executable statements aren't themselves a top-level grammar form,
// these cases build the post-parse shape directly rather than going
// through parser.Parse.

func TestClassifyExpressionCell(t *testing.T) {
	exprStmt := ast.New(ast.ExprStmt, "", 1, 1).Add(ast.New(ast.BinaryExpr, "+", 1, 1))
	prog := ast.New(ast.Program, "", 1, 1).Add(exprStmt)

	kind, err := Classify(prog)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if kind != CellExpression {
		t.Errorf("Classify(expr stmt) = %v, want CellExpression", kind)
	}
}

func TestClassifyExecutableCell(t *testing.T) {
	s1 := ast.New(ast.ExprStmt, "", 1, 1).Add(ast.New(ast.AssignExpr, "=", 1, 1))
	s2 := ast.New(ast.ExprStmt, "", 1, 1).Add(ast.New(ast.AssignExpr, "=", 1, 1))
	prog := ast.New(ast.Program, "", 1, 1).Add(s1, s2)

	kind, err := Classify(prog)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if kind != CellExecutable {
		t.Errorf("Classify(multi-stmt) = %v, want CellExecutable", kind)
	}
}

func TestClassifyRejectsMixedCell(t *testing.T) {
	decl := ast.New(ast.VarDecl, "x", 1, 1)
	stmt := ast.New(ast.ExprStmt, "", 1, 1).Add(ast.New(ast.AssignExpr, "=", 1, 1))
	prog := ast.New(ast.Program, "", 1, 1).Add(decl, stmt)

	if _, err := Classify(prog); err == nil {
		t.Error("Classify should reject a cell mixing declarations and statements")
	}
}

func TestWrapExecutableStatementMode(t *testing.T) {
	s := NewSession()
	name, src := s.WrapExecutable("x = 1;", false)
	if !strings.Contains(src, name) || !strings.Contains(src, "x = 1;") || !strings.Contains(src, "return 0;") {
		t.Errorf("WrapExecutable(statement) = %q, missing expected pieces", src)
	}
}

func TestWrapExecutableExpressionMode(t *testing.T) {
	s := NewSession()
	name, src := s.WrapExecutable("1 + 2;", true)
	if !strings.Contains(src, name) || !strings.Contains(src, "return 1 + 2;") {
		t.Errorf("WrapExecutable(expression) = %q, want a return of the bare expression", src)
	}
}

func TestWrapExecutableNamesAreUnique(t *testing.T) {
	s := NewSession()
	n1, _ := s.WrapExecutable("x = 1;", false)
	n2, _ := s.WrapExecutable("x = 2;", false)
	if n1 == n2 {
		t.Errorf("WrapExecutable returned the same entry name twice: %q", n1)
	}
}

func TestAddDeclarationsDedups(t *testing.T) {
	prog, err := parser.Parse("<repl>", []byte("I64 Foo(I64 a) { return a; }"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := NewSession()
	s.AddDeclarations(prog.Children)
	first := s.Prelude()
	s.AddDeclarations(prog.Children)
	if s.Prelude() != first {
		t.Errorf("AddDeclarations duplicated an already-seen declaration:\nfirst=%q\nafter=%q", first, s.Prelude())
	}
	if !strings.Contains(first, "Foo") {
		t.Errorf("Prelude() = %q, expected it to mention Foo", first)
	}
}
