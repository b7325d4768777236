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
	"testing"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/diag"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	prog, err := Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("Parse(%q) = %v", src, err)
	}
	return prog
}

// firstBody returns the body Block of the first FunctionDecl in prog.
func firstBody(t *testing.T, prog *ast.Node) *ast.Node {
	t.Helper()
	for _, c := range prog.Children {
		if c.Kind == ast.FunctionDecl {
			return c.Children[len(c.Children)-1]
		}
	}
	t.Fatal("no FunctionDecl found")
	return nil
}

func TestParseMultiplicationBindsTighterThanAddition(t *testing.T) {
	prog := mustParse(t, "I64 Foo() { return 1 + 2 * 3; }")
	body := firstBody(t, prog)
	ret := body.Children[0]
	top := ret.Children[0]
	if top.Kind != ast.BinaryExpr || top.Text != "+" {
		t.Fatalf("top expr = %+v, want BinaryExpr +", top)
	}
	rhs := top.Children[1]
	if rhs.Kind != ast.BinaryExpr || rhs.Text != "*" {
		t.Errorf("rhs = %+v, want BinaryExpr * (multiplication binds tighter)", rhs)
	}
}

func TestParseRelationalBindsLooserThanAdditive(t *testing.T) {
	prog := mustParse(t, "I64 Foo() { return 1 + 2 < 4; }")
	body := firstBody(t, prog)
	top := body.Children[0].Children[0]
	if top.Kind != ast.BinaryExpr || top.Text != "<" {
		t.Fatalf("top expr = %+v, want BinaryExpr <", top)
	}
	lhs := top.Children[0]
	if lhs.Kind != ast.BinaryExpr || lhs.Text != "+" {
		t.Errorf("lhs = %+v, want BinaryExpr + nested under <", lhs)
	}
}

func TestParseUnaryMinus(t *testing.T) {
	prog := mustParse(t, "I64 Foo() { return -5; }")
	body := firstBody(t, prog)
	top := body.Children[0].Children[0]
	if top.Kind != ast.UnaryExpr || top.Text != "-" {
		t.Fatalf("top expr = %+v, want UnaryExpr -", top)
	}
}

func TestParseCallExpression(t *testing.T) {
	prog := mustParse(t, "I64 Foo() { return Bar(1, 2); }")
	body := firstBody(t, prog)
	top := body.Children[0].Children[0]
	if top.Kind != ast.CallExpr {
		t.Fatalf("top expr = %+v, want CallExpr", top)
	}
	if len(top.Children) != 2 {
		t.Errorf("call args = %+v, want 2", top.Children)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := mustParse(t, `I64 Foo(I64 x) {
  if (x) { return 1; } else { return 0; }
}`)
	body := firstBody(t, prog)
	ifNode := body.Children[0]
	if ifNode.Kind != ast.IfStmt {
		t.Fatalf("stmt = %+v, want IfStmt", ifNode)
	}
	if len(ifNode.Children) != 3 {
		t.Errorf("IfStmt children = %+v, want [cond, then, else]", ifNode.Children)
	}
}

func TestParseWhileLoop(t *testing.T) {
	prog := mustParse(t, `U0 Foo() { while (1) { } }`)
	body := firstBody(t, prog)
	w := body.Children[0]
	if w.Kind != ast.WhileStmt {
		t.Fatalf("stmt = %+v, want WhileStmt", w)
	}
}

func TestParseAssignment(t *testing.T) {
	prog := mustParse(t, "I64 Foo() { I64 x; x = 5; return x; }")
	body := firstBody(t, prog)
	exprStmt := body.Children[1]
	assign := exprStmt.Children[0]
	if assign.Kind != ast.AssignExpr || assign.Text != "=" {
		t.Fatalf("assign = %+v, want AssignExpr =", assign)
	}
}

func TestParseContinueIsRejected(t *testing.T) {
	_, err := Parse("<test>", []byte("U0 Foo() { while (1) { continue; } }"))
	assertDiagCode(t, err, "HC2141")
}

func TestParseExpectedTokenError(t *testing.T) {
	_, err := Parse("<test>", []byte("I64 Foo(I64 a { return a; }"))
	assertDiagCode(t, err, "HC2101")
}

func TestParseUnterminatedBlock(t *testing.T) {
	_, err := Parse("<test>", []byte("I64 Foo() { return 0;"))
	assertDiagCode(t, err, "HC2131")
}

func TestParseClassWithFields(t *testing.T) {
	prog := mustParse(t, "class Point { I64 x; I64 y; };")
	if len(prog.Children) != 1 || prog.Children[0].Kind != ast.ClassDecl {
		t.Fatalf("prog.Children = %+v, want one ClassDecl", prog.Children)
	}
}

func assertDiagCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want diagnostic %s", code)
	}
	d, ok := diag.AsDiagnostic(err)
	if !ok {
		t.Fatalf("error %v is not a diagnostic", err)
	}
	if d.Code != code {
		t.Errorf("diagnostic code = %q, want %q", d.Code, code)
	}
}
