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

package hir

import (
	"fmt"
	"io"
	"strings"
)

// Dump renders mod module-level (globals, aggregates) then each function
// body, one statement/expression per indented line using HIR kind names.
func Dump(w io.Writer, mod *Module) {
	for _, g := range mod.Globals {
		fmt.Fprintf(w, "Global %s: %s", g.Name, g.Type)
		if g.Init != nil {
			fmt.Fprintf(w, " = %s", dumpExpr(g.Init))
		}
		fmt.Fprintln(w)
	}
	for name, agg := range mod.Aggregates {
		kind := "class"
		if agg.Union {
			kind = "union"
		}
		fmt.Fprintf(w, "%s %s (size=%d)\n", kind, name, agg.Size)
		for _, f := range agg.Fields {
			fmt.Fprintf(w, "  Field %s: %s @%d\n", f.Name, f.Type, f.Offset)
		}
	}
	for _, fn := range mod.Functions {
		dumpFunc(w, fn)
	}
}

func dumpFunc(w io.Writer, fn *Function) {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Type+" "+p.Name)
	}
	fmt.Fprintf(w, "Function %s %s(%s)\n", fn.Return, fn.Name, strings.Join(params, ", "))
	for _, s := range fn.Body {
		dumpStmt(w, s, 1)
	}
}

func indent(w io.Writer, depth int) { fmt.Fprint(w, strings.Repeat("  ", depth)) }

func dumpStmt(w io.Writer, s Stmt, depth int) {
	indent(w, depth)
	switch s := s.(type) {
	case *ExprStmt:
		fmt.Fprintf(w, "ExprStmt: %s\n", dumpExpr(s.X))
	case *DeclStmt:
		fmt.Fprintf(w, "VarDecl %s: %s", s.Name, s.Type)
		if s.Init != nil {
			fmt.Fprintf(w, " = %s", dumpExpr(s.Init))
		}
		fmt.Fprintln(w)
	case *Block:
		fmt.Fprintln(w, "Block")
		for _, c := range s.Stmts {
			dumpStmt(w, c, depth+1)
		}
	case *If:
		fmt.Fprintf(w, "If: %s\n", dumpExpr(s.Cond))
		dumpStmt(w, s.Then, depth+1)
		if s.Else != nil {
			indent(w, depth)
			fmt.Fprintln(w, "Else")
			dumpStmt(w, s.Else, depth+1)
		}
	case *While:
		fmt.Fprintf(w, "While: %s\n", dumpExpr(s.Cond))
		dumpStmt(w, s.Body, depth+1)
	case *DoWhile:
		fmt.Fprintln(w, "DoWhile")
		dumpStmt(w, s.Body, depth+1)
		indent(w, depth)
		fmt.Fprintf(w, "Until: %s\n", dumpExpr(s.Cond))
	case *Switch:
		fmt.Fprintf(w, "Switch: %s\n", dumpExpr(s.Cond))
		for i, c := range s.Cases {
			indent(w, depth+1)
			fmt.Fprintf(w, "Case[%d] flags=%d begin=%s end=%s\n", i, s.CaseFlags[i], dumpExpr(s.CaseBegin[i]), dumpExpr(s.CaseEnd[i]))
			dumpStmt(w, c, depth+2)
		}
		if s.Default != nil {
			indent(w, depth+1)
			fmt.Fprintln(w, "Default")
			dumpStmt(w, s.Default, depth+2)
		}
	case *Return:
		if s.X != nil {
			fmt.Fprintf(w, "Return: %s\n", dumpExpr(s.X))
		} else {
			fmt.Fprintln(w, "Return")
		}
	case *Break:
		fmt.Fprintln(w, "Break")
	case *Goto:
		fmt.Fprintf(w, "Goto: %s\n", s.Label)
	case *Label:
		fmt.Fprintf(w, "Label: %s\n", s.Name)
	case *Try:
		fmt.Fprintf(w, "Try region=%d\n", s.Region)
		dumpStmt(w, s.Body, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, "Catch")
		dumpStmt(w, s.Catch, depth+1)
	case *Throw:
		fmt.Fprintf(w, "Throw region=%d: %s\n", s.Region, dumpExpr(s.X))
	case *Lock:
		fmt.Fprintln(w, "Lock")
		dumpStmt(w, s.Body, depth+1)
	case *Asm:
		fmt.Fprintf(w, "Asm block=%v: %q\n", s.Block, s.Template)
	case *Print:
		fmt.Fprintf(w, "Print: %s (%d args)\n", dumpExpr(s.Format), len(s.Args))
	case *PrintChar:
		fmt.Fprintf(w, "PrintChar: %s\n", dumpExpr(s.X))
	default:
		fmt.Fprintf(w, "<unknown stmt %T>\n", s)
	}
}

func dumpExpr(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *Lit:
		return fmt.Sprintf("Lit(%s:%s)", e.Text, e.Type)
	case *Ident:
		return fmt.Sprintf("Ident(%s:%s)", e.Name, e.Type)
	case *Unary:
		return fmt.Sprintf("Unary(%s %s)", e.Op, dumpExpr(e.X))
	case *Binary:
		return fmt.Sprintf("Binary(%s %s %s)", dumpExpr(e.L), e.Op, dumpExpr(e.R))
	case *Assign:
		return fmt.Sprintf("Assign(%s %s= %s)", dumpExpr(e.L), e.Op, dumpExpr(e.R))
	case *Cast:
		return fmt.Sprintf("Cast(%s:%s)", dumpExpr(e.X), e.To)
	case *Lane:
		return fmt.Sprintf("Lane(%s[%s] bits=%d signed=%v)", dumpExpr(e.Base), dumpExpr(e.Idx), e.LaneBits, e.Signed)
	case *Member:
		return fmt.Sprintf("Member(%s.%s)", dumpExpr(e.Base), e.Field)
	case *Index:
		return fmt.Sprintf("Index(%s[%s])", dumpExpr(e.Base), dumpExpr(e.Idx))
	case *Call:
		var args []string
		for _, a := range e.Args {
			args = append(args, dumpExpr(a))
		}
		return fmt.Sprintf("Call(%s(%s))", dumpExpr(e.Callee), strings.Join(args, ", "))
	case *Comma:
		var xs []string
		for _, x := range e.Xs {
			xs = append(xs, dumpExpr(x))
		}
		return fmt.Sprintf("Comma(%s)", strings.Join(xs, ", "))
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}
