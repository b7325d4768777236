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
	"testing"

	"github.com/holyc-tools/holycc/internal/parser"
	"github.com/holyc-tools/holycc/internal/sema"
)

func lowerSrc(t *testing.T, src string) *Module {
	t.Helper()
	prog, err := parser.Parse("<test>", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	typed, res, err := sema.Analyze(prog, sema.Options{File: "<test>", Strict: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	mod, err := Lower(typed, res)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	return mod
}

func TestLowerFunctionShape(t *testing.T) {
	mod := lowerSrc(t, "I64 Add(I64 a, I64 b) { return a + b; }")
	if len(mod.Functions) != 1 {
		t.Fatalf("len(Functions)=%d, want 1", len(mod.Functions))
	}
	fn := mod.Functions[0]
	if fn.Name != "Add" || fn.Return != "I64" || len(fn.Params) != 2 {
		t.Errorf("fn = %+v, want Add(I64,I64) I64", fn)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("len(fn.Body)=%d, want 1 (a single return)", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*Return)
	if !ok {
		t.Fatalf("fn.Body[0] = %T, want *Return", fn.Body[0])
	}
	bin, ok := ret.X.(*Binary)
	if !ok || bin.Op != "+" {
		t.Errorf("ret.X = %+v, want Binary +", ret.X)
	}
}

func TestLowerGlobalWithInit(t *testing.T) {
	mod := lowerSrc(t, "I64 counter = 42;")
	if len(mod.Globals) != 1 {
		t.Fatalf("len(Globals)=%d, want 1", len(mod.Globals))
	}
	g := mod.Globals[0]
	if g.Name != "counter" || g.Type != "I64" {
		t.Errorf("global = %+v, want counter I64", g)
	}
	lit, ok := g.Init.(*Lit)
	if !ok || lit.Text != "42" {
		t.Errorf("g.Init = %+v, want Lit 42", g.Init)
	}
}

func TestLowerIfElse(t *testing.T) {
	mod := lowerSrc(t, `I64 Abs(I64 x) {
  if (x < 0) { return -x; } else { return x; }
}`)
	fn := mod.Functions[0]
	ifStmt, ok := fn.Body[0].(*If)
	if !ok {
		t.Fatalf("fn.Body[0] = %T, want *If", fn.Body[0])
	}
	if ifStmt.Else == nil {
		t.Error("ifStmt.Else is nil, want the else branch lowered")
	}
}

func TestLowerWhileLoop(t *testing.T) {
	mod := lowerSrc(t, `U0 Spin(I64 n) {
  while (n > 0) { n--; }
}`)
	fn := mod.Functions[0]
	w, ok := fn.Body[0].(*While)
	if !ok {
		t.Fatalf("fn.Body[0] = %T, want *While", fn.Body[0])
	}
	if w.Cond == nil || w.Body == nil {
		t.Errorf("while = %+v, missing cond/body", w)
	}
}

func TestLowerForBecomesWhile(t *testing.T) {
	mod := lowerSrc(t, `U0 Loop() {
  I64 i;
  for (i = 0; i < 10; i++) { }
}`)
	fn := mod.Functions[0]
	if len(fn.Body) != 2 {
		t.Fatalf("fn.Body = %+v, want [decl, lowered-for-block]", fn.Body)
	}
	forBlock, ok := fn.Body[1].(*Block)
	if !ok {
		t.Fatalf("fn.Body[1] = %T, want *Block wrapping the for's init+loop", fn.Body[1])
	}
	foundWhile := false
	for _, s := range forBlock.Stmts {
		if _, ok := s.(*While); ok {
			foundWhile = true
		}
	}
	if !foundWhile {
		t.Errorf("forBlock.Stmts = %+v, want a lowered While", forBlock.Stmts)
	}
}

func TestLowerTryCatch(t *testing.T) {
	mod := lowerSrc(t, `U0 Risky() {
  try { throw(1); } catch { }
}`)
	fn := mod.Functions[0]
	tr, ok := fn.Body[0].(*Try)
	if !ok {
		t.Fatalf("fn.Body[0] = %T, want *Try", fn.Body[0])
	}
	if tr.Region <= 0 {
		t.Errorf("Try.Region = %d, want a positive region id", tr.Region)
	}
}

func TestLowerAggregateCopied(t *testing.T) {
	mod := lowerSrc(t, `class Point { I64 x; I64 y; };`)
	agg, ok := mod.Aggregates["Point"]
	if !ok {
		t.Fatalf("Aggregates missing Point")
	}
	if len(agg.Fields) != 2 {
		t.Errorf("Point.Fields = %+v, want 2 fields", agg.Fields)
	}
}
