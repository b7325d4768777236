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

package types

import "testing"

func TestDeclareRejectsDuplicateInSameScope(t *testing.T) {
	root := NewRoot()
	if !root.Declare(&Symbol{Name: "x", Type: I64}) {
		t.Fatal("first Declare(x) = false, want true")
	}
	if root.Declare(&Symbol{Name: "x", Type: F64}) {
		t.Error("second Declare(x) in same scope = true, want false")
	}
}

func TestLookupWalksParentChain(t *testing.T) {
	root := NewRoot()
	root.Declare(&Symbol{Name: "g", Type: I64, Kind: SymGlobal})
	inner := root.Push()
	sym, ok := inner.Lookup("g")
	if !ok || sym.Type != I64 {
		t.Errorf("Lookup(g) from nested scope = %+v, %v, want the global symbol", sym, ok)
	}
}

func TestLookupLocalDoesNotWalkParent(t *testing.T) {
	root := NewRoot()
	root.Declare(&Symbol{Name: "g", Type: I64})
	inner := root.Push()
	if _, ok := inner.LookupLocal("g"); ok {
		t.Error("LookupLocal found a parent-scope symbol, want only this scope")
	}
}

func TestShadowingInnerScopeWins(t *testing.T) {
	root := NewRoot()
	root.Declare(&Symbol{Name: "x", Type: I64})
	inner := root.Push()
	inner.Declare(&Symbol{Name: "x", Type: F64})

	sym, ok := inner.Lookup("x")
	if !ok || sym.Type != F64 {
		t.Errorf("Lookup(x) from inner scope = %+v, want shadowed F64 symbol", sym)
	}
	outerSym, ok := root.Lookup("x")
	if !ok || outerSym.Type != I64 {
		t.Errorf("outer scope's Lookup(x) = %+v, want untouched I64 symbol", outerSym)
	}
}

func TestDepthIncreasesWithPush(t *testing.T) {
	root := NewRoot()
	if root.Depth() != 0 {
		t.Errorf("root.Depth() = %d, want 0", root.Depth())
	}
	inner := root.Push()
	if inner.Depth() != 1 {
		t.Errorf("inner.Depth() = %d, want 1", inner.Depth())
	}
	if inner.Parent() != root {
		t.Error("inner.Parent() != root")
	}
}
