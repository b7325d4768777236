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

package ast

import (
	"bytes"
	"strings"
	"testing"
)

func TestChildOutOfRange(t *testing.T) {
	n := New(Block, "", 1, 1)
	if n.Child(0) != nil {
		t.Error("Child(0) on childless node should be nil")
	}
	if n.Child(-1) != nil {
		t.Error("Child(-1) should be nil")
	}

	var nilNode *Node
	if nilNode.Child(0) != nil {
		t.Error("Child on nil receiver should be nil")
	}
}

func TestAddReturnsSelf(t *testing.T) {
	a := New(Identifier, "a", 1, 1)
	b := New(Identifier, "b", 1, 3)
	n := New(Block, "", 1, 1).Add(a, b)
	if len(n.Children) != 2 || n.Child(0) != a || n.Child(1) != b {
		t.Errorf("Add did not append children in order: %+v", n.Children)
	}
}

func TestWalkPreOrder(t *testing.T) {
	leaf1 := New(Identifier, "x", 1, 1)
	leaf2 := New(Identifier, "y", 1, 3)
	root := New(Block, "", 1, 1).Add(leaf1, leaf2)

	var order []string
	root.Walk(func(n *Node) { order = append(order, string(n.Kind)) })

	want := []string{"Block", "Identifier", "Identifier"}
	if len(order) != len(want) {
		t.Fatalf("Walk visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Walk()[%d]=%q, want %q", i, order[i], want[i])
		}
	}
}

func TestWalkNilNoop(t *testing.T) {
	var n *Node
	calls := 0
	n.Walk(func(*Node) { calls++ })
	if calls != 0 {
		t.Errorf("Walk on nil node invoked visit %d times, want 0", calls)
	}
}

func TestDumpIncludesKindAndText(t *testing.T) {
	n := New(Identifier, "Foo", 1, 1)
	var buf bytes.Buffer
	Dump(&buf, n)
	out := buf.String()
	if !strings.Contains(out, "Identifier") || !strings.Contains(out, "Foo") {
		t.Errorf("Dump() = %q, missing kind or text", out)
	}
}
