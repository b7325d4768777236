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

// collectClasses walks top-level ClassDecl nodes (including ones nested in
// statement position, since HolyC allows local class declarations) and
// computes their layout: sequential offsets for structs,
// shared offset 0 for unions with size = max field size.
func (a *analyzer) collectClasses(prog *ast.Node) error {
	var classes []*ast.Node
	prog.Walk(func(n *ast.Node) {
		if n.Kind == ast.ClassDecl {
			classes = append(classes, n)
		}
	})
	for _, c := range classes {
		if err := a.layoutClass(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) layoutClass(c *ast.Node) error {
	isUnion := len(c.Children) > 0 && c.Children[0].Kind == ast.DeclSpec && c.Children[0].Text == "union"
	agg := &types.Aggregate{Name: c.Text, Union: isUnion}

	seen := make(map[string]bool)
	offset := 0
	maxSize := 0
	for _, field := range c.Children {
		if field.Kind != ast.FieldDecl {
			continue
		}
		if seen[field.Text] {
			return a.errf(field, "HC3002", "duplicate field name %q in %q", field.Text, c.Text)
		}
		seen[field.Text] = true

		declType := field.Child(0)
		ftype := declType.Text
		dims := fieldArrayDims(field)
		size := types.SizeOf(ftype, a.res.Aggregates)
		for _, d := range dims {
			size *= d
		}

		var meta []string
		for _, mc := range field.Children {
			if mc.Kind == ast.FieldMetaTokens {
				for _, tok := range mc.Children {
					meta = append(meta, tok.Text)
				}
			}
		}

		f := types.Field{Name: field.Text, Type: ftype, Size: size, Meta: meta}
		if isUnion {
			f.Offset = 0
			if size > maxSize {
				maxSize = size
			}
		} else {
			f.Offset = offset
			offset += size
		}
		agg.Fields = append(agg.Fields, f)
	}

	if isUnion {
		agg.Size = maxSize
	} else {
		agg.Size = offset
	}
	a.res.Aggregates[c.Text] = agg
	return nil
}

// fieldArrayDims returns the constant-literal dimensions recorded as
// DeclSpec("dim") children, defaulting an unspecified bound to 1 (an
// incomplete array is only legal as the last trailing declarator and is
// sized by its initializer in HIR, not here).
func fieldArrayDims(field *ast.Node) []int {
	var dims []int
	for _, c := range field.Children {
		if c.Kind != ast.DeclSpec || c.Text != "dim" {
			continue
		}
		if len(c.Children) == 0 {
			dims = append(dims, 1)
			continue
		}
		dims = append(dims, literalIntOrOne(c.Children[0]))
	}
	return dims
}

func literalIntOrOne(n *ast.Node) int {
	v, ok := constFoldInt(n)
	if !ok || v <= 0 {
		return 1
	}
	return int(v)
}
