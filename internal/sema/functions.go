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

// collectFunctions walks top-level FunctionDecls, validating that repeated
// declarations of a name agree in signature and that import-linkage
// functions have no body, and registers each signature. A second body for
// the same signature is not rejected; the later one is registered.
func (a *analyzer) collectFunctions(prog *ast.Node) error {
	for _, n := range prog.Children {
		if n.Kind != ast.FunctionDecl {
			continue
		}
		if err := a.checkModifiers(n); err != nil {
			return err
		}
		hasBody := len(n.Children) > 0 && n.Children[len(n.Children)-1].Kind == ast.Block
		isImport := hasModifier(n, "import")
		if isImport && hasBody {
			return a.errf(n, "HC3004", "function %q has 'import' linkage but also a body", n.Text)
		}

		if existing, ok := a.res.Functions[n.Text]; ok {
			if !signaturesMatch(existing, buildSignature(n)) {
				return a.errf(n, "HC3003", "conflicting signature for function %q", n.Text)
			}
			if hasBody {
				// A later definition refines a prior declaration-only entry.
				a.res.Functions[n.Text] = buildSignature(n)
			}
			continue
		}
		a.res.Functions[n.Text] = buildSignature(n)
	}
	return nil
}

func hasModifier(n *ast.Node, mod string) bool {
	for _, c := range n.Children {
		if c.Kind == ast.DeclSpec && c.Text == mod {
			return true
		}
	}
	return false
}

func buildSignature(fn *ast.Node) *types.Signature {
	ret := fn.Child(0).Text
	paramList := fn.Child(1)
	sig := &types.Signature{Return: ret}
	for _, p := range paramList.Children {
		sig.Params = append(sig.Params, p.Child(0).Text)
		hasDefault := len(p.Children) > 1 && p.Children[1].Kind == ast.Default
		sig.Defaults = append(sig.Defaults, hasDefault)
	}
	return sig
}

func signaturesMatch(a, b *types.Signature) bool {
	if a.Return != b.Return || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}
