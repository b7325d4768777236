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
	"strings"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/types"
)

// analyzeAsm validates the functional asm(template, cstr, ...) form.
// The `asm { ... }` block form carries its body as raw
// target-assembly text and has no constraint/operand structure to check.
func (a *analyzer) analyzeAsm(scope *types.Scope, n *ast.Node) error {
	if len(n.Children) == 0 || n.Children[0].Kind != ast.DeclSpec || n.Children[0].Text != "call" {
		return nil
	}
	if len(n.Children) < 2 || n.Children[1].Kind != ast.Literal {
		return a.errf(n, "HC3101", "asm() requires a string-literal template as its first argument")
	}
	for _, arg := range n.Children[2:] {
		if arg.Kind != ast.AsmArg {
			continue
		}
		isOutputOrClobber := strings.HasPrefix(arg.Text, "=") || strings.HasPrefix(arg.Text, "~") || strings.HasPrefix(arg.Text, "{")
		if isOutputOrClobber {
			if len(arg.Children) > 0 {
				return a.errf(arg, "HC3102", "output/clobber constraint %q must not take an operand expression", arg.Text)
			}
			continue
		}
		if len(arg.Children) > 0 {
			if _, err := a.typeOfExpr(scope, arg.Child(0)); err != nil {
				return err
			}
		}
	}
	return nil
}
