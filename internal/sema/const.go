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
	"strconv"
	"strings"

	"github.com/holyc-tools/holycc/internal/ast"
)

// constFoldInt evaluates a literal/unary/binary/cast/comma integer constant
// expression, used for array-dimension resolution, literal lane-index range
// checks, and the small-constant shift test. It intentionally
// only handles the shapes that show up in practice; anything else reports
// not-ok rather than guessing.
func constFoldInt(n *ast.Node) (int64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.Kind {
	case ast.Literal:
		return parseIntLiteral(n.Text)
	case ast.CommaExpr:
		if len(n.Children) == 0 {
			return 0, false
		}
		return constFoldInt(n.Children[len(n.Children)-1])
	case ast.CastExpr:
		return constFoldInt(n.Child(0))
	case ast.UnaryExpr:
		v, ok := constFoldInt(n.Child(0))
		if !ok {
			return 0, false
		}
		switch n.Text {
		case "-":
			return -v, true
		case "+":
			return v, true
		case "~":
			return ^v, true
		case "!":
			if v == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case ast.BinaryExpr:
		l, ok1 := constFoldInt(n.Child(0))
		r, ok2 := constFoldInt(n.Child(1))
		if !ok1 || !ok2 {
			return 0, false
		}
		switch n.Text {
		case "+":
			return l + r, true
		case "-":
			return l - r, true
		case "*":
			return l * r, true
		case "/":
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case "%":
			if r == 0 {
				return 0, false
			}
			return l % r, true
		case "<<":
			return l << uint(r), true
		case ">>":
			return l >> uint(r), true
		case "&":
			return l & r, true
		case "|":
			return l | r, true
		case "^":
			return l ^ r, true
		}
	}
	return 0, false
}

func parseIntLiteral(text string) (int64, bool) {
	t := strings.ReplaceAll(text, "_", "")
	t = strings.TrimRight(t, "uUlL")
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		v, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		return int64(v), true
	}
	if strings.Contains(t, ".") {
		return 0, false
	}
	v, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isConstExpr reports whether n is a compile-time constant: literals and
// constant-folded unary/binary/cast/comma expressions of the same.
func isConstExpr(n *ast.Node) bool {
	switch n.Kind {
	case ast.Literal:
		return true
	case ast.UnaryExpr, ast.CastExpr:
		return isConstExpr(n.Child(0))
	case ast.CommaExpr:
		for _, c := range n.Children {
			if !isConstExpr(c) {
				return false
			}
		}
		return len(n.Children) > 0
	case ast.BinaryExpr:
		return isConstExpr(n.Child(0)) && isConstExpr(n.Child(1))
	}
	return false
}
