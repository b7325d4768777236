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
	"fmt"
	"strings"

	"github.com/holyc-tools/holycc/internal/ast"
	"github.com/holyc-tools/holycc/internal/types"
)

// conversion classifies one format-specifier's required argument type
// class.
type conversion int

const (
	classIntegral conversion = iota
	classUnsigned
	classChar
	classString
	classPointer
	classFloat
	classIndexTable // %z: (index int, table ptr)
)

var conversionClass = map[byte]conversion{
	'd': classIntegral, 'i': classIntegral,
	'u': classUnsigned, 'x': classUnsigned, 'X': classUnsigned, 'o': classUnsigned, 'b': classUnsigned,
	'c': classChar, 's': classString, 'p': classPointer, 'P': classPointer,
	'z': classIndexTable,
	'f': classFloat, 'F': classFloat, 'e': classFloat, 'E': classFloat, 'g': classFloat, 'G': classFloat,
}

const lengthModifiers = "hljtLq"

// analyzePrint validates the literal-format PrintStmt form and the dynamic-
// format-forwarding form.
func (a *analyzer) analyzePrint(scope *types.Scope, n *ast.Node) error {
	fmtLit := n.Child(0)
	rest := n.Children[1:]

	if fmtLit.Text == "\"\"" && len(rest) > 0 && rest[0].Kind != ast.EmptyArg {
		if _, err := a.typeOfExpr(scope, rest[0]); err != nil {
			return err
		}
		rest = rest[1:]
	}

	specs, err := parseFormatSpecs(fmtLit.Text)
	if err != nil {
		return a.errf(fmtLit, "HC3081", "%v", err)
	}

	argc := 0
	for _, spec := range specs {
		n := 1
		if spec == classIndexTable {
			n = 2
		}
		argc += n
	}
	if argc != len(rest) {
		return a.errf(n, "HC3081", "format expects %d argument(s), got %d", argc, len(rest))
	}

	i := 0
	for _, spec := range specs {
		if spec == classIndexTable {
			if err := a.checkFormatArg(scope, rest[i], classIntegral); err != nil {
				return err
			}
			if err := a.checkFormatArg(scope, rest[i+1], classPointer); err != nil {
				return err
			}
			i += 2
			continue
		}
		if err := a.checkFormatArg(scope, rest[i], spec); err != nil {
			return err
		}
		i++
	}
	return nil
}

func (a *analyzer) checkFormatArg(scope *types.Scope, arg *ast.Node, class conversion) error {
	if arg.Kind == ast.EmptyArg {
		return nil
	}
	t, err := a.typeOfExpr(scope, arg)
	if err != nil {
		return err
	}
	if t == types.Unknown {
		return nil
	}
	switch class {
	case classIntegral, classUnsigned, classChar:
		if !types.IsIntegralLike(t) {
			return a.errf(arg, "HC3082", "format specifier expects an integral argument, got %q", t)
		}
	case classString, classPointer:
		if !types.IsPointer(t) {
			return a.errf(arg, "HC3082", "format specifier expects a pointer argument, got %q", t)
		}
	case classFloat:
		if !types.IsNumeric(t) {
			return a.errf(arg, "HC3082", "format specifier expects a numeric argument, got %q", t)
		}
	}
	return nil
}

// parseFormatSpecs scans a quoted format literal's %-specifiers: flags,
// width (possibly '*'), precision ('.n' or '.*'), a length modifier, and a
// conversion character,
func parseFormatSpecs(quoted string) ([]conversion, error) {
	s := strings.TrimPrefix(strings.TrimSuffix(quoted, "\""), "\"")
	var specs []conversion
	i := 0
	for i < len(s) {
		if s[i] != '%' {
			i++
			continue
		}
		i++
		if i >= len(s) {
			return nil, errFmt("unterminated format specifier")
		}
		if s[i] == '%' {
			i++
			continue
		}
		for i < len(s) && strings.ContainsRune("-+ 0#", rune(s[i])) {
			i++
		}
		if i < len(s) && s[i] == '*' {
			i++
		} else {
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
		}
		if i < len(s) && s[i] == '.' {
			i++
			if i < len(s) && s[i] == '*' {
				i++
			} else {
				for i < len(s) && s[i] >= '0' && s[i] <= '9' {
					i++
				}
			}
		}
		for i < len(s) && strings.IndexByte(lengthModifiers, s[i]) >= 0 {
			i++
		}
		if i >= len(s) {
			return nil, errFmt("truncated format specifier")
		}
		class, ok := conversionClass[s[i]]
		if !ok {
			return nil, errFmt("unknown format conversion %q", string(s[i]))
		}
		specs = append(specs, class)
		i++
	}
	return specs, nil
}

func errFmt(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}
