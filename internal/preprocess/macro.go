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

package preprocess

import (
	"strings"

	"github.com/holyc-tools/holycc/internal/diag"
)

// expandMacros scans line for identifiers naming a macro and expands them,
// re-scanning the result until no further expansion is possible. `active`
// tracks macros currently being expanded on this call chain so a macro body
// referencing itself (directly or transitively) is left alone instead of
// recursing forever.
func (p *Preprocessor) expandMacros(file string, lineno int, line string, active map[string]bool) (string, error) {
	if active == nil {
		active = map[string]bool{}
	}
	var out strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '"' {
			j := scanStringLiteral(line, i)
			out.WriteString(line[i:j])
			i = j
			continue
		}
		if !isIdentStart(c) {
			out.WriteByte(c)
			i++
			continue
		}
		j := i
		for j < len(line) && isIdentCont(line[j]) {
			j++
		}
		name := line[i:j]
		m, ok := p.macros[name]
		if !ok || active[name] {
			out.WriteString(name)
			i = j
			continue
		}
		k := j
		var args []string
		if m.functionLike() {
			for k < len(line) && (line[k] == ' ' || line[k] == '\t') {
				k++
			}
			if k >= len(line) || line[k] != '(' {
				// A function-like macro used without arguments expands
				// literally, matching how the name is treated elsewhere.
				out.WriteString(name)
				i = j
				continue
			}
			var end int
			args, end = splitMacroArgs(line, k)
			if end < 0 {
				return "", diag.New("HC1032", file, lineno, 0, "unterminated macro invocation %q", name)
			}
			if len(args) != len(m.Params) {
				return "", diag.New("HC1032", file, lineno, 0,
					"macro %q expects %d argument(s), got %d", name, len(m.Params), len(args))
			}
			k = end
		}
		expanded := m.Body
		for pi, pn := range m.Params {
			expanded = substituteParam(expanded, pn, args[pi])
		}
		active[name] = true
		reexpanded, err := p.expandMacros(file, lineno, expanded, active)
		delete(active, name)
		if err != nil {
			return "", err
		}
		out.WriteString(reexpanded)
		i = k
	}
	return out.String(), nil
}

func scanStringLiteral(s string, i int) int {
	j := i + 1
	for j < len(s) {
		if s[j] == '\\' && j+1 < len(s) {
			j += 2
			continue
		}
		if s[j] == '"' {
			return j + 1
		}
		j++
	}
	return j
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// splitMacroArgs splits a balanced-paren argument list starting at '(' in
// s[open], returning the argument texts and the index just past the
// matching ')'. Returns end == -1 if the list never closes.
func splitMacroArgs(s string, open int) ([]string, int) {
	depth := 0
	var args []string
	start := open + 1
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				return normalizeEmptyArgs(args), i + 1
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return nil, -1
}

func normalizeEmptyArgs(args []string) []string {
	if len(args) == 1 && args[0] == "" {
		return []string{}
	}
	return args
}

// substituteParam replaces whole-word occurrences of param in body with arg.
func substituteParam(body, param, arg string) string {
	var out strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if !isIdentStart(c) {
			out.WriteByte(c)
			i++
			continue
		}
		j := i
		for j < len(body) && isIdentCont(body[j]) {
			j++
		}
		word := body[i:j]
		if word == param {
			out.WriteString(arg)
		} else {
			out.WriteString(word)
		}
		i = j
	}
	return out.String()
}
