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

// Package preprocess implements the HolyC preprocessor: directives,
// conditionals, macros, and the #exe mini-evaluator, built around a
// conditional-AST/if-stack shape and a line-continuation reader.
package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/holyc-tools/holycc/internal/bufpool"
	"github.com/holyc-tools/holycc/internal/diag"
	"github.com/holyc-tools/holycc/internal/fsutil"
	"github.com/holyc-tools/holycc/internal/log"
)

// Mode selects which of #ifjit/#ifaot is taken.
type Mode int

const (
	ModeJIT Mode = iota
	ModeAOT
)

// Macro is an object-like or function-like #define.
type Macro struct {
	Params []string // nil for object-like macros
	Body   string
}

func (m Macro) functionLike() bool { return m.Params != nil }

// condFrame tracks one level of #if/#ifdef/#ifndef nesting.
type condFrame struct {
	parentActive bool
	branchTaken  bool
	active       bool
	inElse       bool
}

// Options configures a Preprocessor run.
type Options struct {
	IncludeRoots []string
	Mode         Mode
	CmdLine      string // deterministic placeholder for __CMD_LINE__
	Date         string // deterministic placeholder for __DATE__
	Time         string // deterministic placeholder for __TIME__
}

// Preprocessor expands directives/macros/#exe over HolyC source text.
type Preprocessor struct {
	opts      Options
	macros    map[string]Macro
	stack     []condFrame
	includes  []string // active include chain, for cycle detection
	expanding map[string]bool
	out       *bufpool.Buffer
}

// New creates a Preprocessor with the given options.
func New(opts Options) *Preprocessor {
	if opts.CmdLine == "" {
		opts.CmdLine = "holycc"
	}
	if opts.Date == "" {
		opts.Date = "Jan  1 1970"
	}
	if opts.Time == "" {
		opts.Time = "00:00:00"
	}
	return &Preprocessor{
		opts:      opts,
		macros:    make(map[string]Macro),
		expanding: make(map[string]bool),
	}
}

const maxIncludeDepth = 64

// Process expands file/src into plain HolyC text ready for the lexer.
func (p *Preprocessor) Process(file string, src []byte) (string, error) {
	p.out = bufpool.Get()
	defer bufpool.Put(p.out)
	if err := p.processFile(file, src); err != nil {
		return "", err
	}
	if len(p.stack) != 0 {
		return "", diag.New("HC1002", file, 0, 0, "unterminated conditional block (missing #endif)")
	}
	return p.out.String(), nil
}

func (p *Preprocessor) active() bool {
	if len(p.stack) == 0 {
		return true
	}
	return p.stack[len(p.stack)-1].active
}

func (p *Preprocessor) processFile(file string, src []byte) error {
	for _, inc := range p.includes {
		if inc == file {
			trace := append(append([]string{}, p.includes...), file)
			return diag.Newf("HC1023", file, 0, 0, strings.Join(trace, " -> "),
				"include cycle detected")
		}
	}
	if len(p.includes) >= maxIncludeDepth {
		return diag.New("HC1023", file, 0, 0, "include nesting exceeds maximum depth (%d)", maxIncludeDepth)
	}
	p.includes = append(p.includes, file)
	defer func() { p.includes = p.includes[:len(p.includes)-1] }()

	lines := splitLinesKeepNo(src)
	i := 0
	for i < len(lines) {
		lineno := i + 1
		line := lines[i]
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "#") {
			consumed, err := p.handleDirective(file, lineno, lines, i)
			if err != nil {
				return err
			}
			i = consumed
			continue
		}
		if p.active() {
			expanded, err := p.expandLine(file, lineno, line)
			if err != nil {
				return err
			}
			p.out.WriteString(expanded)
			p.out.WriteByte('\n')
		}
		i++
	}
	return nil
}

func splitLinesKeepNo(src []byte) []string {
	s := string(src)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// handleDirective dispatches a single directive line, returning the index
// of the next unconsumed line (directives like #exe and #define may span
// multiple source lines).
func (p *Preprocessor) handleDirective(file string, lineno int, lines []string, i int) (int, error) {
	line := strings.TrimSpace(lines[i])
	body := strings.TrimPrefix(line, "#")
	word, rest := firstWord(body)

	switch word {
	case "include":
		if !p.active() {
			return i + 1, nil
		}
		return i + 1, p.doInclude(file, lineno, rest)
	case "define":
		if !p.active() {
			return i + 1, nil
		}
		return p.doDefine(file, lineno, lines, i)
	case "if":
		v, err := p.evalIfExpr(file, lineno, rest)
		if err != nil {
			return i, err
		}
		p.pushCond(v != 0)
		return i + 1, nil
	case "ifdef":
		_, ok := p.macros[strings.TrimSpace(rest)]
		p.pushCond(ok)
		return i + 1, nil
	case "ifndef":
		_, ok := p.macros[strings.TrimSpace(rest)]
		p.pushCond(!ok)
		return i + 1, nil
	case "ifjit":
		p.pushCond(p.opts.Mode == ModeJIT)
		return i + 1, nil
	case "ifaot":
		p.pushCond(p.opts.Mode == ModeAOT)
		return i + 1, nil
	case "elif":
		if err := p.doElif(file, lineno, rest); err != nil {
			return i, err
		}
		return i + 1, nil
	case "else":
		if err := p.doElse(file, lineno); err != nil {
			return i, err
		}
		return i + 1, nil
	case "endif":
		if err := p.doEndif(file, lineno); err != nil {
			return i, err
		}
		return i + 1, nil
	case "assert":
		if !p.active() {
			return i + 1, nil
		}
		v, err := p.evalIfExpr(file, lineno, rest)
		if err != nil {
			return i, err
		}
		if v == 0 {
			return i, diag.New("HC1029", file, lineno, 0, "#assert failed: %s", rest)
		}
		return i + 1, nil
	case "exe":
		return p.doExe(file, lineno, lines, i)
	default:
		return i, diag.New("HC1001", file, lineno, 0, "unrecognized preprocessor directive %q", word)
	}
}

func (p *Preprocessor) pushCond(cond bool) {
	parentActive := p.active()
	p.stack = append(p.stack, condFrame{
		parentActive: parentActive,
		branchTaken:  cond && parentActive,
		active:       cond && parentActive,
	})
}

func (p *Preprocessor) doElif(file string, lineno int, rest string) error {
	if len(p.stack) == 0 {
		return diag.New("HC1003", file, lineno, 0, "#elif without matching #if")
	}
	top := &p.stack[len(p.stack)-1]
	if top.inElse {
		return diag.New("HC1003", file, lineno, 0, "#elif after #else")
	}
	if top.branchTaken || !top.parentActive {
		top.active = false
		return nil
	}
	v, err := p.evalIfExpr(file, lineno, rest)
	if err != nil {
		return err
	}
	top.active = v != 0
	top.branchTaken = top.active
	return nil
}

func (p *Preprocessor) doElse(file string, lineno int) error {
	if len(p.stack) == 0 {
		return diag.New("HC1003", file, lineno, 0, "#else without matching #if")
	}
	top := &p.stack[len(p.stack)-1]
	if top.inElse {
		return diag.New("HC1003", file, lineno, 0, "duplicate #else")
	}
	top.inElse = true
	top.active = top.parentActive && !top.branchTaken
	top.branchTaken = true
	return nil
}

func (p *Preprocessor) doEndif(file string, lineno int) error {
	if len(p.stack) == 0 {
		return diag.New("HC1003", file, lineno, 0, "#endif without matching #if")
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func firstWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && s[i] != ' ' && s[i] != '\t' {
		i++
	}
	word = s[:i]
	rest = strings.TrimLeft(s[i:], " \t")
	return word, rest
}

func (p *Preprocessor) doInclude(file string, lineno int, rest string) error {
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return diag.New("HC1011", file, lineno, 0, "malformed #include directive, expected \"path\"")
	}
	path := rest[1 : len(rest)-1]
	resolved, data, err := p.resolveInclude(file, path)
	if err != nil {
		return diag.New("HC1012", file, lineno, 0, "cannot find include file %q: %v", path, err)
	}
	log.V("include %s -> %s", path, resolved)
	return p.processFile(resolved, data)
}

func (p *Preprocessor) resolveInclude(fromFile, path string) (string, []byte, error) {
	resolved, ok := fsutil.ResolveInclude(filepath.Dir(fromFile), path, p.opts.IncludeRoots)
	if !ok {
		return "", nil, fmt.Errorf("not found in %s or %d include root(s)", filepath.Dir(fromFile), len(p.opts.IncludeRoots))
	}
	data, err := readFile(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, data, nil
}

// readFile is overridable for testing.
var readFile = os.ReadFile

func (p *Preprocessor) doDefine(file string, lineno int, lines []string, i int) (int, error) {
	rest := strings.TrimLeft(strings.TrimPrefix(strings.TrimSpace(lines[i]), "#define"), " \t")
	n := 0
	for n < len(rest) && isIdentCont(rest[n]) {
		n++
	}
	name := rest[:n]
	rest = rest[n:]
	if !strings.HasPrefix(rest, "(") {
		rest = strings.TrimLeft(rest, " \t")
	}
	if name == "" {
		return i, diag.New("HC1031", file, lineno, 0, "#define missing macro name")
	}
	var params []string
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return i, diag.New("HC1031", file, lineno, 0, "unterminated macro parameter list")
		}
		plist := rest[1:end]
		if strings.TrimSpace(plist) != "" {
			for _, pn := range strings.Split(plist, ",") {
				params = append(params, strings.TrimSpace(pn))
			}
		} else {
			params = []string{}
		}
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}
	body, next := p.readContinuedBody(rest, lines, i)
	p.macros[name] = Macro{Params: params, Body: body}
	return next, nil
}

// readContinuedBody joins backslash-continued physical lines into one
// logical macro body.
func (p *Preprocessor) readContinuedBody(first string, lines []string, i int) (string, int) {
	var b strings.Builder
	b.WriteString(strings.TrimRight(first, "\\"))
	j := i
	cur := first
	for strings.HasSuffix(strings.TrimRight(cur, " \t"), "\\") && j+1 < len(lines) {
		j++
		cur = lines[j]
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(cur, "\\"))
	}
	return b.String(), j + 1
}

// expandLine expands __FILE__/__DIR__/__LINE__/__DATE__/__TIME__/
// __CMD_LINE__ and user macros on one logical source line.
func (p *Preprocessor) expandLine(file string, lineno int, line string) (string, error) {
	line = p.expandBuiltins(file, lineno, line)
	return p.expandMacros(file, lineno, line, nil)
}

func (p *Preprocessor) expandBuiltins(file string, lineno int, line string) string {
	r := strings.NewReplacer(
		"__FILE__", strconvQuote(file),
		"__DIR__", strconvQuote(filepath.Dir(file)),
		"__LINE__", itoa(lineno),
		"__DATE__", strconvQuote(p.opts.Date),
		"__TIME__", strconvQuote(p.opts.Time),
		"__CMD_LINE__", strconvQuote(p.opts.CmdLine),
	)
	return r.Replace(line)
}

func strconvQuote(s string) string { return "\"" + s + "\"" }

func itoa(v int) string { return fmt.Sprintf("%d", v) }
