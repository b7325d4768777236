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

// Package diag implements the uniform diagnostic record and formatter
// shared by every compiler phase.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is the uniform error/warning/note record produced by every
// phase: preprocessor, lexer, parser, semantic analyzer, lowerer.
type Diagnostic struct {
	Code        string
	Severity    Severity
	File        string
	Line        int
	Column      int
	Message     string
	Remediation string
}

// Format renders "<severity>[<code>]: <file>:<line>:<col>: <msg>\nhelp: <remediation?>".
func (d Diagnostic) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s:%d:%d: %s", d.Severity, d.Code, d.File, d.Line, d.Column, d.Message)
	if d.Remediation != "" {
		fmt.Fprintf(&b, "\nhelp: %s", d.Remediation)
	}
	return b.String()
}

func (d Diagnostic) Error() string { return d.Format() }

// Wrap attaches d as the cause of an error, preserving phase context added
// by the caller via errors.Wrap.
func (d Diagnostic) Wrap() error {
	return errors.WithStack(d)
}

// AsDiagnostic recovers a Diagnostic from any error produced by this
// package's phases, unwrapping pkg/errors wrapping along the way.
func AsDiagnostic(err error) (Diagnostic, bool) {
	var d Diagnostic
	if err == nil {
		return d, false
	}
	type causer interface{ Cause() error }
	for {
		if dd, ok := err.(Diagnostic); ok {
			return dd, true
		}
		c, ok := err.(causer)
		if !ok {
			return d, false
		}
		err = c.Cause()
	}
}

// Bundle accumulates diagnostics across a whole phase run instead of
// halting on the first warning, so `check` can report every warning from
// one pass while still surfacing the first fatal error.
type Bundle struct {
	items []Diagnostic
}

// Add appends a diagnostic to the bundle.
func (b *Bundle) Add(d Diagnostic) { b.items = append(b.items, d) }

// Warnf records a warning without halting the phase.
func (b *Bundle) Warnf(file string, line, col int, code, format string, a ...interface{}) {
	b.Add(Diagnostic{
		Code: code, Severity: Warning, File: file, Line: line, Column: col,
		Message: fmt.Sprintf(format, a...),
	})
}

// Errs returns every fatal diagnostic recorded so far.
func (b *Bundle) Errs() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// HasFatal reports whether any Error-severity diagnostic was recorded.
func (b *Bundle) HasFatal() bool { return len(b.Errs()) > 0 }

// All returns every diagnostic recorded, in recording order.
func (b *Bundle) All() []Diagnostic { return b.items }

// New constructs a fatal Diagnostic, the common case at phase boundaries.
func New(code, file string, line, col int, format string, a ...interface{}) Diagnostic {
	return Diagnostic{
		Code: code, Severity: Error, File: file, Line: line, Column: col,
		Message: fmt.Sprintf(format, a...),
	}
}

// Newf is New with a remediation hint attached.
func Newf(code, file string, line, col int, remediation, format string, a ...interface{}) Diagnostic {
	d := New(code, file, line, col, format, a...)
	d.Remediation = remediation
	return d
}
