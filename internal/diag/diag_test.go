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

package diag

import (
	"strings"
	"testing"
)

func TestFormatIncludesCodeFileLineMessage(t *testing.T) {
	d := New("HC1001", "foo.hc", 3, 7, "unexpected token %q", ";")
	got := d.Format()
	for _, want := range []string{"error", "HC1001", "foo.hc", "3", "7", `unexpected token ";"`} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() = %q, missing %q", got, want)
		}
	}
}

func TestNewfAttachesRemediation(t *testing.T) {
	d := Newf("HC1002", "foo.hc", 1, 1, "add a matching #endif", "unterminated conditional")
	if d.Remediation != "add a matching #endif" {
		t.Errorf("Remediation = %q, want %q", d.Remediation, "add a matching #endif")
	}
	if !strings.Contains(d.Format(), "help: add a matching #endif") {
		t.Errorf("Format() = %q, missing help text", d.Format())
	}
}

func TestErrorMatchesFormat(t *testing.T) {
	d := New("HC1001", "foo.hc", 1, 1, "bad")
	if d.Error() != d.Format() {
		t.Errorf("Error() = %q, Format() = %q, want equal", d.Error(), d.Format())
	}
}

func TestAsDiagnosticDirect(t *testing.T) {
	d := New("HC1001", "foo.hc", 1, 1, "bad")
	var err error = d
	got, ok := AsDiagnostic(err)
	if !ok || got.Code != "HC1001" {
		t.Errorf("AsDiagnostic(direct) = %+v, %v, want HC1001 true", got, ok)
	}
}

func TestAsDiagnosticUnwrapsWrap(t *testing.T) {
	d := New("HC1002", "foo.hc", 1, 1, "bad")
	wrapped := d.Wrap()
	got, ok := AsDiagnostic(wrapped)
	if !ok || got.Code != "HC1002" {
		t.Errorf("AsDiagnostic(wrapped) = %+v, %v, want HC1002 true", got, ok)
	}
}

func TestAsDiagnosticRejectsPlainError(t *testing.T) {
	_, ok := AsDiagnostic(plainError{msg: "plain"})
	if ok {
		t.Error("AsDiagnostic(plain error) = true, want false")
	}
}

func TestAsDiagnosticNilError(t *testing.T) {
	_, ok := AsDiagnostic(nil)
	if ok {
		t.Error("AsDiagnostic(nil) = true, want false")
	}
}

func TestBundleTracksFatalAndWarnings(t *testing.T) {
	var b Bundle
	b.Warnf("foo.hc", 1, 1, "HC3001", "unused variable %q", "x")
	b.Add(New("HC1001", "foo.hc", 2, 1, "fatal problem"))

	if !b.HasFatal() {
		t.Error("HasFatal() = false, want true")
	}
	if len(b.Errs()) != 1 || b.Errs()[0].Code != "HC1001" {
		t.Errorf("Errs() = %+v, want one HC1001", b.Errs())
	}
	if len(b.All()) != 2 {
		t.Errorf("All() = %+v, want 2 entries", b.All())
	}
	if b.All()[0].Severity != Warning {
		t.Errorf("All()[0].Severity = %v, want Warning", b.All()[0].Severity)
	}
}

func TestBundleNoFatalWhenOnlyWarnings(t *testing.T) {
	var b Bundle
	b.Warnf("foo.hc", 1, 1, "HC3001", "unused variable %q", "x")
	if b.HasFatal() {
		t.Error("HasFatal() = true, want false with only warnings recorded")
	}
}

type plainError struct{ msg string }

func (e plainError) Error() string { return e.msg }
