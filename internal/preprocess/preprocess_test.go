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
	"testing"

	"github.com/holyc-tools/holycc/internal/diag"
)

func process(t *testing.T, opts Options, src string) string {
	t.Helper()
	out, err := New(opts).Process("<test>", []byte(src))
	if err != nil {
		t.Fatalf("Process(%q) = %v", src, err)
	}
	return out
}

func TestObjectLikeMacroExpansion(t *testing.T) {
	out := process(t, Options{}, "#define FOO 42\nI64 x = FOO;\n")
	if !strings.Contains(out, "I64 x = 42;") {
		t.Errorf("Process() = %q, want macro FOO expanded to 42", out)
	}
}

func TestFunctionLikeMacroExpansion(t *testing.T) {
	out := process(t, Options{}, "#define ADD(a, b) (a + b)\nI64 x = ADD(1, 2);\n")
	if !strings.Contains(out, "(1 + 2)") {
		t.Errorf("Process() = %q, want ADD(1, 2) expanded to (1 + 2)", out)
	}
}

func TestFunctionLikeMacroWrongArgCount(t *testing.T) {
	_, err := New(Options{}).Process("<test>", []byte("#define ADD(a, b) (a + b)\nI64 x = ADD(1);\n"))
	assertDiagCode(t, err, "HC1032")
}

func TestMacroSelfReferenceDoesNotRecurse(t *testing.T) {
	out := process(t, Options{}, "#define FOO FOO + 1\nI64 x = FOO;\n")
	if !strings.Contains(out, "FOO + 1") {
		t.Errorf("Process() = %q, want self-referencing macro left as FOO + 1", out)
	}
}

func TestIfDefinedSkipsInactiveBranch(t *testing.T) {
	out := process(t, Options{}, "#define FOO\n#ifdef FOO\nI64 a;\n#else\nI64 b;\n#endif\n")
	if !strings.Contains(out, "I64 a;") || strings.Contains(out, "I64 b;") {
		t.Errorf("Process() = %q, want only the #ifdef branch", out)
	}
}

func TestIfNDefTakesFirstBranchWhenUndefined(t *testing.T) {
	out := process(t, Options{}, "#ifndef UNSET\nI64 a;\n#else\nI64 b;\n#endif\n")
	if !strings.Contains(out, "I64 a;") || strings.Contains(out, "I64 b;") {
		t.Errorf("Process() = %q, want the #ifndef branch taken", out)
	}
}

func TestElifChain(t *testing.T) {
	out := process(t, Options{}, "#if 0\nI64 a;\n#elif 1\nI64 b;\n#else\nI64 c;\n#endif\n")
	if strings.Contains(out, "I64 a;") || !strings.Contains(out, "I64 b;") || strings.Contains(out, "I64 c;") {
		t.Errorf("Process() = %q, want only the #elif branch", out)
	}
}

func TestNestedConditionalRespectsParentInactive(t *testing.T) {
	out := process(t, Options{}, "#if 0\n#if 1\nI64 a;\n#endif\n#endif\n")
	if strings.Contains(out, "I64 a;") {
		t.Errorf("Process() = %q, want nested branch suppressed by inactive parent", out)
	}
}

func TestUnterminatedConditionalIsError(t *testing.T) {
	_, err := New(Options{}).Process("<test>", []byte("#if 1\nI64 a;\n"))
	assertDiagCode(t, err, "HC1002")
}

func TestElseWithoutIfIsError(t *testing.T) {
	_, err := New(Options{}).Process("<test>", []byte("#else\n"))
	assertDiagCode(t, err, "HC1003")
}

func TestIfJITAndIfAOTSelectByMode(t *testing.T) {
	out := process(t, Options{Mode: ModeJIT}, "#ifjit\nI64 a;\n#endif\n#ifaot\nI64 b;\n#endif\n")
	if !strings.Contains(out, "I64 a;") || strings.Contains(out, "I64 b;") {
		t.Errorf("Process() = %q, want only the #ifjit branch under ModeJIT", out)
	}
}

func TestAssertFailureIsError(t *testing.T) {
	_, err := New(Options{}).Process("<test>", []byte("#assert 0\n"))
	assertDiagCode(t, err, "HC1029")
}

func TestAssertSuccessProducesNoOutput(t *testing.T) {
	out := process(t, Options{}, "#assert 1\nI64 a;\n")
	if !strings.Contains(out, "I64 a;") {
		t.Errorf("Process() = %q, want surviving statement after a true #assert", out)
	}
	if strings.Contains(out, "#assert") {
		t.Errorf("Process() = %q, want the true #assert itself to produce no output", out)
	}
}

func TestBuiltinLineExpansion(t *testing.T) {
	out := process(t, Options{}, "I64 a;\nI64 b = __LINE__;\n")
	if !strings.Contains(out, "I64 b = 2;") {
		t.Errorf("Process() = %q, want __LINE__ expanded to 2", out)
	}
}

func TestBuiltinFileExpansion(t *testing.T) {
	out := process(t, Options{}, `I64 b = __FILE__;` + "\n")
	if !strings.Contains(out, `I64 b = "<test>";`) {
		t.Errorf("Process() = %q, want __FILE__ expanded to the quoted file name", out)
	}
}

func TestUnrecognizedDirectiveIsError(t *testing.T) {
	_, err := New(Options{}).Process("<test>", []byte("#bogus\n"))
	assertDiagCode(t, err, "HC1001")
}

func TestExeStreamPrintEmitsLiteral(t *testing.T) {
	out := process(t, Options{}, "#exe { StreamPrint(\"hello\"); }\n")
	if !strings.Contains(out, "hello") {
		t.Errorf("Process() = %q, want the #exe StreamPrint literal emitted", out)
	}
}

func TestExeIfElseChoosesBranch(t *testing.T) {
	out := process(t, Options{}, `#exe {
  if (1) { StreamPrint("yes"); } else { StreamPrint("no"); }
}
`)
	if !strings.Contains(out, "yes") || strings.Contains(out, "no") {
		t.Errorf("Process() = %q, want only the true #exe branch emitted", out)
	}
}

func TestExeUnsupportedCallIsError(t *testing.T) {
	_, err := New(Options{}).Process("<test>", []byte("#exe { Frobnicate(); }\n"))
	assertDiagCode(t, err, "HC1019")
}

func assertDiagCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want diagnostic %s", code)
	}
	d, ok := diag.AsDiagnostic(err)
	if !ok {
		t.Fatalf("error %v is not a diagnostic", err)
	}
	if d.Code != code {
		t.Errorf("diagnostic code = %q, want %q", d.Code, code)
	}
}
