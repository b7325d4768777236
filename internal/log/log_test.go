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

package log

import (
	"io"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = orig
	out, _ := io.ReadAll(r)
	return string(out)
}

func TestAlwaysPrintsWithPrefix(t *testing.T) {
	out := capture(t, func() { Always("building %s", "foo.hc") })
	if !strings.Contains(out, "holycc: building foo.hc") {
		t.Errorf("Always() output = %q, want holycc-prefixed message", out)
	}
}

func TestVGatedByVerboseLog(t *testing.T) {
	VerboseLog = false
	out := capture(t, func() { V("should not print") })
	if out != "" {
		t.Errorf("V() printed %q while VerboseLog=false, want nothing", out)
	}

	VerboseLog = true
	defer func() { VerboseLog = false }()
	out = capture(t, func() { V("should print") })
	if !strings.Contains(out, "should print") {
		t.Errorf("V() output = %q, want message with VerboseLog=true", out)
	}
}

func TestStatsGatedByEitherFlag(t *testing.T) {
	VerboseLog, StatsLog = false, false
	out := capture(t, func() { Stats("phase took 1s") })
	if out != "" {
		t.Errorf("Stats() printed %q with both flags false, want nothing", out)
	}

	StatsLog = true
	defer func() { StatsLog = false }()
	out = capture(t, func() { Stats("phase took 1s") })
	if !strings.Contains(out, "phase took 1s") {
		t.Errorf("Stats() output = %q, want message with StatsLog=true", out)
	}
}
