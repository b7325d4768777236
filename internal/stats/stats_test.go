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

package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTrackRecordsPhaseAndPropagatesError(t *testing.T) {
	r := NewRecorder()
	wantErr := errors.New("boom")

	if err := r.Track("preprocess", func() error { return nil }); err != nil {
		t.Fatalf("Track(preprocess) = %v, want nil", err)
	}
	if err := r.Track("parse", func() error { return wantErr }); err != wantErr {
		t.Fatalf("Track(parse) = %v, want %v", err, wantErr)
	}

	phases := r.Phases()
	if len(phases) != 2 {
		t.Fatalf("len(Phases())=%d, want 2", len(phases))
	}
	if phases[0].Name != "preprocess" || phases[1].Name != "parse" {
		t.Errorf("Phases() order/names = %+v, want preprocess,parse", phases)
	}
	for _, p := range phases {
		if p.Seconds < 0 {
			t.Errorf("phase %q has negative duration %v", p.Name, p.Seconds)
		}
	}
}

func TestWriteTextFormat(t *testing.T) {
	r := NewRecorder()
	r.record("sema", 0)
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "sema") {
		t.Errorf("WriteText output %q missing phase name", buf.String())
	}
}

func TestWriteJSONShape(t *testing.T) {
	r := NewRecorder()
	r.record("lower", 0)
	r.record("irgen", 0)

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, "emit-llvm"); err != nil {
		t.Fatal(err)
	}

	var report Report
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v\nraw: %s", err, buf.String())
	}
	if report.Command != "emit-llvm" {
		t.Errorf("report.Command=%q, want emit-llvm", report.Command)
	}
	if len(report.Phases) != 2 || report.Phases[0].Name != "lower" || report.Phases[1].Name != "irgen" {
		t.Errorf("report.Phases=%+v, want [lower irgen]", report.Phases)
	}

	if !strings.Contains(buf.String(), `"name"`) || !strings.Contains(buf.String(), `"seconds"`) {
		t.Errorf("WriteJSON output missing lowercase field names: %s", buf.String())
	}
}

func TestPhasesSnapshotIsIndependent(t *testing.T) {
	r := NewRecorder()
	r.record("a", 0)
	snap := r.Phases()
	r.record("b", 0)
	if len(snap) != 1 {
		t.Errorf("earlier snapshot mutated: len=%d, want 1", len(snap))
	}
}
