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

// Package stats records per-phase wall-clock timings for --time-phases /
// --time-phases-json. The recorder (a mutex-guarded start time plus an
// accumulated event list) accumulates phase records in memory and
// serializes them on demand to a {command, phases:[{name,seconds}]}
// report.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Phase is one recorded phase's timing.
type Phase struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

// Recorder accumulates phase timings across one compiler invocation.
type Recorder struct {
	mu     sync.Mutex
	phases []Phase
	start  time.Time
}

// NewRecorder creates an idle recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Track times fn and records it under name.
func (r *Recorder) Track(name string, fn func() error) error {
	t0 := time.Now()
	err := fn()
	r.record(name, time.Since(t0))
	return err
}

func (r *Recorder) record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, Phase{Name: name, Seconds: d.Seconds()})
}

// Phases returns a snapshot of every recorded phase, in recording order.
func (r *Recorder) Phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.phases))
	copy(out, r.phases)
	return out
}

// Report is the --time-phases-json document shape.
type Report struct {
	Command string  `json:"command"`
	Phases  []Phase `json:"phases"`
}

// WriteText writes a human-readable phase timing table.
func (r *Recorder) WriteText(w io.Writer) error {
	for _, p := range r.Phases() {
		if _, err := fmt.Fprintf(w, "%-20s %8.3fs\n", p.Name, p.Seconds); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the {command, phases} report.
func (r *Recorder) WriteJSON(w io.Writer, command string) error {
	report := Report{Command: command, Phases: r.Phases()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
