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

// Package log is a thin wrapper over glog giving the toolchain its own
// verbosity switches (VerboseLog, StatsLog) independent of glog's -v.
// Both are plain package variables; no command-line flag sets them.
package log

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

var (
	mu         sync.Mutex
	VerboseLog bool
	StatsLog   bool
)

// Always prints unconditionally, with a fixed prefix.
func Always(f string, a ...interface{}) {
	var buf bytes.Buffer
	buf.WriteString("holycc: ")
	fmt.Fprintf(&buf, f, a...)
	buf.WriteByte('\n')
	mu.Lock()
	fmt.Print(buf.String())
	mu.Unlock()
}

// Stats prints only when VerboseLog or StatsLog is set.
func Stats(f string, a ...interface{}) {
	if !VerboseLog && !StatsLog {
		return
	}
	Always(f, a...)
}

// V prints only when VerboseLog is set.
func V(f string, a ...interface{}) {
	if !VerboseLog {
		return
	}
	Always(f, a...)
}

// Fatalf is reserved for unrecoverable library failures (verifier crash,
// target init failure), never for ordinary user/source errors.
func Fatalf(f string, a ...interface{}) {
	glog.Fatalf(f, a...)
}
