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

package bufpool

import "testing"

func TestGetReturnsEmptyBuffer(t *testing.T) {
	b := Get()
	defer Put(b)
	if b.Len() != 0 || b.String() != "" {
		t.Errorf("Get() = %q (len %d), want empty", b.String(), b.Len())
	}
}

func TestWriteVariants(t *testing.T) {
	b := Get()
	defer Put(b)
	b.WriteString("abc")
	b.WriteByte('-')
	b.Write([]byte("def"))
	b.WriteRune('!')
	want := "abc-def!"
	if b.String() != want {
		t.Errorf("b.String() = %q, want %q", b.String(), want)
	}
	if b.Len() != len(want) {
		t.Errorf("b.Len() = %d, want %d", b.Len(), len(want))
	}
}

func TestResetReusesBuffer(t *testing.T) {
	b := Get()
	b.WriteString("hello")
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("after Reset, Len() = %d, want 0", b.Len())
	}
	b.WriteString("world")
	if b.String() != "world" {
		t.Errorf("b.String() = %q, want %q", b.String(), "world")
	}
	Put(b)
}

func TestPutThenGetRecyclesBuffer(t *testing.T) {
	b1 := Get()
	b1.WriteString("reuse me")
	Put(b1)

	b2 := Get()
	if b2.Len() != 0 {
		t.Errorf("recycled buffer not reset: Len() = %d", b2.Len())
	}
	Put(b2)
}

func TestPutDropsOversizedBuffer(t *testing.T) {
	b := Get()
	big := make([]byte, 8192)
	b.Write(big)
	if b.Len() <= 4096 {
		t.Fatalf("test setup failed to grow buffer past 4096 bytes, got %d", b.Len())
	}
	// Put should not panic and simply decline to pool an oversized buffer.
	Put(b)
}
