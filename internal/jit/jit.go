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

// Package jit manages a single process's multiple LLJIT-style execution
// sessions: each session owns a layered stack of module
// dylibs plus a fixed runtime symbol set, and tracks outstanding
// detached-task quiescence via a WaitGroup that drains once every
// HolyC Spawn()ed task completes.
package jit

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"
)

// hostAllowlist is the small set of host symbols HostSymbolAllowed
// accepts. Session engines do not consult it: no host-symbol generator
// is installed, so symbols resolve only through the engine's own lookup.
var hostAllowlist = map[string]bool{
	"_setjmp":    true,
	"setjmp":     true,
	"__sigsetjmp": true,
}

// Manager owns every live Session, keyed by both a monotonic id and an
// optional caller-chosen name so the jit/repl subcommands can reattach to
// the same session across invocations of `--jit-session NAME`.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	named    map[string]*Session
	nextID   int64
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		named:    make(map[string]*Session),
	}
}

// Session is one LLJIT-style execution environment: a stack of layered
// module dylibs (newest shadows oldest) sitting atop one runtime dylib.
// Because the module set changes on every Load, jit is rebuilt from
// scratch each time rather than grown in place — see rebuildEngine.
type Session struct {
	id         int64
	name       string
	mgr        *Manager
	jit        llvm.ExecutionEngine
	hasEngine  bool
	closed     bool
	ctx        llvm.Context
	runtimeIR  string
	moduleIR   []string // verified load text, oldest first
	entryN     int64

	tasks sync.WaitGroup
	live  int64 // count of outstanding Spawn()ed tasks, for diagnostics
}

// New creates a session: a fresh JIT handle over just the runtime dylib,
// populated with the fixed runtime symbol set. No host-symbol generator
// is attached, so hostAllowlist plays no part in symbol resolution.
func (m *Manager) New(runtimeIR string) (*Session, error) {
	s := &Session{mgr: m, ctx: llvm.NewContext(), runtimeIR: runtimeIR}
	if err := s.rebuildEngine(); err != nil {
		s.ctx.Dispose()
		return nil, err
	}

	m.mu.Lock()
	s.id = m.nextID
	m.nextID++
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

// GetOrCreate returns the named session if one is already live, or else
// creates and registers one under that name. Subsequent calls with the
// same name reuse the session, so a `jit`/`repl` invocation that passes
// the same --jit-session value keeps building on the prior declarations
// and module loads instead of starting a fresh engine each time.
func (m *Manager) GetOrCreate(name, runtimeIR string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.named[name]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s, err := m.New(runtimeIR)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	s.name = name
	m.named[name] = s
	m.mu.Unlock()
	return s, nil
}

// rebuildEngine disposes the session's current engine (if any) and
// constructs a fresh one over the runtime module plus every accumulated
// load, added newest first. MCJIT-family engines resolve a multiply
// defined global to whichever module supplied it first among those added
// to one engine, so feeding modules in newest-to-oldest order is what
// makes a later Load's redefinition of a symbol shadow an earlier one,
// matching the "newest module shadows older" contract Load documents.
func (s *Session) rebuildEngine() error {
	runtimeBuf, err := llvm.NewMemoryBufferFromNodeContent(s.runtimeIR, "holyc-runtime")
	if err != nil {
		return errors.Wrap(err, "creating runtime IR buffer")
	}
	runtimeMod, err := s.ctx.ParseIR(runtimeBuf)
	if err != nil {
		return errors.Wrap(err, "parsing runtime IR")
	}
	engine, err := llvm.NewExecutionEngine(runtimeMod)
	if err != nil {
		return errors.Wrap(err, "creating execution engine")
	}

	for i := len(s.moduleIR) - 1; i >= 0; i-- {
		buf, err := llvm.NewMemoryBufferFromNodeContent(s.moduleIR[i], "holyc-cell")
		if err != nil {
			engine.Dispose()
			return errors.Wrap(err, "creating IR buffer")
		}
		mod, err := s.ctx.ParseIR(buf)
		if err != nil {
			engine.Dispose()
			return errors.Wrap(err, "parsing IR")
		}
		if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
			engine.Dispose()
			return errors.Wrap(err, "module verification failed")
		}
		if err := engine.AddModule(mod); err != nil {
			engine.Dispose()
			return errors.Wrap(err, "adding module to execution engine")
		}
	}

	if s.hasEngine {
		s.jit.Dispose()
	}
	s.jit = engine
	s.hasEngine = true
	return nil
}

// Load parses and verifies irText, appends it as the newest layer, and
// rebuilds the session's execution engine so the new module shadows
// every earlier one for any symbol it redefines.
func (s *Session) Load(irText string) error {
	buf, err := llvm.NewMemoryBufferFromNodeContent(irText, "holyc-cell")
	if err != nil {
		return errors.Wrap(err, "creating IR buffer")
	}
	mod, err := s.ctx.ParseIR(buf)
	if err != nil {
		return errors.Wrap(err, "parsing IR")
	}
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		return errors.Wrap(err, "module verification failed")
	}
	mod.Dispose()

	s.moduleIR = append(s.moduleIR, irText)
	if err := s.rebuildEngine(); err != nil {
		s.moduleIR = s.moduleIR[:len(s.moduleIR)-1]
		return err
	}
	return nil
}

// Execute is Load plus invoking entrySymbol: the emitter renames the
// user's entry function to __holyc_entry_target_<N> and synthesizes
// __holyc_entry_<N>() with a minimal argc=1/argv={"holyc-jit", nil} call
// site; Execute looks that synthesized entry up in the rebuilt engine
// (which resolves it against the just-loaded, newest module), runs it,
// waits for detached tasks, and optionally resets.
func (s *Session) Execute(irText, entrySymbol string, resetAfterRun bool) (int32, error) {
	if err := s.Load(irText); err != nil {
		return 0, err
	}
	fn := s.jit.FindFunction(entrySymbol)
	if fn.IsNil() {
		return 0, fmt.Errorf("entry symbol %q not found after load", entrySymbol)
	}
	result := s.jit.RunFunction(fn, nil)
	s.Wait()

	rc := int32(result.Int(false))
	if resetAfterRun {
		s.Reset()
	}
	return rc, nil
}

// BeginTask registers one outstanding Spawn()ed task; the runtime
// collaborator calls this before handing work to a goroutine and EndTask
// when that goroutine returns.
func (s *Session) BeginTask() {
	atomic.AddInt64(&s.live, 1)
	s.tasks.Add(1)
}

// EndTask marks one Spawn()ed task complete.
func (s *Session) EndTask() {
	atomic.AddInt64(&s.live, -1)
	s.tasks.Done()
}

// Wait blocks until every registered task has called EndTask.
func (s *Session) Wait() { s.tasks.Wait() }

// Reset waits for detached tasks, then discards the session's engine and
// context and drops it from its Manager (by id and by name). The session
// is not usable afterward. Both Manager.Remove and Execute's
// resetAfterRun call this to tear a session down for good, and both may
// race to do so, so a second call is a no-op.
func (s *Session) Reset() {
	s.Wait()
	if s.closed {
		return
	}
	s.closed = true
	if s.hasEngine {
		s.jit.Dispose()
		s.hasEngine = false
	}
	s.ctx.Dispose()
	if s.mgr != nil {
		s.mgr.forget(s)
	}
}

// forget removes s from both of the manager's indexes without tearing
// down its engine; callers that already hold s are expected to have torn
// it down themselves (or to be in the middle of doing so).
func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.id] == s {
		delete(m.sessions, s.id)
	}
	if s.name != "" && m.named[s.name] == s {
		delete(m.named, s.name)
	}
}

// HardReset discards the session's engine, context, and every loaded
// module, then rebuilds a fresh runtime-only engine in a new context —
// as if the session had just been created, but under the same id/name.
// This is the catastrophic reset a REPL's :reset command and
// --jit-reset (outside of a one-shot Execute) need: the session keeps
// working, but every prior Load is forgotten.
func (s *Session) HardReset() error {
	s.Wait()
	if s.hasEngine {
		s.jit.Dispose()
		s.hasEngine = false
	}
	s.ctx.Dispose()
	s.ctx = llvm.NewContext()
	s.moduleIR = nil
	return s.rebuildEngine()
}

// LiveTasks reports the current outstanding-task count, for diagnostics.
func (s *Session) LiveTasks() int64 { return atomic.LoadInt64(&s.live) }

// Remove discards a session by id. Reset itself deregisters the session
// (by id and by name) once torn down, so this must not hold m.mu while
// calling it.
func (m *Manager) Remove(id int64) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.Reset()
	}
}

// Get returns a previously created session.
func (m *Manager) Get(id int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// ID returns the session's manager-assigned id.
func (s *Session) ID() int64 { return s.id }

// Name returns the session's registered name, or "" if it was created via
// New rather than GetOrCreate.
func (s *Session) Name() string { return s.name }

// HostSymbolAllowed reports whether name may resolve through the host
// process rather than a declared runtime symbol.
func HostSymbolAllowed(name string) bool { return hostAllowlist[name] }
