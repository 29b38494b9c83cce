// Package sandbox runs untrusted Lua script text under a hard instruction
// count and memory ceiling, returning either a stringified result or a
// classified error. It never lets a script-side failure escape as an
// uncaught Go panic.
package sandbox

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Status classifies the outcome of an evaluation.
type Status int

const (
	StatusSuccess Status = iota
	StatusCompileError
	StatusRuntimeError
	StatusLimitExceeded
)

// LimitKind names which ceiling was hit when Status is StatusLimitExceeded.
type LimitKind int

const (
	LimitInstructions LimitKind = iota
	LimitMemory
)

// Result is the outcome of one Eval call.
type Result struct {
	Status Status
	Text   string // stringified value on success; message otherwise
	Limit  LimitKind

	// InstructionsLeft is valid only when Status == StatusSuccess.
	InstructionsLeft int64
}

// approxBytesPerRegistrySlot converts the configured byte ceiling into a
// gopher-lua registry slot count. gopher-lua's registry grows in units of
// LValue slots, not bytes; this is the conversion constant, chosen to be
// conservative for typical Lua value sizes.
const approxBytesPerRegistrySlot = 64

const chunkName = `[string "sandboxed script"]`

var locationPrefix = regexp.MustCompile(`^\[string "[^"]*"\]:\d+:\s*`)

// Sandbox evaluates Lua script text under a per-call instruction and
// memory ceiling. The zero value is not usable; construct with New.
type Sandbox struct {
	instructionCeiling int64
	registrySlots       int
}

// New returns a Sandbox enforcing instructionCeiling executed instructions
// (approximated, see Eval) and memoryCeilingBytes of Lua registry growth
// per evaluation.
func New(instructionCeiling int64, memoryCeilingBytes int) *Sandbox {
	slots := memoryCeilingBytes / approxBytesPerRegistrySlot
	if slots < 64 {
		slots = 64
	}
	return &Sandbox{instructionCeiling: instructionCeiling, registrySlots: slots}
}

// Eval compiles and runs script under a fresh, empty-environment global
// table, as a protected call, so any script-side error comes back as a
// Result rather than a Go panic.
//
// Instruction ceiling: rlua's HookTriggers.every_nth_instruction (the
// reference this package ports) fires a hook on a true bytecode-opcode
// counter; gopher-lua exposes no such hook to Go callers, only a
// context.Context checked at its own internal safepoints. We preserve the
// "cannot be disabled from inside the script" property by running a
// dedicated watchdog goroutine, unreachable from the script, that
// decrements an atomic counter once per scheduling quantum and cancels
// the context when it reaches zero -- the same decrement-and-raise shape
// as the rlua hook, paced by the scheduler rather than by opcode count.
func (s *Sandbox) Eval(parent context.Context, script string) Result {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		CallStackSize:    64,
		RegistryMaxSize:  s.registrySlots,
		RegistryGrowStep: 32,
	})
	defer L.Close()

	fn, err := L.Load(strings.NewReader(script), chunkName)
	if err != nil {
		return Result{Status: StatusCompileError, Text: stripLocation(err.Error())}
	}

	// Fresh, empty environment: the script sees no globals at all, only
	// what it can construct itself -- matching the original sandbox's
	// `local env = {}` + `load(code, nil, 't', env)`.
	L.SetFEnv(fn, L.NewTable())

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	remaining := atomic.Int64{}
	remaining.Store(s.instructionCeiling)
	var timedOut atomic.Bool
	done := make(chan struct{})
	go watchdog(&remaining, &timedOut, cancel, done)

	L.SetContext(ctx)
	L.Push(fn)
	callErr := L.PCall(0, 1, nil)
	close(done)

	if callErr != nil {
		if timedOut.Load() {
			return Result{Status: StatusLimitExceeded, Limit: LimitInstructions, Text: "instruction limit reached"}
		}
		if isRegistryOverflow(callErr) {
			return Result{Status: StatusLimitExceeded, Limit: LimitMemory, Text: "not enough memory"}
		}
		return Result{Status: StatusRuntimeError, Text: stripLocation(callErr.Error())}
	}

	ret := L.Get(-1)
	L.Pop(1)
	return Result{
		Status:           StatusSuccess,
		Text:             ret.String(),
		InstructionsLeft: remaining.Load(),
	}
}

// watchdog decrements remaining once per scheduling quantum until either
// done is closed (the call finished first) or remaining hits zero, in
// which case it cancels the running call's context.
func watchdog(remaining *atomic.Int64, timedOut *atomic.Bool, cancel context.CancelFunc, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		if remaining.Add(-1) <= 0 {
			timedOut.Store(true)
			cancel()
			return
		}
		runtime.Gosched()
	}
}

// isRegistryOverflow reports whether err looks like gopher-lua's own
// registry or call-stack growth limiter rejected further growth (e.g.
// unbounded recursion hitting CallStackSize, or value-stack growth hitting
// RegistryMaxSize). This bounds stack usage, not general heap growth: a
// script that instead grows a string or table value in place (the
// `x = x .. x` shape) allocates Go heap memory gopher-lua's public API
// gives us no hook to cap, so it is only ever stopped by the instruction
// ceiling's wall-clock approximation, not by this check. See DESIGN.md.
func isRegistryOverflow(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "overflow") || strings.Contains(msg, "registry")
}

// stripLocation removes a leading `[string "..."]:N:` location prefix.
func stripLocation(s string) string {
	return strings.TrimSpace(locationPrefix.ReplaceAllString(s, ""))
}

// Error renders r as the short, location-stripped, ERROR:-prefixed text
// shown to end-users for any non-success status.
func (r Result) Error() string {
	return fmt.Sprintf("ERROR: %s", r.Text)
}
