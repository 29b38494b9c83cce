package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/sandbox"
	"github.com/modelflat/gobot/internal/state"
)

// defaultInstructionCeiling and defaultMemoryCeilingBytes mirror the
// original sandbox's "1 << 10 instructions, 640 KiB" defaults (§5).
const (
	defaultInstructionCeiling = 1 << 10
	defaultMemoryCeilingBytes = 640 * 1024

	// maxResultLen truncates a successful result to a safe chat-line
	// length before it's sent back as a PRIVMSG.
	maxResultLen = 400
)

// Lua runs the command body as untrusted Lua script text in a bounded
// sandbox, both a per-user and a command cooldown (the executor's "both"
// ordering rule), since a script that merely compiles can still take
// meaningfully more wall-clock than echo.
type Lua struct {
	Sandbox *sandbox.Sandbox
}

// NewLua returns a Lua command using the default instruction/memory
// ceilings.
func NewLua() Lua {
	return Lua{Sandbox: sandbox.New(defaultInstructionCeiling, defaultMemoryCeilingBytes)}
}

func (Lua) Name() string { return "lua" }

func (Lua) Help() string {
	return "lua <code> -- executes your code in a Lua sandbox. limits: 640kb of memory, ~1000 instructions FeelsGoodMan"
}

func (Lua) Level() state.Level { return state.LevelUser }

func (Lua) Cooldowns() command.Cooldowns {
	return command.Both(1*time.Second, 2*time.Second)
}

func (l Lua) Execute(ctx context.Context, inv command.Invocation, _ *state.State) command.Outcome {
	if inv.Body == "" {
		return command.Fail("lua: not enough arguments")
	}

	result := l.Sandbox.Eval(ctx, inv.Body)
	if result.Status != sandbox.StatusSuccess {
		return command.Success(inv.Channel, result.Error())
	}

	text := result.Text
	if len(text) > maxResultLen {
		text = text[:maxResultLen]
	}
	return command.Success(inv.Channel, fmt.Sprintf("(%d) res = %s", result.InstructionsLeft, text))
}
