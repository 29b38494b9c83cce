package commands

import (
	"context"
	"time"

	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/state"
)

// Echo replies with its argument text verbatim; Admin-only, since an open
// echo is a trivial way to make the bot say anything.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Help() string { return "echo <message> -- echoes message back" }

func (Echo) Level() state.Level { return state.LevelAdmin }

func (Echo) Cooldowns() command.Cooldowns { return command.CommandOnly(5 * time.Second) }

func (Echo) Execute(_ context.Context, inv command.Invocation, _ *state.State) command.Outcome {
	if inv.Body == "" {
		return command.Silent()
	}
	return command.Success(inv.Channel, inv.Body)
}
