package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/state"
)

// Help lists registered commands, or describes one command, filtered by
// the caller's permission level. It holds the registry it describes,
// since the Handler interface itself carries no registry reference.
type Help struct {
	Registry *command.Registry
}

func (Help) Name() string { return "help" }

func (Help) Help() string {
	return "help -- describes bot commands // help <command> -- describes command"
}

func (Help) Level() state.Level { return state.LevelUser }

func (Help) Cooldowns() command.Cooldowns { return command.CommandOnly(5 * time.Second) }

func (h Help) Execute(_ context.Context, inv command.Invocation, st *state.State) command.Outcome {
	callerLevel := st.Permissions.Get(inv.User)

	if inv.Body == "" {
		var names []string
		h.Registry.Each(func(handler command.Handler) bool {
			if callerLevel.Permits(handler.Level()) {
				names = append(names, handler.Name())
			}
			return true
		})
		sort.Strings(names)
		return command.Success(inv.Channel, "commands: "+strings.Join(names, ", "))
	}

	name, _, _ := strings.Cut(inv.Body, " ")
	handler, ok := h.Registry.Get(name)
	if !ok || !callerLevel.Permits(handler.Level()) {
		return command.Success(inv.Channel, fmt.Sprintf("help: no such command: '%s'", name))
	}
	return command.Success(inv.Channel, "help: "+handler.Help())
}
