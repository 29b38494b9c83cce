package commands

import (
	"context"
	"time"

	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/state"
)

// Bot replies with a fixed "about this bot" line.
type Bot struct{}

func (Bot) Name() string { return "bot" }

func (Bot) Help() string { return "bot -- describes bot" }

func (Bot) Level() state.Level { return state.LevelUser }

func (Bot) Cooldowns() command.Cooldowns { return command.CommandOnly(5 * time.Second) }

func (Bot) Execute(_ context.Context, inv command.Invocation, _ *state.State) command.Outcome {
	return command.Success(inv.Channel, defaultDescription)
}

// BotDescription replies with the current mutable bot description, or
// replaces it when invoked with argument text. Demonstrates the
// read/write-lock-guarded shared data object from §3.
type BotDescription struct{}

func (BotDescription) Name() string { return "bot_description" }

func (BotDescription) Help() string {
	return "bot_description [text] -- shows, or as an admin sets, the bot's description"
}

func (BotDescription) Level() state.Level { return state.LevelUser }

func (BotDescription) Cooldowns() command.Cooldowns { return command.CommandOnly(5 * time.Second) }

func (BotDescription) Execute(_ context.Context, inv command.Invocation, st *state.State) command.Outcome {
	if inv.Body == "" {
		var desc string
		st.ReadData(func(data any) {
			if ud, ok := data.(*UserData); ok {
				desc = ud.Description
			}
		})
		if desc == "" {
			desc = defaultDescription
		}
		return command.Success(inv.Channel, desc)
	}

	if !st.Permissions.Get(inv.User).Permits(state.LevelAdmin) {
		return command.Silent()
	}

	st.WriteData(func(data any) any {
		ud, ok := data.(*UserData)
		if !ok || ud == nil {
			ud = &UserData{}
		}
		ud.Description = inv.Body
		return ud
	})
	return command.Success(inv.Channel, "description updated")
}
