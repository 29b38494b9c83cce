package bot

import (
	"context"
	"strings"
	"time"

	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/ircmsg"
)

// executeLoop is one worker of the executor pool (§4.5.2); Run starts
// Config.Concurrency of these, all draining the same cmdQueue.
func (p *Pipeline) executeLoop(ctx context.Context) {
	for prepared := range p.cmdQueue {
		p.execute(ctx, prepared)
	}
}

func (p *Pipeline) execute(ctx context.Context, prepared Prepared) {
	m, err := ircmsg.Parse(prepared.RawLine)
	if err != nil {
		// the receiver already validated this line's shape; a failure
		// here would indicate a logic error, not bad input.
		p.Info().Err(err).Msg("executor: failed to re-parse prepared line")
		return
	}

	user, _, _ := m.Tag("display-name")
	channel := ""
	if len(m.Args) > 0 {
		channel = strings.TrimPrefix(m.Args[0], "#")
	}

	name, tail := splitCommand(prepared.Body)

	h, ok := p.registry.Get(name)
	if !ok {
		return // silent-success: not a registered command
	}

	if !p.state.Permissions.Get(user).Permits(h.Level()) {
		p.Info().Str("user", user).Str("command", name).Msg("command denied: insufficient permission")
		return
	}

	if !p.checkCooldowns(name, user, h.Cooldowns()) {
		return
	}

	inv := command.Invocation{RawLine: prepared.RawLine, User: user, Channel: channel, Body: tail}
	outcome := h.Execute(ctx, inv, p.state)

	switch outcome.Kind {
	case command.OutcomeSuccess:
		select {
		case p.outQueue <- Outbound{Channel: outcome.Channel, Message: outcome.Message}:
		case <-ctx.Done():
		}
	case command.OutcomeError:
		p.Info().Str("command", name).Str("error", outcome.Err).Msg("command execution failed")
	case command.OutcomeSilent:
		// nothing to do
	}
}

// splitCommand splits body on the first space into (name, tail). tail is
// empty when there is no argument text.
func splitCommand(body string) (string, string) {
	i := strings.IndexByte(body, ' ')
	if i < 0 {
		return body, ""
	}
	return body[:i], strings.TrimLeft(body[i+1:], " ")
}

// checkCooldowns applies §4.5.2's ordering rule: user cooldown is
// evaluated before command cooldown when both are declared, and the
// command cooldown is only reset once the user check has passed.
func (p *Pipeline) checkCooldowns(cmdName, user string, cds command.Cooldowns) bool {
	switch {
	case cds.Command != nil && cds.User != nil:
		return p.checkBothCooldowns(cmdName, user, *cds.User)
	case cds.Command != nil:
		state, _ := p.commandCooldown.Access(cmdName)
		if !state.Ready {
			p.Info().Str("command", cmdName).Msg("command denied: command cooldown active")
			return false
		}
		return true
	case cds.User != nil:
		uk := userKey{Command: cmdName, User: user}
		if !p.userCooldown.Contains(uk) {
			p.userCooldown.Insert(uk, *cds.User, true)
		}
		state, _ := p.userCooldown.Access(uk)
		if !state.Ready {
			p.Info().Str("command", cmdName).Str("user", user).Msg("command denied: user cooldown active")
			return false
		}
		return true
	default:
		p.Info().Str("command", cmdName).Msg("command misconfigured: no cooldowns declared")
		return false
	}
}

func (p *Pipeline) checkBothCooldowns(cmdName, user string, userInterval time.Duration) bool {
	uk := userKey{Command: cmdName, User: user}
	if !p.userCooldown.Contains(uk) {
		p.userCooldown.Insert(uk, userInterval, true)
	}

	guard, uState, found := p.userCooldown.PeekGuard(uk)
	if !found {
		p.Info().Str("command", cmdName).Msg("command misconfigured: missing user cooldown entry")
		return false
	}
	if !uState.Ready {
		guard.Release()
		p.Info().Str("command", cmdName).Str("user", user).Msg("command denied: user cooldown active")
		return false
	}

	cmdGuard, cState, found := p.commandCooldown.PeekGuard(cmdName)
	if !found {
		guard.Release()
		p.Info().Str("command", cmdName).Msg("command misconfigured: missing command cooldown entry")
		return false
	}
	if !cState.Ready {
		cmdGuard.Release()
		guard.Release() // user entry is NOT reset: the command slot is what's starved
		p.Info().Str("command", cmdName).Msg("command denied: command cooldown active")
		return false
	}

	// both entries are held locked here, so the peek-and-reset of each is
	// atomic with respect to every other caller racing on either key.
	cmdGuard.TryReset()
	guard.TryReset()
	return true
}
