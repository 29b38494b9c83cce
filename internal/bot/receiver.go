package bot

import (
	"context"
	"strings"

	"github.com/modelflat/gobot/internal/ircmsg"
)

// receive runs the receiver loop: read frames, split on CRLF, parse and
// dispatch each line (§4.5.1). Returns once the connection ends or ctx is
// cancelled; Run's supervisor goroutine calls Stop once this has happened,
// so receive itself never touches Stop or the queues it closes.
func (p *Pipeline) receive(ctx context.Context) {
	for {
		frame, err := p.conn.Recv(ctx)
		if err != nil {
			p.Info().Err(err).Msg("receiver stopping: connection ended")
			return
		}
		for _, line := range splitFrame(frame) {
			if line == "" {
				continue
			}
			p.handleLine(ctx, line)
		}
	}
}

func splitFrame(frame string) []string {
	frame = strings.ReplaceAll(frame, "\r\n", "\n")
	return strings.Split(frame, "\n")
}

func (p *Pipeline) handleLine(ctx context.Context, line string) {
	m, err := ircmsg.Parse(line)
	if err != nil {
		p.Info().Err(err).Str("line", line).Msg("dropping malformed line")
		return
	}

	switch m.Command {
	case "PRIVMSG":
		p.handlePrivmsg(ctx, line, m)
	case "PING":
		p.handlePing(ctx, m)
	case "USERSTATE":
		p.handleUserstate(m)
	default:
		p.Debug().Str("command", m.Command).Msg("dropping unhandled command")
	}
}

func (p *Pipeline) handlePrivmsg(ctx context.Context, rawLine string, m *ircmsg.Message) {
	if m.Trailing == nil {
		return
	}
	text := *m.Trailing

	body, ok := stripInvocation(text, p.state.Prefix, p.state.AtMention)
	if !ok {
		return
	}

	prepared := Prepared{RawLine: rawLine, Body: body}
	select {
	case p.cmdQueue <- prepared:
	case <-ctx.Done():
	}
}

// stripInvocation strips a leading prefix or at-mention token from text
// and left-trims the remainder. Tolerates a single leading space before
// the token, per §8 scenario 3.
func stripInvocation(text, prefix, mention string) (string, bool) {
	trimmed := strings.TrimPrefix(text, " ")

	if prefix != "" && strings.HasPrefix(trimmed, prefix) {
		return strings.TrimLeft(trimmed[len(prefix):], " "), true
	}
	if mention != "" && strings.HasPrefix(trimmed, mention) {
		return strings.TrimLeft(trimmed[len(mention):], " "), true
	}
	return "", false
}

func (p *Pipeline) handlePing(ctx context.Context, m *ircmsg.Message) {
	trailing := ""
	if m.Trailing != nil {
		trailing = *m.Trailing
	}
	pong := ircmsg.NewPong(trailing)
	if err := p.writeLine(ctx, pong.String()); err != nil {
		p.Info().Err(err).Msg("failed to send PONG")
	}
}

func (p *Pipeline) handleUserstate(m *ircmsg.Message) {
	if len(m.Args) == 0 {
		return
	}
	channel := strings.TrimPrefix(m.Args[0], "#")

	badges, _, found := m.Tag("badges")
	if !found {
		return
	}
	for _, badge := range strings.Split(badges, ",") {
		if strings.HasPrefix(badge, "moderator") {
			p.channelCooldown.Update(channel, p.cfg.ModeratorCooldown)
			return
		}
	}
}
