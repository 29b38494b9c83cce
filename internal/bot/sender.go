package bot

import (
	"context"
	"time"

	"github.com/modelflat/gobot/internal/dedup"
	"github.com/modelflat/gobot/internal/ircmsg"
)

// sendLoop is one worker of the sender pool (§4.5.3); Run starts
// Config.Concurrency of these, all draining the same outQueue.
func (p *Pipeline) sendLoop(ctx context.Context) {
	for out := range p.outQueue {
		p.send(ctx, out)
	}
}

func (p *Pipeline) send(ctx context.Context, out Outbound) {
	// Step 1: launch the banphrase lookup (if configured) in parallel
	// with the channel cooldown wait.
	type bpResult struct {
		banned bool
		err    error
	}
	var bpCh chan bpResult
	if p.bp != nil {
		bpCh = make(chan bpResult, 1)
		go func() {
			banned, err := p.bp.Check(ctx, out.Message)
			bpCh <- bpResult{banned: banned, err: err}
		}()
	}

	// Step 2: consult the per-channel cooldown; sleep Δ if cooling down.
	state, found := p.channelCooldown.Peek(out.Channel)
	if !found {
		p.Info().Str("channel", out.Channel).Msg("dropping outbound message: unknown channel")
		return
	}
	if !state.Ready {
		if !sleepCtx(ctx, state.Remaining) {
			return
		}
	}

	// Step 3: await the banphrase response.
	if bpCh != nil {
		select {
		case res := <-bpCh:
			if res.err != nil || res.banned {
				p.Info().Str("channel", out.Channel).Bool("banned", res.banned).Err(res.err).Msg("dropping outbound message: banphrase")
				return
			}
		case <-ctx.Done():
			return
		}
	}

	// Step 4: consult history for a duplicate; dedup if seen before.
	body := out.Message
	seen := p.history.Contains(out.Channel, out.Message)
	pushAfterSend := seen == 0
	if seen > 0 {
		body = dedup.Modify(out.Message, seen)
	}

	// Step 5: re-consult the channel cooldown under its guard.
	for {
		guard, _, found := p.channelCooldown.PeekGuard(out.Channel)
		if !found {
			p.Info().Str("channel", out.Channel).Msg("dropping outbound message: channel cooldown vanished")
			return
		}
		final := guard.TryReset()
		if final.Ready {
			break
		}
		if !sleepCtx(ctx, final.Remaining) {
			return
		}
	}

	// Step 6: serialize and write under the shared sink lock.
	m := ircmsg.NewPrivmsg(out.Channel, body)
	if err := p.writeLine(ctx, m.String()); err != nil {
		p.Error().Err(err).Str("channel", out.Channel).Msg("failed to write outbound message")
		return
	}

	// Step 7: push the unmodified body onto history if it wasn't a dup.
	if pushAfterSend {
		p.history.Push(out.Channel, out.Message)
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting which
// happened first; false means the caller should abandon its work.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
