// Package bot implements the receiver/executor/sender pipeline that turns
// a raw IRC wire stream into dispatched commands and rate-limited,
// deduplicated replies.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/modelflat/gobot/internal/banphrase"
	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/cooldown"
	"github.com/modelflat/gobot/internal/history"
	"github.com/modelflat/gobot/internal/state"
	"github.com/modelflat/gobot/internal/transport"
)

// Options configures a Pipeline beyond its Config.
type Options struct {
	Logger    *zerolog.Logger // if nil, logging is disabled
	Banphrase *banphrase.Client
}

var DefaultOptions = Options{}

// Pipeline owns the receiver, executor and sender loops plus the
// cooldown/history containers and queues connecting them (§2.5, §4.5).
type Pipeline struct {
	*zerolog.Logger

	cfg Config

	conn     transport.Conn
	state    *state.State
	registry *command.Registry
	bp       *banphrase.Client

	channelCooldown *cooldown.Tracker[string]
	commandCooldown *cooldown.Tracker[string]
	userCooldown    *cooldown.Tracker[userKey]
	history         *history.Tracker[string]

	cmdQueue chan Prepared
	outQueue chan Outbound

	sendMu sync.Mutex // guards direct sink writes (PING bypass) vs sender pool

	started atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup
	recvWg  sync.WaitGroup // receiver only; Stop waits for it before closing cmdQueue
	execWg  sync.WaitGroup // executor pool only; lets Stop drain cmdQueue before closing outQueue
}

// New builds a Pipeline. st and registry are shared by reference with the
// caller, per §3 "Ownership".
func New(conn transport.Conn, st *state.State, registry *command.Registry, cfg Config, opts Options) *Pipeline {
	cfg = cfg.withDefaults()

	log := opts.Logger
	if log == nil {
		l := zerolog.Nop()
		log = &l
	}

	p := &Pipeline{
		Logger:          log,
		cfg:             cfg,
		conn:            conn,
		state:           st,
		registry:        registry,
		bp:              opts.Banphrase,
		channelCooldown: cooldown.New[string](),
		commandCooldown: cooldown.New[string](),
		userCooldown:    cooldown.New[userKey](),
		history:         history.New[string](cfg.HistoryTTL),
		cmdQueue:        make(chan Prepared, cfg.QueueSize),
		outQueue:        make(chan Outbound, cfg.QueueSize),
	}

	for ch := range st.Channels {
		p.channelCooldown.Insert(ch, cfg.ChannelCooldown, true)
	}

	registry.Each(func(h command.Handler) bool {
		cds := h.Cooldowns()
		if cds.Command != nil {
			p.commandCooldown.Insert(h.Name(), *cds.Command, true)
		}
		return true
	})

	return p
}

// Login runs the Twitch-IRC handshake in order: PASS, NICK, CAP REQ, then
// one JOIN per channel (§6).
func (p *Pipeline) Login(ctx context.Context, user, oauthToken string, channels []string) error {
	token := oauthToken
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	lines := []string{
		"PASS " + token,
		"NICK " + user,
		"CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership",
	}
	for _, ch := range channels {
		lines = append(lines, "JOIN #"+strings.TrimPrefix(ch, "#"))
	}

	for _, line := range lines {
		if err := p.conn.Send(ctx, line); err != nil {
			return fmt.Errorf("bot: login: %w", err)
		}
	}
	return nil
}

// Run starts the receiver loop plus the executor and sender worker pools,
// and blocks until the connection ends or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	if p.started.Swap(true) {
		return
	}

	p.wg.Add(1)
	p.recvWg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.recvWg.Done()
		p.receive(ctx)
	}()

	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		p.execWg.Add(1)
		go func() {
			defer p.wg.Done()
			defer p.execWg.Done()
			p.executeLoop(ctx)
		}()
	}

	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.sendLoop(ctx)
		}()
	}

	// The receiver exits on its own once the connection ends or ctx is
	// cancelled (conn.Recv returns either way); waiting on recvWg before
	// calling Stop guarantees the receiver can never again be racing a
	// send into cmdQueue at the moment it's closed.
	go func() {
		p.recvWg.Wait()
		p.Stop()
	}()

	p.wg.Wait()
}

// Stop drains the pipeline in the order producers must finish before their
// downstream queue closes: wait for the receiver to stop producing, close
// cmdQueue, wait for every executor to drain it (so no executor can still
// be holding a reference to outQueue when it closes), then close outQueue
// for the sender pool. Idempotent. Safe to call from any goroutine,
// including one that is not the receiver itself.
func (p *Pipeline) Stop() {
	if p.stopped.Swap(true) {
		return
	}
	p.recvWg.Wait()
	close(p.cmdQueue)
	p.execWg.Wait()
	close(p.outQueue)
}

// Wait blocks until every pipeline goroutine has returned.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// writeLine sends line directly through the socket sink, used by the
// receiver's PING bypass (§4.5.1) which skips both queues and the
// executor entirely.
func (p *Pipeline) writeLine(ctx context.Context, line string) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	return p.conn.Send(ctx, line)
}
