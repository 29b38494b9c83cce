package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/dedup"
	"github.com/modelflat/gobot/internal/state"
	"github.com/modelflat/gobot/internal/transport"
)

// echoHandler is a minimal stand-in for the real "echo" command, used to
// exercise the pipeline end to end without depending on internal/commands.
type echoHandler struct {
	cds command.Cooldowns
}

func (echoHandler) Name() string            { return "echo" }
func (echoHandler) Help() string            { return "echo <text>" }
func (echoHandler) Level() state.Level      { return state.LevelUser }
func (h echoHandler) Cooldowns() command.Cooldowns { return h.cds }
func (echoHandler) Execute(_ context.Context, inv command.Invocation, _ *state.State) command.Outcome {
	return command.Success(inv.Channel, inv.Body)
}

func newTestPipeline(t *testing.T, cds command.Cooldowns, cfg Config) (*Pipeline, *transport.MemConn) {
	t.Helper()
	conn := transport.NewMemConn(16, 16)

	st := state.New("gobot", ">>", []string{"somechannel"}, state.NewPermissions(nil), nil)
	reg := command.NewRegistry()
	reg.Register(echoHandler{cds: cds})

	if cfg.ChannelCooldown == 0 {
		cfg.ChannelCooldown = time.Millisecond
	}
	p := New(conn, st, reg, cfg, DefaultOptions)
	return p, conn
}

func runPipeline(t *testing.T, p *Pipeline) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("pipeline did not stop")
		}
	}
}

func TestPingBypassesQueues(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Millisecond), Config{})
	stop := runPipeline(t, p)
	defer stop()

	conn.Feed("PING :tmi.twitch.tv")

	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PONG :tmi.twitch.tv", sent)
	case <-time.After(time.Second):
		t.Fatal("expected a PONG")
	}
}

func TestEchoCommand(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Millisecond), Config{})
	stop := runPipeline(t, p)
	defer stop()

	conn.Feed(`@display-name=U PRIVMSG #somechannel :>>echo hi`)

	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PRIVMSG #somechannel :hi", sent)
	case <-time.After(time.Second):
		t.Fatal("expected an echoed PRIVMSG")
	}
}

func TestEchoToleratesLeadingSpace(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Millisecond), Config{})
	stop := runPipeline(t, p)
	defer stop()

	conn.Feed(`@display-name=U PRIVMSG #somechannel : >>echo hi`)

	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PRIVMSG #somechannel :hi", sent)
	case <-time.After(time.Second):
		t.Fatal("expected an echoed PRIVMSG")
	}
}

func TestDedupSuffixOnRepeatedMessage(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Millisecond), Config{HistoryTTL: time.Minute})
	stop := runPipeline(t, p)
	defer stop()

	var got []string
	for i := 0; i < 3; i++ {
		conn.Feed(`@display-name=U PRIVMSG #somechannel :>>echo hi`)
		select {
		case sent := <-conn.Sent:
			got = append(got, sent)
		case <-time.After(time.Second):
			t.Fatalf("expected message %d", i+1)
		}
		time.Sleep(5 * time.Millisecond) // clear the command cooldown between sends
	}

	require.Len(t, got, 3)
	assert.Equal(t, "PRIVMSG #somechannel :hi", got[0])
	assert.Equal(t, "PRIVMSG #somechannel :"+dedup.Modify("hi", 1), got[1])
	assert.Equal(t, "PRIVMSG #somechannel :"+dedup.Modify("hi", 2), got[2])
}

func TestCommandCooldownDeniesSecondInvocation(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Minute), Config{})
	stop := runPipeline(t, p)
	defer stop()

	conn.Feed(`@display-name=U PRIVMSG #somechannel :>>echo first`)
	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PRIVMSG #somechannel :first", sent)
	case <-time.After(time.Second):
		t.Fatal("expected the first echo")
	}

	conn.Feed(`@display-name=U PRIVMSG #somechannel :>>echo second`)
	select {
	case sent := <-conn.Sent:
		t.Fatalf("unexpected second message: %s", sent)
	case <-time.After(200 * time.Millisecond):
		// expected: cooldown denies the second invocation
	}
}

func TestUnknownCommandIsSilent(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Millisecond), Config{})
	stop := runPipeline(t, p)
	defer stop()

	conn.Feed(`@display-name=U PRIVMSG #somechannel :>>nosuchcommand hi`)

	select {
	case sent := <-conn.Sent:
		t.Fatalf("unexpected message: %s", sent)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestBothCooldownsCommandCooldownDeniesOtherUser(t *testing.T) {
	p, conn := newTestPipeline(t, command.Both(time.Minute, time.Millisecond), Config{})
	stop := runPipeline(t, p)
	defer stop()

	conn.Feed(`@display-name=alice PRIVMSG #somechannel :>>echo first`)
	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PRIVMSG #somechannel :first", sent)
	case <-time.After(time.Second):
		t.Fatal("expected the first echo to succeed")
	}

	// alice's own user cooldown is fine after a moment, but the command
	// cooldown (1 minute) is still active, so a second invocation from a
	// different user must still be denied.
	time.Sleep(5 * time.Millisecond)
	conn.Feed(`@display-name=bob PRIVMSG #somechannel :>>echo second`)
	select {
	case sent := <-conn.Sent:
		t.Fatalf("unexpected message from bob while command cooldown is active: %s", sent)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUserstateModeratorLowersChannelCooldown(t *testing.T) {
	p, conn := newTestPipeline(t, command.CommandOnly(time.Millisecond), Config{
		ChannelCooldown:   time.Hour,
		ModeratorCooldown: 50 * time.Millisecond,
	})
	stop := runPipeline(t, p)
	defer stop()

	// the channel cooldown starts ready, so this first send succeeds
	// immediately and resets its last-access to now under the 1h interval.
	conn.Feed(`@display-name=U PRIVMSG #somechannel :>>echo first`)
	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PRIVMSG #somechannel :first", sent)
	case <-time.After(time.Second):
		t.Fatal("expected the first echo to succeed")
	}

	conn.Feed(`@badges=moderator/1 USERSTATE #somechannel`)
	time.Sleep(20 * time.Millisecond) // let the receiver process it

	// without the lowered cooldown this would need to wait ~1h; with it
	// lowered to 50ms it should go through well within the test timeout.
	conn.Feed(`@display-name=U PRIVMSG #somechannel :>>echo second`)
	select {
	case sent := <-conn.Sent:
		assert.Equal(t, "PRIVMSG #somechannel :second", sent)
	case <-time.After(time.Second):
		t.Fatal("expected the moderator-lowered channel cooldown to let this through quickly")
	}
}
