package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemConnRoundTrip(t *testing.T) {
	m := NewMemConn(4, 4)
	m.Feed("PING :tmi.twitch.tv")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	line, err := m.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PING :tmi.twitch.tv", line)

	require.NoError(t, m.Send(ctx, "PONG :tmi.twitch.tv"))
	select {
	case sent := <-m.Sent:
		assert.Equal(t, "PONG :tmi.twitch.tv", sent)
	default:
		t.Fatal("expected sent line to be captured")
	}
}

func TestMemConnClosedUnblocksRecv(t *testing.T) {
	m := NewMemConn(1, 1)
	done := make(chan error, 1)
	go func() {
		_, err := m.Recv(context.Background())
		done <- err
	}()

	m.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}
