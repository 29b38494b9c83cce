package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 3 * time.Minute
	pingPeriod = (pongWait * 8) / 10
)

// WSConn is a Conn backed by a gorilla/websocket connection to Twitch's
// IRC-over-WebSocket endpoint. Recv returns one text message per call, as
// received (it may carry several CRLF-separated IRC lines); Send writes
// one line per text message.
type WSConn struct {
	log  *zerolog.Logger
	conn *websocket.Conn

	// writeMu is the single mutual-exclusion lock around writes the
	// pipeline relies on: gorilla's *websocket.Conn forbids concurrent
	// writers, and the sender pool plus the receiver's PING bypass both
	// write from different goroutines.
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a WebSocket connection to url and wraps it as a Conn.
func Dial(ctx context.Context, url string, log *zerolog.Logger) (*WSConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &WSConn{log: log, conn: conn, closed: make(chan struct{})}
	conn.SetReadLimit(8192)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	go c.pingLoop()
	return c, nil
}

func (c *WSConn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.log.Info().Err(err).Msg("websocket keepalive ping failed")
				return
			}
		}
	}
}

// Recv implements Conn.
func (c *WSConn) Recv(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	out := make(chan result, 1)
	go func() {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			out <- result{err: ErrClosed}
			return
		}
		out <- result{line: string(data)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.closed:
		return "", ErrClosed
	case r := <-out:
		return r.line, r.err
	}
}

// Send implements Conn.
func (c *WSConn) Send(ctx context.Context, line string) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n")); err != nil {
		return err
	}
	return nil
}

// Close implements Conn.
func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
