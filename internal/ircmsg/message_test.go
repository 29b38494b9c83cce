package ircmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tr := func(s string) *string { return &s }

	tests := []struct {
		name string
		line string
		want *Message
		err  error
	}{
		{
			name: "ping",
			line: "PING :tmi.twitch.tv",
			want: &Message{Command: "PING", Trailing: tr("tmi.twitch.tv")},
		},
		{
			name: "full wire scenario",
			line: "@a=1;b;c=3 :nick!user@host PRIVMSG #ch :hello",
			want: &Message{
				Tags: []Tag{
					{Key: "a", Value: "1", HasValue: true},
					{Key: "b"},
					{Key: "c", Value: "3", HasValue: true},
				},
				Prefix:   Prefix{Kind: PrefixFull, Nick: "nick", User: "user", Host: "host"},
				Command:  "PRIVMSG",
				Args:     []string{"#ch"},
				Trailing: tr("hello"),
			},
		},
		{
			name: "user-host prefix",
			line: ":user@host NOTICE #ch :hi",
			want: &Message{
				Prefix:   Prefix{Kind: PrefixUserHost, User: "user", Host: "host"},
				Command:  "NOTICE",
				Args:     []string{"#ch"},
				Trailing: tr("hi"),
			},
		},
		{
			name: "host-only prefix",
			line: ":tmi.twitch.tv CAP * ACK :twitch.tv/tags",
			want: &Message{
				Prefix:   Prefix{Kind: PrefixHost, Host: "tmi.twitch.tv"},
				Command:  "CAP",
				Args:     []string{"*", "ACK"},
				Trailing: tr("twitch.tv/tags"),
			},
		},
		{
			name: "no trailing",
			line: "JOIN #channel",
			want: &Message{Command: "JOIN", Args: []string{"#channel"}},
		},
		{
			name: "empty trailing preserved",
			line: "PRIVMSG #ch :",
			want: &Message{Command: "PRIVMSG", Args: []string{"#ch"}, Trailing: tr("")},
		},
		{
			name: "extra whitespace between args is tolerated",
			line: "CMD  a   b",
			want: &Message{Command: "CMD", Args: []string{"a", "b"}},
		},
		{
			name: "short tags",
			line: "@a=1",
			err:  ErrShortTags,
		},
		{
			name: "short prefix",
			line: ":nick",
			err:  ErrShortPrefix,
		},
		{
			name: "missing command",
			line: " :trailing only",
			err:  ErrNoCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %+v, want %+v", got, tt.want)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	lines := []string{
		"PING :tmi.twitch.tv",
		"@a=1;b;c=3 :nick!user@host PRIVMSG #ch :hello",
		":user@host NOTICE #ch :hi",
		"JOIN #channel",
		"PRIVMSG #ch :",
		"@badges=moderator/1;display-name=Foo :foo!foo@foo.tmi.twitch.tv USERSTATE #ch",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			m, err := Parse(line)
			require.NoError(t, err)

			again, err := Parse(m.String())
			require.NoError(t, err)
			assert.True(t, m.Equal(again), "round-trip mismatch: %q -> %q", line, m.String())
		})
	}
}

func TestNewPrivmsgAndPong(t *testing.T) {
	p := NewPrivmsg("channel", "hi")
	assert.Equal(t, "PRIVMSG #channel :hi", p.String())

	pong := NewPong("tmi.twitch.tv")
	assert.Equal(t, "PONG :tmi.twitch.tv", pong.String())
}
