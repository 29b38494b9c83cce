// Package ircmsg parses and serializes single lines of IRCv3 wire text,
// including the message-tags extension used by Twitch chat.
package ircmsg

import "strings"

// Tag is one key, optionally carrying a value, from the "@..." section
// of a line. Order of appearance is significant for re-serialization.
type Tag struct {
	Key      string
	Value    string
	HasValue bool
}

// PrefixKind discriminates the shape of a parsed Prefix.
type PrefixKind byte

const (
	PrefixNone PrefixKind = iota
	PrefixHost
	PrefixUserHost
	PrefixFull
)

// Prefix is the optional ":..." source of a line.
type Prefix struct {
	Kind PrefixKind
	Nick string
	User string
	Host string
}

// String renders p the way it was (or would be) written on the wire,
// without the leading ':'.
func (p Prefix) String() string {
	switch p.Kind {
	case PrefixFull:
		return p.Nick + "!" + p.User + "@" + p.Host
	case PrefixUserHost:
		return p.User + "@" + p.Host
	case PrefixHost:
		return p.Host
	default:
		return ""
	}
}

// Message is an immutable structured representation of one IRC line.
type Message struct {
	Tags     []Tag
	Prefix   Prefix
	Command  string
	Args     []string
	Trailing *string // nil means absent; non-nil (possibly empty) means present
}

// Tag looks up the first tag with the given key.
func (m *Message) Tag(key string) (value string, hasValue, found bool) {
	for _, t := range m.Tags {
		if t.Key == key {
			return t.Value, t.HasValue, true
		}
	}
	return "", false, false
}

// Parse reads one line (without trailing CRLF) into a Message.
// Parsing proceeds strictly left-to-right per the IRCv3 grammar:
//
//	['@' tags SP] [':' prefix SP] command {SP arg} [SP ':' trailing]
func Parse(line string) (*Message, error) {
	m := &Message{}
	rest := line

	if strings.HasPrefix(rest, "@") {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, ErrShortTags
		}
		for _, part := range strings.Split(rest[1:sp], ";") {
			if part == "" {
				continue
			}
			if eq := strings.IndexByte(part, '='); eq >= 0 {
				m.Tags = append(m.Tags, Tag{Key: part[:eq], Value: part[eq+1:], HasValue: true})
			} else {
				m.Tags = append(m.Tags, Tag{Key: part})
			}
		}
		rest = rest[sp+1:]
	}

	if strings.HasPrefix(rest, ":") {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, ErrShortPrefix
		}
		m.Prefix = parsePrefix(rest[1:sp])
		rest = rest[sp+1:]
	}

	cmdSection := rest
	if idx := strings.Index(rest, " :"); idx >= 0 {
		cmdSection = rest[:idx]
		trailing := rest[idx+2:]
		m.Trailing = &trailing
	}

	fields := strings.Fields(cmdSection)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	m.Command = fields[0]
	m.Args = fields[1:]

	return m, nil
}

// parsePrefix discriminates a prefix section per §4.1: split on the
// rightmost '@', then, if present, the rightmost '!' on the left side.
func parsePrefix(s string) Prefix {
	if at := strings.LastIndexByte(s, '@'); at >= 0 {
		left, host := s[:at], s[at+1:]
		if ex := strings.LastIndexByte(left, '!'); ex >= 0 {
			return Prefix{Kind: PrefixFull, Nick: left[:ex], User: left[ex+1:], Host: host}
		}
		return Prefix{Kind: PrefixUserHost, User: left, Host: host}
	}
	return Prefix{Kind: PrefixHost, Host: s}
}

// String serializes m back to wire text (without trailing CRLF).
func (m *Message) String() string {
	var b strings.Builder

	if len(m.Tags) > 0 {
		b.WriteByte('@')
		for i, t := range m.Tags {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(t.Key)
			if t.HasValue {
				b.WriteByte('=')
				b.WriteString(t.Value)
			}
		}
		b.WriteByte(' ')
	}

	if m.Prefix.Kind != PrefixNone {
		b.WriteByte(':')
		b.WriteString(m.Prefix.String())
		b.WriteByte(' ')
	}

	b.WriteString(m.Command)
	for _, a := range m.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}

	if m.Trailing != nil {
		b.WriteString(" :")
		b.WriteString(*m.Trailing)
	}

	return b.String()
}

// Equal reports whether m and o carry the same tags (in order), prefix,
// command, arguments and trailing field.
func (m *Message) Equal(o *Message) bool {
	if m.Command != o.Command || m.Prefix != o.Prefix || len(m.Tags) != len(o.Tags) || len(m.Args) != len(o.Args) {
		return false
	}
	for i := range m.Tags {
		if m.Tags[i] != o.Tags[i] {
			return false
		}
	}
	for i := range m.Args {
		if m.Args[i] != o.Args[i] {
			return false
		}
	}
	switch {
	case m.Trailing == nil && o.Trailing == nil:
		return true
	case m.Trailing == nil || o.Trailing == nil:
		return false
	default:
		return *m.Trailing == *o.Trailing
	}
}

// NewPrivmsg builds a PRIVMSG to channel (without the leading '#') with
// the given trailing body.
func NewPrivmsg(channel, body string) *Message {
	return &Message{Command: "PRIVMSG", Args: []string{"#" + channel}, Trailing: &body}
}

// NewPong builds a PONG carrying the same trailing as the PING it answers.
func NewPong(trailing string) *Message {
	return &Message{Command: "PONG", Trailing: &trailing}
}
