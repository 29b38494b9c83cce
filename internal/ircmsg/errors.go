package ircmsg

import "errors"

var (
	ErrShortTags   = errors.New("ircmsg: unexpected end of input while reading tags")
	ErrShortPrefix = errors.New("ircmsg: unexpected end of input while reading prefix")
	ErrNoCommand   = errors.New("ircmsg: missing command name")
)
