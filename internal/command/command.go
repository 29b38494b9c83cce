// Package command defines the capability interface user commands
// implement, the invocation/outcome shapes the executor passes through
// it, and a name-keyed registry owned by the bot's shared state.
package command

import (
	"context"
	"time"

	"github.com/modelflat/gobot/internal/state"
)

// Invocation is everything a Handler needs to answer one command call.
type Invocation struct {
	RawLine string // the raw wire line the receiver parsed
	User    string // display-name of the invoking user
	Channel string // channel name, without leading '#'
	Body    string // command text with prefix/mention and name stripped
}

// Cooldowns declares which cooldowns a Handler requires. A nil field means
// that cooldown is not checked; declaring neither is a configuration error
// (§4.5.2) and the executor refuses to run the command.
type Cooldowns struct {
	Command *time.Duration
	User    *time.Duration
}

// CommandOnly returns Cooldowns declaring only the global command cooldown.
func CommandOnly(d time.Duration) Cooldowns { return Cooldowns{Command: &d} }

// UserOnly returns Cooldowns declaring only the per-(command,user) cooldown.
func UserOnly(d time.Duration) Cooldowns { return Cooldowns{User: &d} }

// Both returns Cooldowns declaring both the command and per-user cooldowns.
func Both(cmd, user time.Duration) Cooldowns { return Cooldowns{Command: &cmd, User: &user} }

// OutcomeKind discriminates the result of executing a Handler.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSilent
	OutcomeError
)

// Outcome is what a Handler returns from Execute.
type Outcome struct {
	Kind    OutcomeKind
	Channel string // valid when Kind == OutcomeSuccess
	Message string // valid when Kind == OutcomeSuccess
	Err     string // valid when Kind == OutcomeError
}

// Success builds a successful outcome carrying a prepared outbound message.
func Success(channel, message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Channel: channel, Message: message}
}

// Silent builds an outcome that produces no outbound message and no error.
func Silent() Outcome { return Outcome{Kind: OutcomeSilent} }

// Fail builds an outcome describing an execution error to be logged.
func Fail(err string) Outcome { return Outcome{Kind: OutcomeError, Err: err} }

// Handler is the capability interface every command implements.
type Handler interface {
	// Name is the command's invocation name, e.g. "echo".
	Name() string
	// Help is a one-line usage description.
	Help() string
	// Level is the minimum permission level required to invoke it.
	Level() state.Level
	// Cooldowns declares which cooldowns apply; see Cooldowns.
	Cooldowns() Cooldowns
	// Execute runs the command body against shared state.
	Execute(ctx context.Context, inv Invocation, st *state.State) Outcome
}
