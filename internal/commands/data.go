// Package commands holds the small set of concrete command handlers
// wired into the bot by default: echo, bot/bot_description, help, and the
// sandboxed lua evaluator.
package commands

// UserData is the bot's user-supplied shared data object (§3 "Bot
// state"), accessed through state.State's ReadData/WriteData.
type UserData struct {
	Description string
}

// NewUserData returns a UserData seeded with the default description
// BotDescription falls back to before anyone has changed it.
func NewUserData() *UserData {
	return &UserData{Description: defaultDescription}
}

const defaultDescription = "FeelsDankMan I'm a bot. Prefix: '>>'. See (>> help) for commands."
