package bot

import "time"

// Config configures a Pipeline. Zero-value fields are replaced by the
// defaults below in New.
type Config struct {
	// Concurrency bounds how many commands the executor runs at once,
	// and how many messages the sender writes at once.
	Concurrency int

	// QueueSize bounds the raw-command and outbound queues.
	QueueSize int

	// ChannelCooldown is the default per-channel send interval.
	ChannelCooldown time.Duration

	// ModeratorCooldown replaces ChannelCooldown for a channel once the
	// bot observes itself holding the "moderator" badge there.
	ModeratorCooldown time.Duration

	// HistoryTTL is the window within which a repeated message text is
	// considered a duplicate.
	HistoryTTL time.Duration
}

// defaults mirror §5's "concurrency (default 64)" and the queue-capacity
// guidance of "≈1024" in §9.
var defaults = Config{
	Concurrency:       64,
	QueueSize:         1024,
	ChannelCooldown:   1250 * time.Millisecond,
	ModeratorCooldown: 100 * time.Millisecond,
	HistoryTTL:        30 * time.Second,
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaults.QueueSize
	}
	if c.ChannelCooldown <= 0 {
		c.ChannelCooldown = defaults.ChannelCooldown
	}
	if c.ModeratorCooldown <= 0 {
		c.ModeratorCooldown = defaults.ModeratorCooldown
	}
	if c.HistoryTTL <= 0 {
		c.HistoryTTL = defaults.HistoryTTL
	}
	return c
}
