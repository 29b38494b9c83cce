package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelflat/gobot/internal/banphrase"
	"github.com/modelflat/gobot/internal/bot"
	"github.com/modelflat/gobot/internal/command"
	"github.com/modelflat/gobot/internal/commands"
	"github.com/modelflat/gobot/internal/state"
	"github.com/modelflat/gobot/internal/transport"
)

const envPrefix = "GOBOT"

var rootCmd = &cobra.Command{
	Use:   "gobot",
	Short: "A Twitch-IRC chat bot",
	RunE:  run,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.String("url", "wss://irc-ws.chat.twitch.tv:443", "IRC-over-WebSocket endpoint")
	flags.String("user", "", "bot user name")
	flags.String("token", "", "OAuth token ('oauth:' prefix added if missing)")
	flags.String("channels", "", "comma-separated channel list")
	flags.String("prefix", ">>", "command prefix")
	flags.String("banphrase-url", "", "optional banphrase service URL")
	flags.Int("concurrency", 64, "executor/sender concurrency")

	for _, name := range []string{"url", "user", "token", "channels", "prefix", "banphrase-url", "concurrency"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger() zerolog.Logger {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func run(cmd *cobra.Command, args []string) error {
	log := newLogger()

	user := viper.GetString("user")
	token := viper.GetString("token")
	url := viper.GetString("url")
	prefix := viper.GetString("prefix")
	concurrency := viper.GetInt("concurrency")

	var channels []string
	for _, c := range strings.Split(viper.GetString("channels"), ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			channels = append(channels, c)
		}
	}
	if user == "" || token == "" || len(channels) == 0 {
		return fmt.Errorf("gobot: --user, --token and --channels are all required")
	}

	registry := command.NewRegistry()
	registry.Register(commands.Echo{})
	registry.Register(commands.Bot{})
	registry.Register(commands.BotDescription{})
	registry.Register(commands.NewLua())
	registry.Register(commands.Help{Registry: registry})

	st := state.New(strings.ToLower(user), prefix, channels, state.NewPermissions(nil), commands.NewUserData())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("shutting down")
		cancel()
	}()

	conn, err := transport.Dial(ctx, url, &log)
	if err != nil {
		return fmt.Errorf("gobot: dial: %w", err)
	}
	defer conn.Close()

	bpURL := viper.GetString("banphrase-url")
	bp := banphrase.New(bpURL, banphrase.Options{Logger: &log, HTTPClient: banphrase.NewDefaultHTTPClient()})

	p := bot.New(conn, st, registry, bot.Config{Concurrency: concurrency}, bot.Options{Logger: &log, Banphrase: bp})

	if err := p.Login(ctx, user, token, channels); err != nil {
		return fmt.Errorf("gobot: login: %w", err)
	}

	p.Run(ctx)
	return nil
}
