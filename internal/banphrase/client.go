// Package banphrase talks to an external banphrase oracle: a service that
// classifies a candidate chat message as permitted or banned.
package banphrase

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultOptions are applied to a Client constructed with New when its
// Options zero value is used.
var DefaultOptions = Options{
	Logger:     nopLogger(),
	HTTPClient: http.DefaultClient,
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// Options configures a Client.
type Options struct {
	Logger     *zerolog.Logger
	HTTPClient *http.Client

	// Limiter optionally self-throttles outgoing requests so a burst of
	// chat traffic cannot overwhelm the remote oracle; nil disables it.
	Limiter *rate.Limiter
}

type request struct {
	Message string `json:"message"`
}

type response struct {
	Banned *bool `json:"banned"`
}

// Client checks candidate message text against a configured banphrase
// service. The zero value is not usable; construct with New.
type Client struct {
	log     *zerolog.Logger
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

// New returns a Client for url. Returns nil if url is empty, signalling
// "no banphrase service configured" (§4.5.3: the lookup may be omitted
// entirely when unconfigured).
func New(url string, opts Options) *Client {
	if url == "" {
		return nil
	}
	if opts.Logger == nil {
		opts.Logger = DefaultOptions.Logger
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = DefaultOptions.HTTPClient
	}
	return &Client{log: opts.Logger, url: url, http: opts.HTTPClient, limiter: opts.Limiter}
}

// Check classifies text. Any transport error or a response missing a
// boolean "banned" field is reported as (true, err): fail-closed, per
// §4.5.3 / §6.
func (c *Client) Check(ctx context.Context, text string) (banned bool, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return true, err
		}
	}

	body, err := json.Marshal(request{Message: text})
	if err != nil {
		return true, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return true, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Info().Err(err).Str("url", c.url).Msg("banphrase request failed, failing closed")
		return true, err
	}
	defer resp.Body.Close()

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.Banned == nil {
		if err == nil {
			err = ErrBadResponse
		}
		c.log.Info().Err(err).Msg("banphrase response malformed, failing closed")
		return true, err
	}

	return *parsed.Banned, nil
}

// defaultTimeout is the banphrase call's timeout applied by
// NewDefaultHTTPClient; clients passed in via Options keep their own.
const defaultTimeout = 5 * time.Second

// NewDefaultHTTPClient returns an *http.Client with defaultTimeout applied,
// for callers that don't already have a shared client to pass via Options.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
