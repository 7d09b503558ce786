package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const clientName = "cardledger"

type options struct {
	attempts uint64
	interval time.Duration
	logger   zerolog.Logger
}

// Option configures NewClient.
type Option func(*options)

// WithConnectRetries pings up to attempts times, waiting interval between tries.
func WithConnectRetries(attempts int, interval time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.attempts = uint64(attempts)
		}
		o.interval = interval
	}
}

// WithLogger sets the logger used to report failed connection attempts.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewClient parses redisURL, names the connection and waits until the server
// answers PING.
func NewClient(ctx context.Context, redisURL string, opts ...Option) (*redis.Client, error) {
	o := options{attempts: 1, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if redisOpts.ClientName == "" {
		redisOpts.ClientName = clientName
	}

	client := redis.NewClient(redisOpts)

	attempt := 0
	ping := func() error {
		attempt++
		err := client.Ping(ctx).Err()
		if err != nil && uint64(attempt) < o.attempts {
			o.logger.Warn().Err(err).Int("attempt", attempt).Str("addr", redisOpts.Addr).Msg("redis not ready")
		}
		return err
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(o.interval), o.attempts-1)
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
