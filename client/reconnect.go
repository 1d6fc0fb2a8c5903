package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Reconnect defaults
const (
	DefaultReconnectInitial  = 2 * time.Second
	DefaultReconnectMax      = 10 * time.Second
	DefaultReconnectAttempts = 3
)

type reconnectPolicy struct {
	initial  time.Duration
	max      time.Duration
	attempts int
}

func defaultReconnectPolicy() reconnectPolicy {
	return reconnectPolicy{
		initial:  DefaultReconnectInitial,
		max:      DefaultReconnectMax,
		attempts: DefaultReconnectAttempts,
	}
}

func (p reconnectPolicy) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.initial > 0 {
		b.InitialInterval = p.initial
	}
	if p.max > 0 {
		b.MaxInterval = p.max
	}
	b.MaxElapsedTime = 0
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Reconnect re-opens the connection with the configuration of the last
// Connect call, retrying with exponential backoff. It returns nil
// immediately when already connected.
func (c *Client) Reconnect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}
	cfg, ok := c.Config()
	if !ok {
		return NewStateError("reconnect", c.Status(), ErrNoConfig)
	}

	attempt := 0
	op := func() error {
		attempt++
		err := c.Connect(ctx, cfg)
		switch {
		case err == nil:
			return nil
		case IsStateError(err), IsCanceled(err), errors.Is(err, ErrInvalidConfig):
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("reconnect attempt %d/%d failed: %v; retrying in %v",
			attempt, c.reconnect.attempts, err, wait.Round(time.Millisecond))
	}

	if err := backoff.RetryNotify(op, c.reconnect.backoff(ctx), notify); err != nil {
		c.logger.Error("reconnect to %s gave up after %d attempt(s): %v", cfg.URL, attempt, err)
		return err
	}
	c.logger.Info("reconnected to %s after %d attempt(s)", cfg.URL, attempt)
	return nil
}
