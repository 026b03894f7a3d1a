// Package storage archives generated reports in Supabase. The archive is
// optional; retrieved messages are never persisted, only the finished
// report.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	supa "github.com/supabase-community/supabase-go"
)

const reportsTable = "report_archive"

// Client is the Supabase archive client.
type Client struct {
	client  *supa.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a Supabase client.
func NewClient(supabaseURL, supabaseKey string, timeout int, logger zerolog.Logger) (*Client, error) {
	client, err := supa.NewClient(supabaseURL, supabaseKey, &supa.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:  client,
		timeout: time.Duration(timeout) * time.Second,
		logger:  logger.With().Str("component", "storage").Logger(),
	}, nil
}

// Ping checks that the archive table is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, _, err := c.client.From(reportsTable).
		Select("id", "exact", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return fmt.Errorf("supabase ping failed: %w", err)
	}

	c.logger.Debug().Msg("Supabase connection successful")
	return nil
}

// withRetry executes a storage operation with a small retry budget.
func (c *Client) withRetry(ctx context.Context, operation string, fn func() error) error {
	maxRetries := 2
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			c.logger.Warn().
				Str("operation", operation).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Retrying operation")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		c.logger.Error().
			Err(lastErr).
			Str("operation", operation).
			Int("attempt", attempt+1).
			Msg("Operation failed")
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operation, maxRetries+1, lastErr)
}
