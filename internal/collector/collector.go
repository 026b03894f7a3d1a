// Package collector orchestrates message retrieval: it enumerates a guild's
// text channels and fetches each one's in-window messages independently.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/discord-day-summarizer/internal/discord"
	"github.com/discord-day-summarizer/internal/events"
	"github.com/discord-day-summarizer/internal/models"
	"github.com/rs/zerolog"
)

// ErrServerUnreachable means the target guild could not be resolved. It is
// fatal and surfaces before any per-channel fetching starts.
var ErrServerUnreachable = errors.New("server unreachable")

// GuildAPI is the slice of the Discord transport the collector needs.
type GuildAPI interface {
	Guild(ctx context.Context, guildID string) (discord.Guild, error)
	GuildChannels(ctx context.Context, guildID string) ([]models.ChannelRef, error)
	FetchMessages(ctx context.Context, channelID string, window models.TimeWindow, limit int) ([]models.Message, error)
}

// Result is the retrieval outcome: per-channel message sets for every
// channel with at least one in-window message, plus the failures that were
// skipped.
type Result struct {
	ServerName string
	Channels   []models.ChannelRef         // channels with messages, in listing order
	Messages   map[string][]models.Message // keyed by channel name
	Skipped    map[string]error            // per-channel fetch failures
	Total      int
}

// Collector fetches all channels of a guild for one time window.
type Collector struct {
	api           GuildAPI
	maxPerChannel int
	workers       int
	sink          events.Sink
	logger        zerolog.Logger
}

// New creates a collector. workers bounds concurrent channel fetches; values
// below 1 are treated as 1.
func New(api GuildAPI, maxPerChannel, workers int, sink events.Sink, logger zerolog.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		api:           api,
		maxPerChannel: maxPerChannel,
		workers:       workers,
		sink:          sink,
		logger:        logger.With().Str("component", "collector").Logger(),
	}
}

// Run retrieves the guild's messages for the window. A single channel's
// authorization or transport failure is recorded in Result.Skipped and never
// aborts the run; only guild resolution itself is fatal.
func (c *Collector) Run(ctx context.Context, guildID string, window models.TimeWindow) (*Result, error) {
	guild, err := c.api.Guild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: guild %s: %w", ErrServerUnreachable, guildID, err)
	}
	c.sink.Eventf("Connected to server: %s", guild.Name)

	channels, err := c.api.GuildChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing channels of %s: %w", ErrServerUnreachable, guildID, err)
	}
	c.sink.Eventf("Found %d text channels", len(channels))
	c.sink.Eventf("Fetching messages for %s", window.String())

	result := &Result{
		ServerName: guild.Name,
		Messages:   make(map[string][]models.Message),
		Skipped:    make(map[string]error),
	}

	fetched := make([][]models.Message, len(channels))
	fetchErrs := make([]error, len(channels))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.workers)
	done := 0
	var mu sync.Mutex

	for i, ch := range channels {
		// Cooperative cancellation between channels, never mid-request.
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ch models.ChannelRef) {
			defer wg.Done()
			defer func() { <-sem }()

			msgs, err := c.api.FetchMessages(ctx, ch.ID, window, c.maxPerChannel)
			fetched[i] = msgs
			fetchErrs[i] = err

			mu.Lock()
			done++
			c.sink.Progress(float64(done) / float64(len(channels)))
			mu.Unlock()

			switch {
			case err != nil:
				c.sink.Eventf("Skipping #%s: %v", ch.Name, err)
			case len(msgs) > 0:
				c.sink.Eventf("Found %d messages in #%s", len(msgs), ch.Name)
			default:
				c.sink.Eventf("No messages in #%s", ch.Name)
			}
		}(i, ch)
	}
	wg.Wait()

	for i, ch := range channels {
		if err := fetchErrs[i]; err != nil {
			result.Skipped[ch.Name] = err
			c.logger.Warn().Err(err).Str("channel", ch.Name).Msg("Channel skipped")
			continue
		}
		if len(fetched[i]) == 0 {
			continue
		}
		result.Channels = append(result.Channels, ch)
		result.Messages[ch.Name] = fetched[i]
		result.Total += len(fetched[i])
	}

	c.sink.Eventf("Total messages collected: %d across %d channels", result.Total, len(result.Channels))
	c.logger.Info().
		Str("guild", guild.Name).
		Int("channels", len(result.Channels)).
		Int("skipped", len(result.Skipped)).
		Int("messages", result.Total).
		Msg("Retrieval completed")

	return result, nil
}
