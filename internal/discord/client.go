// Package discord is the authenticated HTTP transport for the Discord REST
// API: guild and channel lookup plus cursor-paginated message retrieval.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/discord-day-summarizer/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://discord.com/api/v10"
	requestTimeout = 30 * time.Second
	userAgent      = "DiscordBot (DaySummarizer, 1.0)"

	// channelTypeText is the "kind" value the API uses for guild text
	// channels; everything else (voice, category, forum) is skipped.
	channelTypeText = 0
)

// Client talks to the Discord REST API with a caller-supplied token. The
// token is read-only for the run's duration; the client itself holds no
// other mutable state, so channel fetches may run concurrently.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	sleeper Sleeper
	retry   RetryPolicy
	logger  zerolog.Logger
}

// NewClient creates a Discord API client. Surrounding quotes around the
// token are stripped, a common copy-paste artifact.
func NewClient(token string, logger zerolog.Logger) *Client {
	return &Client{
		token:   strings.Trim(strings.TrimSpace(token), `"'`),
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		sleeper: realSleeper{},
		retry:   RetryPolicy{},
		logger:  logger.With().Str("component", "discord").Logger(),
	}
}

// User is the authenticated account, used for token validation.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// Guild is the target server's metadata.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.getJSON(ctx, "/users/@me", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Guild fetches metadata for a guild by ID.
func (c *Client) Guild(ctx context.Context, guildID string) (Guild, error) {
	var guild Guild
	if err := c.getJSON(ctx, "/guilds/"+guildID, nil, &guild); err != nil {
		return Guild{}, err
	}
	return guild, nil
}

// GuildChannels lists the text channels of a guild, in API order.
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]models.ChannelRef, error) {
	var raw []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type int    `json:"type"`
	}
	if err := c.getJSON(ctx, "/guilds/"+guildID+"/channels", nil, &raw); err != nil {
		return nil, err
	}

	channels := make([]models.ChannelRef, 0, len(raw))
	for _, ch := range raw {
		if ch.Type != channelTypeText {
			continue
		}
		channels = append(channels, models.ChannelRef{ID: ch.ID, Name: ch.Name})
	}

	c.logger.Debug().
		Str("guild_id", guildID).
		Int("text_channels", len(channels)).
		Int("total_channels", len(raw)).
		Msg("Listed guild channels")

	return channels, nil
}

// getJSON issues a single GET and decodes a 200 response into out. Any other
// status becomes a TransportError.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, path, query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Operation: "GET " + path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Operation: "GET " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do issues one authenticated request and returns the raw response. Network
// failures are wrapped as TransportError here; status handling is the
// caller's concern.
func (c *Client) do(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Operation: "GET " + path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: "GET " + path, Err: err}
	}
	return resp, nil
}
