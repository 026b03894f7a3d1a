package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/discord-day-summarizer/internal/models"
)

const (
	// batchSize is the API's maximum page size for the messages endpoint.
	batchSize = 100

	// scanCeiling bounds total messages examined per channel so pagination
	// terminates even if the cursor prune and the exact filter never agree.
	scanCeiling = 2000
)

// apiMessage is the wire shape of a message as returned by the API.
type apiMessage struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	Timestamp   string            `json:"timestamp"`
	Author      apiAuthor         `json:"author"`
	Attachments []json.RawMessage `json:"attachments"`
	Embeds      []json.RawMessage `json:"embeds"`
	Reference   json.RawMessage   `json:"message_reference"`
}

type apiAuthor struct {
	Username string `json:"username"`
}

type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"`
}

// FetchMessages walks a channel's history backward in time and returns the
// messages whose true timestamps fall inside window, newest first, up to
// limit. The window bounds are converted to synthetic snowflake cursors for
// server-side pruning; because that encoding is approximate, every batch is
// re-filtered against the real timestamps.
//
// An empty result is not an error. Permission problems surface as
// AuthorizationDeniedError and other failures as TransportError, both scoped
// to this channel only.
func (c *Client) FetchMessages(ctx context.Context, channelID string, window models.TimeWindow, limit int) ([]models.Message, error) {
	path := "/channels/" + channelID + "/messages"

	afterCursor := SnowflakeFromTime(window.Start)
	beforeCursor := SnowflakeFromTime(window.End)

	var (
		matched      []models.Message
		totalScanned int
		rateLimited  int
	)

	for len(matched) < limit && totalScanned < scanCeiling {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(min(batchSize, limit-len(matched))))
		query.Set("after", afterCursor)
		query.Set("before", beforeCursor)

		resp, err := c.do(ctx, path, query)
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			// Fall through to batch processing.

		case http.StatusTooManyRequests:
			var body rateLimitBody
			_ = json.NewDecoder(resp.Body).Decode(&body)
			_ = resp.Body.Close()

			rateLimited++
			if c.retry.Exhausted(rateLimited) {
				return nil, &TransportError{Operation: "GET " + path, Status: http.StatusTooManyRequests}
			}

			// The API always sends retry_after, but guard against an empty
			// body so a malformed response cannot cause a busy retry loop.
			delay := time.Duration(body.RetryAfter * float64(time.Second))
			if delay <= 0 {
				delay = time.Second
			}
			c.logger.Warn().
				Str("channel_id", channelID).
				Dur("retry_after", delay).
				Msg("Rate limited, waiting before retry")
			if err := c.sleeper.Sleep(ctx, delay); err != nil {
				return nil, &TransportError{Operation: "GET " + path, Err: err}
			}
			// Re-issue the same request; no cursor advance.
			continue

		case http.StatusForbidden:
			_ = resp.Body.Close()
			return nil, &AuthorizationDeniedError{ChannelID: channelID}

		default:
			status := resp.StatusCode
			_ = resp.Body.Close()
			return nil, &TransportError{Operation: "GET " + path, Status: status}
		}

		var batch []apiMessage
		err = json.NewDecoder(resp.Body).Decode(&batch)
		_ = resp.Body.Close()
		if err != nil {
			return nil, &TransportError{Operation: "GET " + path, Err: err}
		}

		if len(batch) == 0 {
			break
		}
		totalScanned += len(batch)

		// Exact filter pass. Batches arrive newest first, so the first
		// message older than the window start means nothing further back
		// can match.
		foundOlder := false
		for _, raw := range batch {
			ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
			if err != nil {
				continue
			}
			ts = ts.UTC()

			if ts.Before(window.Start) {
				foundOlder = true
				break
			}
			if !ts.After(window.End) {
				matched = append(matched, toMessage(raw, ts))
				if len(matched) >= limit {
					break
				}
			}
		}

		if foundOlder {
			break
		}

		// Advance the cursor to the oldest message of the batch.
		beforeCursor = batch[len(batch)-1].ID

		// A short batch means the channel's history is exhausted.
		if len(batch) < batchSize {
			break
		}
	}

	if totalScanned > 0 && len(matched) == 0 {
		// Legitimately empty: the cursor prune drifted past the window
		// without any exact hit. Observable here, not in the return value.
		c.logger.Debug().
			Str("channel_id", channelID).
			Int("scanned", totalScanned).
			Str("window", window.String()).
			Msg("Scanned messages but none fell inside the window")
	}

	return matched, nil
}

func toMessage(raw apiMessage, ts time.Time) models.Message {
	return models.Message{
		ID:              raw.ID,
		AuthorName:      raw.Author.Username,
		Content:         raw.Content,
		Timestamp:       ts,
		AttachmentCount: len(raw.Attachments),
		EmbedCount:      len(raw.Embeds),
		IsReply:         len(raw.Reference) > 0 && string(raw.Reference) != "null",
	}
}
