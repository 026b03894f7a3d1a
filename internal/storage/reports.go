package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/discord-day-summarizer/internal/models"
)

// ReportRecord is a row in the report_archive table.
type ReportRecord struct {
	GuildID      string    `json:"guild_id"`
	ServerName   string    `json:"server_name"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	ChannelCount int       `json:"channel_count"`
	MessageCount int       `json:"message_count"`
	Markdown     string    `json:"markdown"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewReportRecord builds an archive row from a finished run.
func NewReportRecord(guildID, markdown string, result models.RunResult) *ReportRecord {
	return &ReportRecord{
		GuildID:      guildID,
		ServerName:   result.ServerName,
		StartDate:    result.Window.Start.Format("2006-01-02"),
		EndDate:      result.Window.End.Format("2006-01-02"),
		ChannelCount: len(result.Digests),
		MessageCount: result.TotalMessages(),
		Markdown:     markdown,
	}
}

// SaveReport stores a generated report. Uses upsert so regenerating the same
// window overwrites the previous archive row.
func (c *Client) SaveReport(ctx context.Context, rec *ReportRecord) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := c.withRetry(ctx, "save_report", func() error {
		data := map[string]interface{}{
			"guild_id":      rec.GuildID,
			"server_name":   rec.ServerName,
			"start_date":    rec.StartDate,
			"end_date":      rec.EndDate,
			"channel_count": rec.ChannelCount,
			"message_count": rec.MessageCount,
			"markdown":      rec.Markdown,
			"created_at":    rec.CreatedAt,
		}

		_, _, err := c.client.From(reportsTable).
			Insert(data, true, "guild_id,start_date,end_date", "", "").
			Execute()
		if err != nil {
			return fmt.Errorf("failed to upsert report: %w", err)
		}
		return nil
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("guild_id", rec.GuildID).
			Str("start_date", rec.StartDate).
			Msg("Failed to archive report")
		return err
	}

	c.logger.Info().
		Str("guild_id", rec.GuildID).
		Str("start_date", rec.StartDate).
		Str("end_date", rec.EndDate).
		Int("message_count", rec.MessageCount).
		Msg("Report archived")
	return nil
}
