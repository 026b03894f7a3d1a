// Package report renders a finished RunResult as markdown and as a styled
// HTML document, and writes both to disk.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/discord-day-summarizer/internal/models"
	"github.com/discord-day-summarizer/internal/summary"
)

// Title picks a report heading based on the window's shape.
func Title(window models.TimeWindow, now time.Time) string {
	startDate := window.Start.Format("2006-01-02")
	if window.SameDay() {
		if startDate == now.UTC().Format("2006-01-02") {
			return "Daily Standup - " + startDate
		}
		return "Team Update - " + startDate
	}
	if window.Days() <= 7 {
		return "Weekly Report - " + startDate
	}
	return "Team Report - " + startDate
}

// FilenameBase builds the shared stem for the report's output files.
func FilenameBase(window models.TimeWindow, now time.Time) string {
	start := window.Start.Format("2006-01-02")
	end := window.End.Format("2006-01-02")
	stamp := now.Format("150405")
	if start == end {
		return fmt.Sprintf("summary_%s_%s", start, stamp)
	}
	return fmt.Sprintf("summary_%s_to_%s_%s", start, end, stamp)
}

// MarkdownFormatter writes the report as markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the report to w. Channels whose digest is the no-business
// sentinel are omitted.
func (f *MarkdownFormatter) Format(w io.Writer, result models.RunResult, now time.Time) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n## Executive Summary\n%s\n\n## Channel Details\n", Title(result.Window, now), result.AggregateSummary); err != nil {
		return err
	}

	for _, d := range result.Digests {
		if d.Summary == summary.NoBusinessSentinel {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n### #%s\n**Messages:** %d\n\n%s\n\n---\n", d.Channel.Name, d.MessageCount, d.Summary); err != nil {
			return err
		}
	}
	return nil
}
