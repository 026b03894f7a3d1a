// Package dates resolves loosely-formatted date expressions into a validated
// UTC time window for a single summarizer run.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/discord-day-summarizer/internal/models"
)

// MaxWindowDays caps the span of a resolved window. Fetch cost and backend
// cost both scale with the window, and very old channels risk long pagination
// walks, so unbounded windows are rejected up front.
const MaxWindowDays = 30

var (
	// ErrInvalidDateFormat is returned when an expression does not match the
	// accepted grammar: YYYY-MM-DD, "today", "yesterday", or "N days ago".
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidRange is returned when the parsed bounds are out of order or
	// span more than MaxWindowDays.
	ErrInvalidRange = errors.New("invalid date range")
)

const dateLayout = "2006-01-02"

// Resolve turns optional start/end expressions into a validated TimeWindow.
// Empty strings mean "not provided". With neither side given the window is
// exactly yesterday, midnight to midnight. With only a start, the end snaps
// to end-of-day of the same calendar date. With only an end, the start
// defaults to midnight one day before now.
func Resolve(startExpr, endExpr string, now time.Time) (models.TimeWindow, error) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	startExpr = strings.TrimSpace(startExpr)
	endExpr = strings.TrimSpace(endExpr)

	// Default window: yesterday, midnight to midnight.
	if startExpr == "" && endExpr == "" {
		return models.TimeWindow{
			Start: midnight.AddDate(0, 0, -1),
			End:   midnight,
		}, nil
	}

	var start, end time.Time

	if startExpr != "" {
		t, err := parseExpr(startExpr, midnight, false)
		if err != nil {
			return models.TimeWindow{}, fmt.Errorf("%w: start date %q (use YYYY-MM-DD, \"today\", \"yesterday\", or \"N days ago\")", ErrInvalidDateFormat, startExpr)
		}
		start = t
	} else {
		start = midnight.AddDate(0, 0, -1)
	}

	if endExpr != "" {
		t, err := parseExpr(endExpr, midnight, true)
		if err != nil {
			return models.TimeWindow{}, fmt.Errorf("%w: end date %q (use YYYY-MM-DD, \"today\", \"yesterday\", or \"N days ago\")", ErrInvalidDateFormat, endExpr)
		}
		end = t
	} else {
		// End of the same calendar date as the resolved start.
		end = endOfDay(start)
	}

	if !start.Before(end) {
		return models.TimeWindow{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRange, start.Format(dateLayout), end.Format(dateLayout))
	}

	if days := int(end.Sub(start).Hours() / 24); days > MaxWindowDays {
		return models.TimeWindow{}, fmt.Errorf("%w: %d days exceeds the %d day maximum", ErrInvalidRange, days, MaxWindowDays)
	}

	return models.TimeWindow{Start: start, End: end}, nil
}

// parseExpr resolves one side of the window. Start bounds resolve to
// midnight, end bounds to end-of-day, both in UTC.
func parseExpr(expr string, midnight time.Time, isEnd bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, expr, time.UTC); err == nil {
		if isEnd {
			return endOfDay(t), nil
		}
		return t, nil
	}

	base := midnight
	if isEnd {
		base = endOfDay(midnight)
	}

	switch expr {
	case "today":
		return base, nil
	case "yesterday":
		return base.AddDate(0, 0, -1), nil
	}

	if n, ok := parseDaysAgo(expr); ok {
		return base.AddDate(0, 0, -n), nil
	}

	return time.Time{}, ErrInvalidDateFormat
}

// parseDaysAgo matches "N days ago" with non-negative N.
func parseDaysAgo(expr string) (int, bool) {
	rest, found := strings.CutSuffix(expr, " days ago")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// endOfDay returns 23:59:59.999999 UTC on t's calendar date, matching the
// microsecond granularity of the source timestamps.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999000, time.UTC)
}
