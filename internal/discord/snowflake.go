package discord

import (
	"strconv"
	"time"
)

// Epoch is the millisecond timebase of Discord message IDs
// (2015-01-01T00:00:00Z). IDs encode their creation time as
// (unix_ms - Epoch) << 22.
const Epoch int64 = 1420070400000

const timestampShift = 22

// SnowflakeFromTime builds a synthetic message ID whose encoded timestamp is
// t. Used to translate window bounds into cursor space for server-side
// pruning; the encoding is approximate relative to true message timestamps,
// so results still pass through an exact filter.
func SnowflakeFromTime(t time.Time) string {
	ms := t.UnixMilli() - Epoch
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<timestampShift, 10)
}

// TimeFromSnowflake recovers the creation instant encoded in a message ID.
func TimeFromSnowflake(id string) (time.Time, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli((n >> timestampShift) + Epoch).UTC(), nil
}
