package models

import "time"

// TimeWindow is a resolved, UTC-normalized pair of instants bounding a run.
// It is constructed once per run by the dates package and never mutated.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Days returns the whole number of days covered by the window.
func (w TimeWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// String formats the window as "YYYY-MM-DD .. YYYY-MM-DD".
func (w TimeWindow) String() string {
	return w.Start.Format("2006-01-02") + " .. " + w.End.Format("2006-01-02")
}

// SameDay reports whether both bounds fall on the same calendar date.
func (w TimeWindow) SameDay() bool {
	return w.Start.Format("2006-01-02") == w.End.Format("2006-01-02")
}

// ChannelRef identifies a text channel of a guild. Channels are enumerated
// fresh each run and never cached.
type ChannelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message is a single chat message as returned by the Discord API.
// The ID is a snowflake: monotonically increasing and time-encoded, which is
// what makes backward cursor pagination possible.
type Message struct {
	ID              string
	AuthorName      string
	Content         string
	Timestamp       time.Time
	AttachmentCount int
	EmbedCount      int
	IsReply         bool
}

// ChannelDigest is the per-channel outcome of the summarization pipeline.
// Summary may carry the no-business-content sentinel, which downstream
// stages filter out of the report and the aggregate pass.
type ChannelDigest struct {
	Channel      ChannelRef
	MessageCount int
	Summary      string
}

// RunResult is the complete outcome of one summarizer invocation.
type RunResult struct {
	Window           TimeWindow
	ServerName       string
	Digests          []ChannelDigest
	AggregateSummary string
}

// TotalMessages returns the message count across all digests.
func (r RunResult) TotalMessages() int {
	total := 0
	for _, d := range r.Digests {
		total += d.MessageCount
	}
	return total
}

// Config holds all runtime configuration. It is built once at process start
// by the config package and passed by value into component constructors; no
// component reads the environment directly.
type Config struct {
	// Discord settings
	DiscordToken          string
	GuildID               string
	MaxMessagesPerChannel int
	FetchWorkers          int

	// Generation backend settings
	LLMBackend     string // "ollama" or "gemini"
	OllamaURL      string
	OllamaModel    string
	GeminiAPIKey   string
	GeminiModel    string
	LLMTimeout     int // seconds
	LLMTemperature float32
	LLMTopP        float32
	LLMMaxTokens   int
	SummaryWorkers int

	// Report output
	OutputDir string

	// Report archive (optional)
	SupabaseURL     string
	SupabaseKey     string
	SupabaseTimeout int

	// Report delivery (optional)
	TelegramToken  string
	TelegramChatID int64

	// Scheduled runs (optional)
	ScheduleCron string

	// App settings
	LogLevel    string
	Environment string
}

// ArchiveEnabled reports whether the Supabase report archive is configured.
func (c Config) ArchiveEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

// NotifyEnabled reports whether Telegram report delivery is configured.
func (c Config) NotifyEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
