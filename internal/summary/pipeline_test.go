package summary

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/discord-day-summarizer/internal/events"
	"github.com/discord-day-summarizer/internal/llm"
	"github.com/discord-day-summarizer/internal/models"
	"github.com/rs/zerolog"
)

// fakeGenerator answers prompts by keyword and records every call.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	answer  func(prompt string) (string, error)
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.answer != nil {
		return g.answer(prompt)
	}
	return "- something happened", nil
}

func (g *fakeGenerator) Model() string { return "fake" }

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

var testWindow = models.TimeWindow{
	Start: time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 7, 14, 23, 59, 59, 999999000, time.UTC),
}

func msg(hour int, author, content string) models.Message {
	return models.Message{
		ID:         "1",
		AuthorName: author,
		Content:    content,
		Timestamp:  time.Date(2025, 7, 14, hour, 0, 0, 0, time.UTC),
	}
}

func pipelineWith(gen llm.Generator) *Pipeline {
	return New(gen, 2, events.NullSink{}, zerolog.Nop())
}

func TestTranscript_ChronologicalWithAnnotations(t *testing.T) {
	msgs := []models.Message{
		msg(15, "bob", "later message"),
		msg(9, "alice", "first message"),
		{
			AuthorName:      "carol",
			Content:         "see the doc",
			Timestamp:       time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC),
			AttachmentCount: 2,
			EmbedCount:      1,
			IsReply:         true,
		},
	}

	got := Transcript(msgs)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "[09:00] alice: first message" {
		t.Errorf("line[0] = %q", lines[0])
	}
	if lines[1] != "[12:00] carol: [Reply] see the doc [Attachments: 2] [Embeds: 1]" {
		t.Errorf("line[1] = %q", lines[1])
	}
	if lines[2] != "[15:00] bob: later message" {
		t.Errorf("line[2] = %q", lines[2])
	}
}

func TestTranscript_DropsBlankMessages(t *testing.T) {
	msgs := []models.Message{
		msg(9, "alice", "   "),
		msg(10, "bob", ""),
	}
	if got := Transcript(msgs); got != "" {
		t.Errorf("transcript = %q, want empty", got)
	}
}

func TestSummarize_EmptyTranscriptSkipsBackend(t *testing.T) {
	gen := &fakeGenerator{}
	channels := []models.ChannelRef{{ID: "1", Name: "general"}}
	messages := map[string][]models.Message{
		"general": {msg(9, "alice", "")},
	}

	result := pipelineWith(gen).Summarize(context.Background(), testWindow, "Acme", channels, messages)

	if len(result.Digests) != 1 {
		t.Fatalf("digests = %d, want 1", len(result.Digests))
	}
	if result.Digests[0].Summary != NoContentText {
		t.Errorf("summary = %q, want no-content text", result.Digests[0].Summary)
	}
	// The only backend call is the aggregate pass; the channel pass
	// short-circuited on the empty transcript.
	if gen.calls() != 1 {
		t.Fatalf("backend calls = %d, want 1", gen.calls())
	}
	gen.mu.Lock()
	onlyPrompt := gen.prompts[0]
	gen.mu.Unlock()
	if !strings.Contains(onlyPrompt, "OVERALL SUMMARY") {
		t.Errorf("unexpected channel-pass prompt: %q", onlyPrompt)
	}
}

func TestSummarize_AllSentinelSkipsAggregateCall(t *testing.T) {
	gen := &fakeGenerator{
		answer: func(string) (string, error) { return NoBusinessSentinel, nil },
	}
	channels := []models.ChannelRef{
		{ID: "1", Name: "general"},
		{ID: "2", Name: "random"},
	}
	messages := map[string][]models.Message{
		"general": {msg(9, "alice", "lol nice meme")},
		"random":  {msg(10, "bob", "gg wp")},
	}

	result := pipelineWith(gen).Summarize(context.Background(), testWindow, "Acme", channels, messages)

	// One call per channel, none for the aggregate.
	if gen.calls() != 2 {
		t.Errorf("backend calls = %d, want 2", gen.calls())
	}
	if result.AggregateSummary != NoActivityAllText {
		t.Errorf("aggregate = %q, want fixed no-activity text", result.AggregateSummary)
	}
}

func TestSummarize_AggregateUsesOnlyNonSentinelDigests(t *testing.T) {
	// "general" is casual, "eng" has a deploy blocker.
	gen := &fakeGenerator{
		answer: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "#general"):
				return NoBusinessSentinel, nil
			case strings.Contains(prompt, "#eng"):
				return "- Deploy blocked on missing credentials", nil
			default:
				// Aggregate pass.
				return "- Engineering is blocked on a deploy issue", nil
			}
		},
	}
	channels := []models.ChannelRef{
		{ID: "1", Name: "general"},
		{ID: "2", Name: "eng"},
	}
	messages := map[string][]models.Message{
		"general": {
			msg(9, "alice", "morning all"),
			msg(10, "bob", "haha"),
			msg(11, "carol", "anyone up for lunch"),
		},
		"eng": {
			msg(9, "dave", "deploy is failing"),
			msg(10, "erin", "looks like the token expired"),
			msg(11, "dave", "blocked until ops rotates it"),
			msg(12, "erin", "filed INC-204"),
			msg(13, "dave", "still blocked"),
		},
	}

	result := pipelineWith(gen).Summarize(context.Background(), testWindow, "Acme", channels, messages)

	if len(result.Digests) != 2 {
		t.Fatalf("digests = %d, want 2", len(result.Digests))
	}
	// Digest order follows channel order.
	if result.Digests[0].Channel.Name != "general" || result.Digests[0].Summary != NoBusinessSentinel {
		t.Errorf("general digest = %+v", result.Digests[0])
	}
	if !strings.Contains(result.Digests[1].Summary, "blocked") {
		t.Errorf("eng digest = %q", result.Digests[1].Summary)
	}

	// The aggregate prompt saw eng's digest text but not general's sentinel
	// and not any raw message.
	var aggregatePrompt string
	gen.mu.Lock()
	for _, p := range gen.prompts {
		if strings.Contains(p, "OVERALL SUMMARY") {
			aggregatePrompt = p
		}
	}
	gen.mu.Unlock()

	if aggregatePrompt == "" {
		t.Fatal("aggregate prompt was never sent")
	}
	if !strings.Contains(aggregatePrompt, "Deploy blocked on missing credentials") {
		t.Error("aggregate prompt missing eng digest")
	}
	if strings.Contains(aggregatePrompt, NoBusinessSentinel) {
		t.Error("aggregate prompt includes sentinel digest")
	}
	if strings.Contains(aggregatePrompt, "token expired") {
		t.Error("aggregate prompt includes raw message content")
	}

	if !strings.Contains(result.AggregateSummary, "blocked") {
		t.Errorf("aggregate = %q", result.AggregateSummary)
	}
}

func TestSummarize_BackendFailureDegradesToErrorText(t *testing.T) {
	gen := &fakeGenerator{
		answer: func(prompt string) (string, error) {
			if strings.Contains(prompt, "#broken") {
				return "", &llm.BackendError{Backend: "ollama", Status: 503}
			}
			return "- useful work happened", nil
		},
	}
	channels := []models.ChannelRef{
		{ID: "1", Name: "broken"},
		{ID: "2", Name: "eng"},
	}
	messages := map[string][]models.Message{
		"broken": {msg(9, "alice", "something")},
		"eng":    {msg(10, "bob", "shipped the release")},
	}

	result := pipelineWith(gen).Summarize(context.Background(), testWindow, "Acme", channels, messages)

	if len(result.Digests) != 2 {
		t.Fatalf("digests = %d, want 2", len(result.Digests))
	}
	if !strings.Contains(result.Digests[0].Summary, "Error generating summary") {
		t.Errorf("broken digest = %q", result.Digests[0].Summary)
	}
	// The failure did not abort the other channel or the aggregate.
	if !strings.Contains(result.Digests[1].Summary, "useful work") {
		t.Errorf("eng digest = %q", result.Digests[1].Summary)
	}
	if result.AggregateSummary == "" || result.AggregateSummary == NoActivityAllText {
		t.Errorf("aggregate = %q", result.AggregateSummary)
	}
}

func TestSummarize_ReportsProgressToSink(t *testing.T) {
	var mu sync.Mutex
	var fractions []float64
	sink := &events.FuncSink{
		ProgressFn: func(f float64) {
			mu.Lock()
			fractions = append(fractions, f)
			mu.Unlock()
		},
	}
	gen := &fakeGenerator{}
	channels := []models.ChannelRef{
		{ID: "1", Name: "general"},
		{ID: "2", Name: "eng"},
	}
	messages := map[string][]models.Message{
		"general": {msg(9, "alice", "hello")},
		"eng":     {msg(10, "bob", "shipped it")},
	}

	New(gen, 1, sink, zerolog.Nop()).Summarize(context.Background(), testWindow, "Acme", channels, messages)

	mu.Lock()
	defer mu.Unlock()
	if len(fractions) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress went backwards: %v", fractions)
		}
	}
	if last := fractions[len(fractions)-1]; last != 1.0 {
		t.Errorf("final progress = %v, want 1.0", last)
	}
}

func TestDemoteThinking(t *testing.T) {
	in := "Before <think>chain of\nthought</think> after"
	got := demoteThinking(in)
	want := "Before <small><i><think>chain of\nthought</think></i></small> after"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Case-insensitive tags are matched too.
	got = demoteThinking("<THINK>x</THINK> done")
	if !strings.HasPrefix(got, "<small><i>") {
		t.Errorf("got %q", got)
	}
}
