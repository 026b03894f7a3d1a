// Package summary turns retrieved channel messages into per-channel digests
// and one aggregate executive summary.
package summary

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/discord-day-summarizer/internal/events"
	"github.com/discord-day-summarizer/internal/llm"
	"github.com/discord-day-summarizer/internal/models"
	"github.com/rs/zerolog"
)

// thinkingRe matches inline reasoning markup some models emit. Matches are
// demoted visually, never discarded.
var thinkingRe = regexp.MustCompile(`(?is)<think>.*?</think>`)

// Pipeline runs the two summarization passes: one backend call per channel
// with messages, then a single aggregate call over the non-sentinel digests.
type Pipeline struct {
	gen     llm.Generator
	workers int
	sink    events.Sink
	logger  zerolog.Logger
}

// New creates a pipeline. workers bounds how many channel digests are
// generated concurrently; values below 1 are treated as 1.
func New(gen llm.Generator, workers int, sink events.Sink, logger zerolog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		gen:     gen,
		workers: workers,
		sink:    sink,
		logger:  logger.With().Str("component", "summary").Logger(),
	}
}

// Summarize produces the RunResult for the given channel messages. Channels
// are independent work items; per-channel backend failures degrade to error
// text in that channel's digest and never abort the run. The aggregate pass
// starts only after every channel digest has resolved.
func (p *Pipeline) Summarize(ctx context.Context, window models.TimeWindow, serverName string, channels []models.ChannelRef, messages map[string][]models.Message) models.RunResult {
	result := models.RunResult{
		Window:     window,
		ServerName: serverName,
	}

	digests := make([]models.ChannelDigest, len(channels))

	active := 0
	for _, ch := range channels {
		if len(messages[ch.Name]) > 0 {
			active++
		}
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	done := 0
	var mu sync.Mutex

	for i, ch := range channels {
		msgs := messages[ch.Name]
		if len(msgs) == 0 {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ch models.ChannelRef, msgs []models.Message) {
			defer wg.Done()
			defer func() { <-sem }()

			p.sink.Eventf("Analyzing #%s (%d messages)...", ch.Name, len(msgs))
			digests[i] = p.summarizeChannel(ctx, ch, msgs)

			mu.Lock()
			done++
			p.sink.Progress(float64(done) / float64(active))
			mu.Unlock()
		}(i, ch, msgs)
	}
	wg.Wait()

	for i := range digests {
		if digests[i].MessageCount > 0 {
			result.Digests = append(result.Digests, digests[i])
		}
	}

	p.sink.Eventf("Generating overall summary...")
	result.AggregateSummary = p.aggregate(ctx, serverName, result.Digests)

	p.logger.Info().
		Str("window", window.String()).
		Int("channels", len(result.Digests)).
		Int("messages", result.TotalMessages()).
		Msg("Summarization completed")

	return result
}

// summarizeChannel runs the per-channel pass: transcript, one backend call,
// thinking-markup demotion. Empty transcripts short-circuit without a call.
func (p *Pipeline) summarizeChannel(ctx context.Context, ch models.ChannelRef, msgs []models.Message) models.ChannelDigest {
	digest := models.ChannelDigest{
		Channel:      ch,
		MessageCount: len(msgs),
	}

	transcript := Transcript(msgs)
	if strings.TrimSpace(transcript) == "" {
		digest.Summary = NoContentText
		return digest
	}

	prompt := fmt.Sprintf(channelPromptTemplate, ch.Name, transcript)
	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		p.logger.Error().Err(err).Str("channel", ch.Name).Msg("Channel summary generation failed")
		digest.Summary = renderBackendFailure(err)
		return digest
	}

	digest.Summary = demoteThinking(strings.TrimSpace(text))
	return digest
}

// aggregate runs the second pass over all non-sentinel digests. It never
// re-reads raw messages, and it makes no backend call when there is nothing
// to fold.
func (p *Pipeline) aggregate(ctx context.Context, serverName string, digests []models.ChannelDigest) string {
	var combined strings.Builder
	for _, d := range digests {
		if d.Summary == NoBusinessSentinel {
			continue
		}
		fmt.Fprintf(&combined, "\n#%s:\n%s\n", d.Channel.Name, d.Summary)
	}

	if strings.TrimSpace(combined.String()) == "" {
		return NoActivityAllText
	}

	prompt := fmt.Sprintf(overallPromptTemplate, serverName, combined.String())
	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		p.logger.Error().Err(err).Msg("Overall summary generation failed")
		return renderBackendFailure(err)
	}

	return demoteThinking(strings.TrimSpace(text))
}

// Transcript renders messages as one chronological line each, with
// attachment, embed and reply markers appended as bracketed annotations.
// Blank messages are dropped.
func Transcript(msgs []models.Message) string {
	ordered := make([]models.Message, len(msgs))
	copy(ordered, msgs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var sb strings.Builder
	for _, m := range ordered {
		content := m.Content
		if m.AttachmentCount > 0 {
			content += fmt.Sprintf(" [Attachments: %d]", m.AttachmentCount)
		}
		if m.EmbedCount > 0 {
			content += fmt.Sprintf(" [Embeds: %d]", m.EmbedCount)
		}
		if m.IsReply {
			content = "[Reply] " + content
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Timestamp.Format("15:04"), m.AuthorName, content)
	}
	return sb.String()
}

// demoteThinking wraps reasoning markup in a de-emphasized span so the
// report keeps it visible but small.
func demoteThinking(text string) string {
	return thinkingRe.ReplaceAllStringFunc(text, func(m string) string {
		return "<small><i>" + m + "</i></small>"
	})
}

// renderBackendFailure turns a generation error into the visible digest text.
func renderBackendFailure(err error) string {
	return fmt.Sprintf("Error generating summary: %v", err)
}
