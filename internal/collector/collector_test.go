package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/discord-day-summarizer/internal/discord"
	"github.com/discord-day-summarizer/internal/events"
	"github.com/discord-day-summarizer/internal/models"
	"github.com/rs/zerolog"
)

type fakeAPI struct {
	guildErr error
	channels []models.ChannelRef
	messages map[string][]models.Message // keyed by channel ID
	errs     map[string]error            // keyed by channel ID
}

func (f *fakeAPI) Guild(_ context.Context, guildID string) (discord.Guild, error) {
	if f.guildErr != nil {
		return discord.Guild{}, f.guildErr
	}
	return discord.Guild{ID: guildID, Name: "Acme Team"}, nil
}

func (f *fakeAPI) GuildChannels(context.Context, string) ([]models.ChannelRef, error) {
	return f.channels, nil
}

func (f *fakeAPI) FetchMessages(_ context.Context, channelID string, _ models.TimeWindow, _ int) ([]models.Message, error) {
	if err := f.errs[channelID]; err != nil {
		return nil, err
	}
	return f.messages[channelID], nil
}

var window = models.TimeWindow{
	Start: time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
}

func someMessages(n int) []models.Message {
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{
			ID:        "1",
			Content:   "hello",
			Timestamp: window.Start.Add(time.Duration(i) * time.Minute),
		}
	}
	return msgs
}

func collectorFor(api GuildAPI) *Collector {
	return New(api, 1000, 2, events.NullSink{}, zerolog.Nop())
}

func TestRun_CollectsNonEmptyChannels(t *testing.T) {
	api := &fakeAPI{
		channels: []models.ChannelRef{
			{ID: "1", Name: "general"},
			{ID: "2", Name: "quiet"},
			{ID: "3", Name: "eng"},
		},
		messages: map[string][]models.Message{
			"1": someMessages(3),
			"3": someMessages(5),
		},
	}

	result, err := collectorFor(api).Run(context.Background(), "42", window)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.ServerName != "Acme Team" {
		t.Errorf("server = %q", result.ServerName)
	}
	if len(result.Channels) != 2 {
		t.Fatalf("channels = %d, want 2 (empty channel excluded)", len(result.Channels))
	}
	// Listing order is preserved despite concurrent fetches.
	if result.Channels[0].Name != "general" || result.Channels[1].Name != "eng" {
		t.Errorf("channel order = %v", result.Channels)
	}
	if result.Total != 8 {
		t.Errorf("total = %d, want 8", result.Total)
	}
	if len(result.Messages["eng"]) != 5 {
		t.Errorf("eng messages = %d, want 5", len(result.Messages["eng"]))
	}
}

func TestRun_DeniedChannelIsSkippedNotFatal(t *testing.T) {
	api := &fakeAPI{
		channels: []models.ChannelRef{
			{ID: "1", Name: "private"},
			{ID: "2", Name: "eng"},
		},
		messages: map[string][]models.Message{
			"2": someMessages(4),
		},
		errs: map[string]error{
			"1": &discord.AuthorizationDeniedError{ChannelID: "1"},
		},
	}

	result, err := collectorFor(api).Run(context.Background(), "42", window)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Channels) != 1 || result.Channels[0].Name != "eng" {
		t.Errorf("channels = %v, want only eng", result.Channels)
	}

	skipErr, ok := result.Skipped["private"]
	if !ok {
		t.Fatal("private channel not recorded as skipped")
	}
	var denied *discord.AuthorizationDeniedError
	if !errors.As(skipErr, &denied) {
		t.Errorf("skip err = %v, want AuthorizationDeniedError", skipErr)
	}
}

func TestRun_GuildFailureIsServerUnreachable(t *testing.T) {
	api := &fakeAPI{
		guildErr: &discord.TransportError{Operation: "GET /guilds/42", Status: 500},
	}

	_, err := collectorFor(api).Run(context.Background(), "42", window)
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("err = %v, want ErrServerUnreachable", err)
	}

	// The transport cause stays reachable through the sentinel wrap.
	var terr *discord.TransportError
	if !errors.As(err, &terr) || terr.Status != 500 {
		t.Fatalf("err = %v, want wrapped TransportError with status 500", err)
	}
}

// blockingAPI parks every fetch until the context is cancelled, reporting
// which channels were started.
type blockingAPI struct {
	fakeAPI
	started chan string
}

func (b *blockingAPI) FetchMessages(ctx context.Context, channelID string, _ models.TimeWindow, _ int) ([]models.Message, error) {
	b.started <- channelID
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRun_CancellationStopsSchedulingChannels(t *testing.T) {
	api := &blockingAPI{
		fakeAPI: fakeAPI{
			channels: []models.ChannelRef{
				{ID: "1", Name: "general"},
				{ID: "2", Name: "eng"},
				{ID: "3", Name: "random"},
			},
		},
		started: make(chan string, 3),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		// One worker: the dispatch loop cannot move past the in-flight
		// channel until its fetch completes.
		result, err := New(api, 1000, 1, events.NullSink{}, zerolog.Nop()).Run(ctx, "42", window)
		done <- outcome{result, err}
	}()

	// Cancel while the first fetch is in flight.
	first := <-api.started
	if first != "1" {
		t.Fatalf("first fetch = %q, want channel 1", first)
	}
	cancel()

	var got outcome
	select {
	case got = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
	if got.err != nil {
		t.Fatalf("run: %v", got.err)
	}

	// The dispatch loop saw the cancellation before reaching the last
	// channel; its fetch was never started.
	close(api.started)
	for id := range api.started {
		if id == "3" {
			t.Error("channel 3 was fetched after cancellation")
		}
	}

	if len(got.result.Channels) != 0 {
		t.Errorf("channels = %v, want none", got.result.Channels)
	}
	if skipErr := got.result.Skipped["general"]; !errors.Is(skipErr, context.Canceled) {
		t.Errorf("general skip err = %v, want context.Canceled", skipErr)
	}
}
