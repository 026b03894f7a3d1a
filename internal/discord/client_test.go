package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/discord-day-summarizer/internal/models"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func mustWindow(day time.Time) models.TimeWindow {
	return models.TimeWindow{
		Start: day,
		End:   day.Add(24*time.Hour - time.Microsecond),
	}
}

func TestNewClient_StripsTokenQuotes(t *testing.T) {
	c := NewClient(` "my-token" `, testLogger())
	if c.token != "my-token" {
		t.Errorf("token = %q, want my-token", c.token)
	}
}

func TestGuild(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/guilds/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Guild{ID: "42", Name: "Acme Team"})
	}))
	defer srv.Close()

	g, err := clientFor(srv).Guild(context.Background(), "42")
	if err != nil {
		t.Fatalf("guild: %v", err)
	}
	if g.Name != "Acme Team" {
		t.Errorf("name = %q, want Acme Team", g.Name)
	}
}

func TestGuild_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := clientFor(srv).Guild(context.Background(), "42")

	var terr *TransportError
	if !errors.As(err, &terr) || terr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want TransportError with status 404", err)
	}
}

func TestGuildChannels_FiltersTextOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "1", "name": "general", "type": 0},
			{"id": "2", "name": "voice-lounge", "type": 2},
			{"id": "3", "name": "eng", "type": 0},
			{"id": "4", "name": "projects", "type": 4},
		})
	}))
	defer srv.Close()

	channels, err := clientFor(srv).GuildChannels(context.Background(), "42")
	if err != nil {
		t.Fatalf("channels: %v", err)
	}

	if len(channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(channels))
	}
	if channels[0].Name != "general" || channels[1].Name != "eng" {
		t.Errorf("channels = %v", channels)
	}
}

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "7", Username: "reporter", Discriminator: "0001"})
	}))
	defer srv.Close()

	u, err := clientFor(srv).Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if u.Username != "reporter" {
		t.Errorf("username = %q", u.Username)
	}
}
