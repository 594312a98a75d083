package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spoolfm/spool/db"
	"github.com/spoolfm/spool/models"
	"github.com/spoolfm/spool/notify"
	"github.com/spoolfm/spool/service/ingest"
	"github.com/spoolfm/spool/service/spotify"
	"github.com/spoolfm/spool/service/timetaken"
)

type fakeSource struct {
	items []spotify.PlayItem
	err   error
}

func (f *fakeSource) RecentlyPlayed(ctx context.Context, limit int) ([]spotify.PlayItem, error) {
	return f.items, f.err
}

func newTestApp(t *testing.T, source ingest.Source) (*application, *db.DB) {
	t.Helper()

	database, err := db.New(":memory:", "songs")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	zone := time.FixedZone("SGT", 8*60*60)

	return &application{
		logger:    logger,
		ingestor:  ingest.NewService(source, database, zone, 50, logger),
		estimator: timetaken.NewService(database, logger),
		notifier:  notify.NewWebhook("", logger),
	}, database
}

func TestRunIngestEndpoint(t *testing.T) {
	source := &fakeSource{items: []spotify.PlayItem{
		{
			PlayedAt: "2024-06-01T10:05:00Z",
			Track: spotify.Track{
				Name:       "Test Track",
				Artists:    []spotify.Artist{{Name: "Test Artist"}},
				Album:      spotify.Album{Name: "Test Album"},
				DurationMs: 210000,
			},
		},
	}}

	app, database := newTestApp(t, source)
	defer database.Close()

	req := httptest.NewRequest(http.MethodPost, "/run/ingest", nil)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message string `json:"message"`
		Stored  int    `json:"stored"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Stored != 1 || body.Message == "" {
		t.Errorf("unexpected body: %+v", body)
	}

	count, err := database.CountPlays()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestRunIngestEndpointFailure(t *testing.T) {
	app, database := newTestApp(t, &fakeSource{err: errors.New("auth failure")})
	defer database.Close()

	req := httptest.NewRequest(http.MethodPost, "/run/ingest", nil)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("expected an error body, got %q", rec.Body.String())
	}
}

func TestRunTimeTakenEndpoint(t *testing.T) {
	app, database := newTestApp(t, &fakeSource{})
	defer database.Close()

	seed := []struct {
		playedAt, duration string
	}{
		{"2024-06-01 10:05:00", "3:30"},
		{"2024-06-01 10:02:00", "4:00"},
	}
	for _, s := range seed {
		play := &models.Play{
			Artist:   "Test Artist",
			Title:    "Test Track",
			Album:    "Test Album",
			PlayedAt: s.playedAt,
			Duration: s.duration,
		}
		if err := database.UpsertPlay(play); err != nil {
			t.Fatalf("failed to seed play: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/run/timetaken", nil)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message string            `json:"message"`
		Summary timetaken.Summary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Summary.TotalDocs != 2 || body.Summary.Updated != 2 {
		t.Errorf("unexpected summary: %+v", body.Summary)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app, database := newTestApp(t, &fakeSource{})
	defer database.Close()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Server"); got != "spool" {
		t.Errorf("Server header = %q, want %q", got, "spool")
	}
}
