package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spoolfm/spool/models"
	"github.com/spoolfm/spool/service/spotify"
)

// playedAtLayout is the stored wall-clock text format. Lexicographic order
// of this layout equals chronological order, which the estimator relies on.
const playedAtLayout = "2006-01-02 15:04:05"

// Store is the slice of the database the ingestor writes through.
type Store interface {
	UpsertPlay(play *models.Play) error
}

// Source provides raw recently-played records.
type Source interface {
	RecentlyPlayed(ctx context.Context, limit int) ([]spotify.PlayItem, error)
}

// Service pulls one batch of recently played tracks per run and upserts each
// as a play keyed by its formatted local played_at. There is no retry or
// backoff: any failure aborts the run and bubbles to the caller.
type Service struct {
	source Source
	store  Store
	loc    *time.Location
	limit  int
	logger *slog.Logger
}

func NewService(source Source, store Store, loc *time.Location, limit int, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		loc:    loc,
		limit:  limit,
		logger: logger,
	}
}

// Run fetches and stores one batch. It returns the number of plays upserted.
func (s *Service) Run(ctx context.Context) (int, error) {
	s.logger.Info("fetching recently played tracks")

	items, err := s.source.RecentlyPlayed(ctx, s.limit)
	if err != nil {
		return 0, fmt.Errorf("error fetching recently played: %w", err)
	}

	stored := 0
	for _, item := range items {
		play, err := MapPlay(item, s.loc)
		if err != nil {
			return stored, err
		}

		if err := s.store.UpsertPlay(play); err != nil {
			return stored, fmt.Errorf("error storing play %q: %w", play.PlayedAt, err)
		}

		s.logger.Info("stored play",
			"artist", play.Artist, "title", play.Title, "played_at", play.PlayedAt)
		stored++
	}

	return stored, nil
}

// MapPlay converts one raw Spotify record into a stored play: the UTC
// played_at becomes local wall-clock text and the millisecond duration
// becomes "MM:SS". time_taken is left unset; the estimator owns it.
func MapPlay(item spotify.PlayItem, loc *time.Location) (*models.Play, error) {
	playedAt, err := ParsePlayedAt(item.PlayedAt)
	if err != nil {
		return nil, err
	}

	artist := ""
	if len(item.Track.Artists) > 0 {
		artist = item.Track.Artists[0].Name
	}

	return &models.Play{
		Artist:   artist,
		Title:    item.Track.Name,
		Album:    item.Track.Album.Name,
		PlayedAt: playedAt.In(loc).Format(playedAtLayout),
		Duration: FormatDuration(item.Track.DurationMs),
	}, nil
}

// ParsePlayedAt parses a Spotify played_at instant. RFC 3339 parsing accepts
// both the fractional-second and whole-second forms the API emits.
func ParsePlayedAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable played_at %q: %w", s, err)
	}
	return t, nil
}

// FormatDuration renders a millisecond track length as zero-padded "MM:SS",
// truncating to whole seconds.
func FormatDuration(ms int64) string {
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
