package timetaken

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spoolfm/spool/models"
)

const playedAtLayout = "2006-01-02 15:04:05"

// Store is the slice of the database the estimator needs: the full play set
// newest-first, and a targeted single-record update.
type Store interface {
	AllPlaysByRecency() ([]*models.Play, error)
	SetTimeTaken(id int64, value string) error
}

// Summary holds the statistics for one backfill pass. It is the sole
// observable result of a run.
type Summary struct {
	TotalDocs int    `json:"total_docs"`
	Updated   int    `json:"updated"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	Elapsed   string `json:"elapsed"`
}

// Report renders the summary as the plain-text notification body.
func (s *Summary) Report() string {
	return fmt.Sprintf(
		"time_taken calculation completed\n\n"+
			"Total docs: %d\n"+
			"Updated: %d\n"+
			"Skipped: %d\n"+
			"Errors: %d\n"+
			"Elapsed: %s",
		s.TotalDocs, s.Updated, s.Skipped, s.Errors, s.Elapsed)
}

// outcome of processing a single play.
type outcome int

const (
	outcomeUpdated outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Service backfills the time_taken field on stored plays.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Run scans every stored play newest-first and backfills time_taken for each
// play that lacks it. An estimate depends only on the play itself and its
// next-older neighbor, so one linear pass over the sorted set suffices.
// Failures are isolated per play: a malformed record is logged and counted,
// never aborting the pass.
func (s *Service) Run() (*Summary, error) {
	start := time.Now()

	plays, err := s.store.AllPlaysByRecency()
	if err != nil {
		return nil, fmt.Errorf("error loading plays: %w", err)
	}

	summary := &Summary{TotalDocs: len(plays), Elapsed: "00:00"}
	if len(plays) == 0 {
		return summary, nil
	}

	for i, play := range plays {
		var next *models.Play
		if i < len(plays)-1 {
			next = plays[i+1]
		}

		switch s.process(play, next) {
		case outcomeUpdated:
			summary.Updated++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Errors++
		}
	}

	summary.Elapsed = formatElapsed(time.Since(start))

	s.logger.Info("backfill pass complete",
		"total_docs", summary.TotalDocs,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"elapsed", summary.Elapsed)

	return summary, nil
}

// process computes and persists time_taken for one play. next is the
// chronologically next-older play, nil when this play is the oldest in the
// batch. A play that already carries time_taken is left untouched.
func (s *Service) process(play, next *models.Play) outcome {
	if play.TimeTaken != nil {
		return outcomeSkipped
	}

	value, err := estimate(play, next)
	if err != nil {
		s.logger.Error("error estimating time taken", "played_at", play.PlayedAt, "err", err)
		return outcomeFailed
	}

	if err := s.store.SetTimeTaken(play.ID, value); err != nil {
		s.logger.Error("error updating play", "id", play.ID, "err", err)
		return outcomeFailed
	}

	return outcomeUpdated
}

// estimate derives the listening-time text for a play. With no older
// neighbor there is nothing to bound the estimate, so the nominal duration
// is taken verbatim. Otherwise the track cannot have been listened to longer
// than its own length, nor than the wall-clock gap until the next-older play
// started, so the estimate is the smaller of the two.
//
// An out-of-order timestamp makes the gap negative; the result is formatted
// as-is rather than clamped to zero.
func estimate(play, next *models.Play) (string, error) {
	if next == nil {
		return play.Duration, nil
	}

	cur, err := time.Parse(playedAtLayout, play.PlayedAt)
	if err != nil {
		return "", fmt.Errorf("unparseable played_at %q: %w", play.PlayedAt, err)
	}

	older, err := time.Parse(playedAtLayout, next.PlayedAt)
	if err != nil {
		return "", fmt.Errorf("unparseable played_at %q: %w", next.PlayedAt, err)
	}

	gap := int64(cur.Sub(older).Seconds())

	duration, err := ParseClock(play.Duration)
	if err != nil {
		return "", err
	}

	return FormatClock(min(gap, duration)), nil
}

// ParseClock converts "MM:SS" text to total seconds.
func ParseClock(s string) (int64, error) {
	minutes, seconds, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed duration %q", s)
	}

	m, err := strconv.ParseInt(minutes, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed duration %q: %w", s, err)
	}

	sec, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed duration %q: %w", s, err)
	}

	return m*60 + sec, nil
}

// FormatClock renders a second count as minutes and zero-padded seconds,
// minutes unpadded. Division floors toward negative infinity, so a negative
// count carries its sign on the minutes field only ("-1:30" for -30s).
func FormatClock(seconds int64) string {
	m := seconds / 60
	s := seconds % 60
	if s < 0 {
		m--
		s += 60
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatElapsed renders wall time as zero-padded "MM:SS".
func formatElapsed(d time.Duration) string {
	total := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
