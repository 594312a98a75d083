package models

// Play represents one observed playback of a track.
//
// PlayedAt is local wall-clock text ("2006-01-02 15:04:05") and doubles as
// the upsert key: two plays sharing a PlayedAt collapse into one record.
// Duration is "MM:SS" track length text. TimeTaken is the backfilled
// listening estimate, nil until computed and never recomputed once set.
type Play struct {
	ID        int64   `json:"id"`
	Artist    string  `json:"artist"`
	Title     string  `json:"title"`
	Album     string  `json:"album"`
	PlayedAt  string  `json:"played_at"`
	Duration  string  `json:"duration"`
	TimeTaken *string `json:"time_taken,omitempty"`
}
