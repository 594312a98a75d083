package spotify

// RecentlyPlayedResponse mirrors the /me/player/recently-played payload.
type RecentlyPlayedResponse struct {
	Items []PlayItem `json:"items"`
}

// PlayItem is one raw play record: the track plus the UTC instant it was
// played. PlayedAt arrives with or without fractional seconds.
type PlayItem struct {
	Track    Track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

type Track struct {
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMs int64    `json:"duration_ms"`
}

type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type Album struct {
	Name string `json:"name"`
}
