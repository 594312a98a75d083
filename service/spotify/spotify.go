package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	spotifyauth "golang.org/x/oauth2/spotify"
	"golang.org/x/time/rate"
)

const defaultAPIBase = "https://api.spotify.com/v1"

// ErrNoRefreshToken is returned when no stored refresh credential is
// configured. There is no interactive auth flow here; the token must be
// obtained out-of-band and provided via configuration.
var ErrNoRefreshToken = errors.New("spotify: refresh token not set, authenticate locally and store the refresh token")

// Client calls the Spotify Web API with a bearer token refreshed on demand
// from the stored refresh credential.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiBase    string
	logger     *slog.Logger
}

// NewClient builds a client around an oauth2 token source seeded with the
// refresh token, so access tokens are refreshed transparently as they expire.
func NewClient(clientID, clientSecret, redirectURI, refreshToken string, logger *slog.Logger) (*Client, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"user-read-recently-played"},
		Endpoint:     spotifyauth.Endpoint,
	}

	token := &oauth2.Token{RefreshToken: refreshToken}

	return &Client{
		httpClient: conf.Client(context.Background(), token),
		// Spotify rate-limits per rolling 30s window; stay well under it
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		apiBase: defaultAPIBase,
		logger:  logger,
	}, nil
}

// RecentlyPlayed fetches up to limit recently played tracks, newest first.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]PlayItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/me/player/recently-played?limit=%d", c.apiBase, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get recently played: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("spotify API error (%d): %s", resp.StatusCode, body)
	}

	var response RecentlyPlayedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode recently played: %w", err)
	}

	c.logger.Info("fetched recently played tracks", "count", len(response.Items))
	return response.Items, nil
}
