package provider

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifyClient searches the Spotify catalog with an app-only
// (client credentials) token. The oauth2 transport refreshes it on expiry.
type SpotifyClient struct {
	client *spotify.Client
}

var _ Provider = (*SpotifyClient)(nil)

func NewSpotifyClient(ctx context.Context, clientID, clientSecret string) *SpotifyClient {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return NewSpotifyClientWith(spotify.New(cfg.Client(ctx)))
}

func NewSpotifyClientWith(client *spotify.Client) *SpotifyClient {
	return &SpotifyClient{client: client}
}

func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]TrackMetadata, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}

	res, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	if res.Tracks == nil {
		return []TrackMetadata{}, nil
	}

	out := make([]TrackMetadata, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		out = append(out, mapSpotifyTrack(t))
	}
	return out, nil
}

func mapSpotifyTrack(t spotify.FullTrack) TrackMetadata {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	thumb := ""
	if len(t.Album.Images) > 0 {
		thumb = t.Album.Images[0].URL
	}
	return TrackMetadata{
		SongID:          t.ID.String(),
		Title:           t.Name,
		Artist:          artist,
		Album:           t.Album.Name,
		ReleaseDate:     t.Album.ReleaseDate,
		DurationSeconds: int(t.Duration) / 1000,
		ThumbnailURL:    thumb,
		Explicit:        t.Explicit,
		PreviewURL:      t.PreviewURL,
	}
}
