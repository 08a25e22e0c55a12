// Package spotify maps Spotify track and playlist links to plain
// "title artist" search queries. Nothing streams from Spotify; the
// queries feed the YouTube resolver like any typed search.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	playlistPattern = regexp.MustCompile(`open\.spotify\.com/playlist/([a-zA-Z0-9]+)`)
	trackPattern    = regexp.MustCompile(`open\.spotify\.com/track/([a-zA-Z0-9]+)`)

	ErrNotConfigured = errors.New("spotify credentials not configured")
)

func IsSpotifyURL(s string) bool {
	return strings.Contains(s, "open.spotify.com/")
}

func IsPlaylistURL(s string) bool {
	return playlistPattern.MatchString(s)
}

func IsTrackURL(s string) bool {
	return trackPattern.MatchString(s)
}

type Client struct {
	api spotify.Client
}

// New builds a client-credentials API client. The underlying HTTP
// client refreshes its token on its own.
func New(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}
	if _, err := cfg.Token(ctx); err != nil {
		return nil, fmt.Errorf("spotify auth: %w", err)
	}
	return &Client{api: spotify.NewClient(cfg.Client(ctx))}, nil
}

// TrackQuery turns a track link into a search query.
func (c *Client) TrackQuery(trackURL string) (string, error) {
	m := trackPattern.FindStringSubmatch(trackURL)
	if m == nil {
		return "", errors.New("not a spotify track link")
	}
	track, err := c.api.GetTrack(spotify.ID(m[1]))
	if err != nil {
		return "", fmt.Errorf("fetch track: %w", err)
	}
	return trackQuery(track.Name, track.Artists), nil
}

// PlaylistQueries turns a playlist link into its name and one search
// query per track, in playlist order.
func (c *Client) PlaylistQueries(playlistURL string) (string, []string, error) {
	m := playlistPattern.FindStringSubmatch(playlistURL)
	if m == nil {
		return "", nil, errors.New("not a spotify playlist link")
	}
	pl, err := c.api.GetPlaylist(spotify.ID(m[1]))
	if err != nil {
		return "", nil, fmt.Errorf("fetch playlist: %w", err)
	}

	queries := make([]string, 0, len(pl.Tracks.Tracks))
	for _, pt := range pl.Tracks.Tracks {
		if pt.Track.Name == "" {
			continue
		}
		queries = append(queries, trackQuery(pt.Track.Name, pt.Track.Artists))
	}
	if len(queries) == 0 {
		return pl.Name, nil, errors.New("playlist has no tracks")
	}
	return pl.Name, queries, nil
}

func trackQuery(name string, artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return name
	}
	return name + " " + artists[0].Name
}
