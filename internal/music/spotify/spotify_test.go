package spotify

import (
	"context"
	"errors"
	"testing"
)

func TestURLClassification(t *testing.T) {
	cases := []struct {
		in              string
		spotify, track  bool
		playlist        bool
	}{
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=x", true, false, true},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", true, true, false},
		{"https://www.youtube.com/watch?v=abc", false, false, false},
		{"lofi beats", false, false, false},
	}
	for _, c := range cases {
		if got := IsSpotifyURL(c.in); got != c.spotify {
			t.Errorf("IsSpotifyURL(%q) = %v, want %v", c.in, got, c.spotify)
		}
		if got := IsTrackURL(c.in); got != c.track {
			t.Errorf("IsTrackURL(%q) = %v, want %v", c.in, got, c.track)
		}
		if got := IsPlaylistURL(c.in); got != c.playlist {
			t.Errorf("IsPlaylistURL(%q) = %v, want %v", c.in, got, c.playlist)
		}
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), "", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New without credentials = %v, want ErrNotConfigured", err)
	}
}
