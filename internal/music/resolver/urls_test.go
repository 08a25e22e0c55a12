package resolver

import "testing"

func TestIsVideoURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://www.youtube.com/playlist?list=PL123", false},
		{"never gonna give you up", false},
		{"https://open.spotify.com/track/abc", false},
	}
	for _, c := range cases {
		if got := IsVideoURL(c.in); got != c.want {
			t.Errorf("IsVideoURL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsPlaylistURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/playlist?list=PL123", true},
		{"https://www.youtube.com/watch?v=abc&list=PL123", false},
		{"https://www.youtube.com/watch?v=abc", false},
	}
	for _, c := range cases {
		if got := IsPlaylistURL(c.in); got != c.want {
			t.Errorf("IsPlaylistURL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCleanVideoURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123&t=42s&si=track", "https://www.youtube.com/watch?v=abc123"},
		{"https://youtu.be/abc123?t=42", "https://www.youtube.com/watch?v=abc123"},
		{"https://music.youtube.com/watch?v=abc123&feature=share", "https://www.youtube.com/watch?v=abc123"},
		{"https://example.com/watch?v=abc123", "https://example.com/watch?v=abc123"},
	}
	for _, c := range cases {
		if got := CleanVideoURL(c.in); got != c.want {
			t.Errorf("CleanVideoURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
