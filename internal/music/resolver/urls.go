package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var youtubeHostPattern = regexp.MustCompile(`(?:https?://)?(?:www\.|music\.)?(youtube\.com|youtu\.be)/\S+`)

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsYouTubeURL matches any youtube.com / youtu.be link.
func IsYouTubeURL(input string) bool {
	return youtubeHostPattern.MatchString(input)
}

// IsVideoURL matches a link to a single video.
func IsVideoURL(s string) bool {
	return strings.Contains(s, "youtube.com/watch?v=") ||
		strings.Contains(s, "music.youtube.com/watch?v=") ||
		strings.Contains(s, "youtu.be/")
}

// IsPlaylistURL matches a playlist link that is not a single watch
// link (watch?v=...&list=... counts as a video, the list tail is noise).
func IsPlaylistURL(s string) bool {
	return strings.Contains(s, "youtube.com/playlist?list=") ||
		(strings.Contains(s, "list=") && !strings.Contains(s, "watch?v="))
}

// CleanVideoURL strips tracking and timestamp params down to the bare
// watch link so queue entries compare and dedupe sanely.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch host := u.Hostname(); host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s", vid)
	case "www.youtube.com", "youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://www.youtube.com/watch?v=%s", vid)
			}
		}
		return raw
	default:
		return raw
	}
}

// WatchURL builds the canonical watch link for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
