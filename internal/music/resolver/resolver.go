// Package resolver turns user input (YouTube links, playlist links or
// free-text searches) into playable track metadata. Metadata lookups
// go through the YouTube innertube client; free text goes through the
// search client first to find a video ID.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/ppalone/ytsearch"

	"quaver/internal/music/queue"
)

var (
	ErrNoResults  = errors.New("no search results")
	ErrNoAudio    = errors.New("video has no audio formats")
	ErrNotYouTube = errors.New("unsupported URL, only YouTube links work")
)

type Client struct {
	yt     *youtube.Client
	search *ytsearch.Client
}

func New() *Client {
	return &Client{
		yt: &youtube.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		},
		search: ytsearch.NewClient(nil),
	}
}

// Resolve maps a search key to track metadata. The returned URL is the
// canonical watch link; the direct audio URL is fetched per play via
// StreamURL because those expire.
func (c *Client) Resolve(ctx context.Context, query string) (queue.Resolved, error) {
	if isURL(query) {
		if !IsYouTubeURL(query) || !IsVideoURL(query) {
			return queue.Resolved{}, ErrNotYouTube
		}
		return c.resolveWatchURL(ctx, CleanVideoURL(query))
	}

	watchURL, err := c.searchFirst(ctx, query)
	if err != nil {
		return queue.Resolved{}, err
	}
	return c.resolveWatchURL(ctx, watchURL)
}

func (c *Client) resolveWatchURL(ctx context.Context, watchURL string) (queue.Resolved, error) {
	video, err := c.yt.GetVideoContext(ctx, watchURL)
	if err != nil {
		return queue.Resolved{}, fmt.Errorf("fetch video: %w", err)
	}
	return queue.Resolved{
		URL:      watchURL,
		Title:    video.Title,
		Duration: video.Duration,
	}, nil
}

func (c *Client) searchFirst(ctx context.Context, query string) (string, error) {
	res, err := c.search.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	for _, v := range res.Results {
		if v.VideoID != "" {
			return WatchURL(v.VideoID), nil
		}
	}
	return "", ErrNoResults
}

// StreamURL fetches a direct audio URL for a watch link, picked from
// the audio-channel formats.
func (c *Client) StreamURL(ctx context.Context, watchURL string) (string, error) {
	video, err := c.yt.GetVideoContext(ctx, watchURL)
	if err != nil {
		return "", fmt.Errorf("fetch video: %w", err)
	}
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", ErrNoAudio
	}
	streamURL, err := c.yt.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return "", fmt.Errorf("stream url: %w", err)
	}
	return streamURL, nil
}

// Playlist expands a playlist link into its title and the ordered
// watch links of its videos. The links become pending queue entries,
// resolved one by one in the background.
func (c *Client) Playlist(ctx context.Context, playlistURL string) (string, []string, error) {
	pl, err := c.yt.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return "", nil, fmt.Errorf("fetch playlist: %w", err)
	}
	keys := make([]string, 0, len(pl.Videos))
	for _, v := range pl.Videos {
		if v == nil || v.ID == "" {
			continue
		}
		keys = append(keys, WatchURL(v.ID))
	}
	if len(keys) == 0 {
		return pl.Title, nil, errors.New("playlist has no videos")
	}
	return pl.Title, keys, nil
}
