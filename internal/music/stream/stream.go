// Package stream moves audio from YouTube into a Discord voice
// connection: direct URL via the source, ffmpeg to raw PCM, gopus to
// opus frames.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

var ErrNotConnected = errors.New("no voice connection")

// AudioSource fetches the direct audio URL for a watch link.
// Fetched per play, the links expire.
type AudioSource interface {
	StreamURL(ctx context.Context, watchURL string) (string, error)
}

// VoiceSink is the audio transport for one guild.
type VoiceSink struct {
	session *discordgo.Session
	guildID string
	source  AudioSource

	mu sync.Mutex
	vc *discordgo.VoiceConnection
}

func NewVoiceSink(session *discordgo.Session, guildID string, source AudioSource) *VoiceSink {
	return &VoiceSink{
		session: session,
		guildID: guildID,
		source:  source,
	}
}

// Connect joins the voice channel, moving if already connected
// elsewhere. Joining the current channel is a no-op.
func (s *VoiceSink) Connect(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vc != nil && s.vc.ChannelID == channelID {
		return nil
	}
	vc, err := s.session.ChannelVoiceJoin(s.guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("join voice: %w", err)
	}
	s.vc = vc
	return nil
}

func (s *VoiceSink) Disconnect() error {
	s.mu.Lock()
	vc := s.vc
	s.vc = nil
	s.mu.Unlock()
	if vc == nil {
		return nil
	}
	return vc.Disconnect()
}

func (s *VoiceSink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vc != nil
}

// Stream plays one track and blocks until it ends or stop closes.
// paused is polled between frames.
func (s *VoiceSink) Stream(watchURL string, stop <-chan struct{}, paused func() bool) error {
	s.mu.Lock()
	vc := s.vc
	s.mu.Unlock()
	if vc == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	directURL, err := s.source.StreamURL(ctx, watchURL)
	if err != nil {
		return fmt.Errorf("audio url: %w", err)
	}

	pcm, cleanup, err := openPCM(directURL)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("speaking: %w", err)
	}
	defer vc.Speaking(false)

	return sendPCM(pcm, vc, stop, paused)
}
