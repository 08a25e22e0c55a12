// Package player owns per-guild playback. Each guild gets one Session
// that drives the queue, the background resolver loop and the idle
// reaper. Sessions talk to Discord only through the Sink and Notifier
// interfaces so the whole state machine is testable without a gateway
// connection.
package player

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"quaver/internal/history"
	"quaver/internal/music/queue"
	"quaver/pkg/jobmgr"
)

var (
	ErrNoTrackPlaying  = errors.New("nothing is playing")
	ErrNothingToReplay = errors.New("no current track to replay")
)

const (
	jobResolve = "resolve"
	jobIdle    = "idle"
)

// Sink is the audio transport for one guild. Connect may be called
// again while connected to move channels; Stream blocks until the
// track ends or stop is closed.
type Sink interface {
	Connect(channelID string) error
	Stream(url string, stop <-chan struct{}, paused func() bool) error
	Disconnect() error
	Connected() bool
}

// Resolver turns a search key (URL or free text) into a playable track.
type Resolver interface {
	Resolve(ctx context.Context, query string) (queue.Resolved, error)
}

// Notifier posts user-facing playback messages to a text channel.
type Notifier interface {
	Notify(channelID, message string)
}

// Recorder persists finished play events for the history store.
type Recorder interface {
	Record(p history.Play) error
}

// Config carries the session timing knobs. Tests shrink these.
type Config struct {
	// RetryThreshold is the minimum stream duration below which an
	// ending is treated as an early failure.
	RetryThreshold time.Duration
	// MaxRetries bounds restarts of a track that keeps ending early.
	MaxRetries int
	// IdleTimeout is how long a session may sit idle in voice before
	// the reaper disconnects it.
	IdleTimeout time.Duration
	// ResolvePace limits background resolution lookups.
	ResolvePace rate.Limit
	// PendingPoll is how often the driver re-checks a pending head.
	PendingPoll time.Duration
	// ReplayPause is the settle delay before a repeat restarts.
	ReplayPause time.Duration
}

func DefaultConfig() Config {
	return Config{
		RetryThreshold: 30 * time.Second,
		MaxRetries:     2,
		IdleTimeout:    300 * time.Second,
		ResolvePace:    rate.Every(time.Second),
		PendingPoll:    time.Second,
		ReplayPause:    time.Second,
	}
}

// endAction tells onStreamEnd why the stream stopped. It is set under
// mu before the stop channel is closed, never after.
type endAction int

const (
	endAuto endAction = iota
	endSkip
	endReplay
	endTeardown
)

// Session is the playback state machine for a single guild.
type Session struct {
	guildID   string
	guildName string
	cfg       Config

	queue    *queue.Queue
	sink     Sink
	resolver Resolver
	notifier Notifier
	recorder Recorder
	jobs     *jobmgr.Manager
	limiter  *rate.Limiter

	mu             sync.Mutex
	playing        bool
	paused         bool
	advancing      bool
	retries        int
	startedAt      time.Time
	end            endAction
	stopStream     chan struct{}
	halt           chan struct{}
	textChannelID  string
	voiceChannelID string
}

func NewSession(guildID, guildName string, cfg Config, sink Sink, resolver Resolver, notifier Notifier, recorder Recorder) *Session {
	return &Session{
		guildID:   guildID,
		guildName: guildName,
		cfg:       cfg,
		queue:     queue.New(),
		sink:      sink,
		resolver:  resolver,
		notifier:  notifier,
		recorder:  recorder,
		jobs:      jobmgr.NewManager(nil),
		limiter:   rate.NewLimiter(cfg.ResolvePace, 1),
		halt:      make(chan struct{}),
	}
}

func (s *Session) GuildID() string { return s.guildID }

// Queue exposes the guild queue for read-style commands.
func (s *Session) Queue() *queue.Queue { return s.queue }

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) isPausedFn() bool { return s.IsPaused() }

// SetChannels records where the session plays and where it talks.
func (s *Session) SetChannels(voiceChannelID, textChannelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceChannelID = voiceChannelID
	s.textChannelID = textChannelID
}

// PlayResolved either starts e immediately (idle session, empty queue)
// or appends it. The returned queued flag tells the command layer which
// happened so it can word its reply.
func (s *Session) PlayResolved(e *queue.Entry, voiceChannelID, textChannelID string) (queued bool, err error) {
	s.mu.Lock()
	s.voiceChannelID = voiceChannelID
	s.textChannelID = textChannelID
	s.reopenLocked()
	if s.playing || s.advancing || !s.queue.IsEmpty() {
		s.queue.Append(e)
		s.mu.Unlock()
		return true, nil
	}
	// Claim the playing slot before connecting so a concurrent play or
	// a finishing advance cannot start a second stream in between.
	s.playing = true
	s.queue.SetNowPlaying(e)
	s.mu.Unlock()

	if err := s.sink.Connect(voiceChannelID); err != nil {
		s.queue.ClearNowPlaying()
		s.mu.Lock()
		s.playing = false
		s.mu.Unlock()
		return false, err
	}
	s.startTrack(e, false)
	return false, nil
}

// Enqueue appends already resolved entries without touching playback.
func (s *Session) Enqueue(entries ...*queue.Entry) {
	s.queue.Append(entries...)
}

// EnqueuePending appends placeholder entries for keys and makes sure
// the resolver loop is filling them in.
func (s *Session) EnqueuePending(keys []string, requesterID, requester string) {
	entries := make([]*queue.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, queue.NewPendingEntry(k, requesterID, requester))
	}
	s.queue.Append(entries...)
	s.EnsureResolverLoop()
}

// StartIfIdle kicks the driver when entries were appended to an idle
// session. It is a no-op while a track is playing.
func (s *Session) StartIfIdle(voiceChannelID, textChannelID string) error {
	s.mu.Lock()
	if s.playing || s.advancing {
		s.mu.Unlock()
		return nil
	}
	s.voiceChannelID = voiceChannelID
	s.textChannelID = textChannelID
	s.reopenLocked()
	s.mu.Unlock()

	if err := s.sink.Connect(voiceChannelID); err != nil {
		return err
	}
	go s.advance()
	return nil
}

// Skip ends the current track without counting it as a failure.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.stopStream == nil {
		return ErrNoTrackPlaying
	}
	s.end = endSkip
	close(s.stopStream)
	s.stopStream = nil
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return ErrNoTrackPlaying
	}
	s.paused = true
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return ErrNoTrackPlaying
	}
	s.paused = false
	return nil
}

// Replay restarts the current track from the top, keeping the queue.
func (s *Session) Replay() error {
	now := s.queue.NowPlaying()
	if now == nil {
		return ErrNothingToReplay
	}
	return s.restart(now)
}

// Repeat drops everything queued after the current track and restarts
// it, so the track loops once more from the beginning.
func (s *Session) Repeat() error {
	now := s.queue.NowPlaying()
	if now == nil {
		return ErrNothingToReplay
	}
	s.queue.ClearUpcoming()
	return s.restart(now)
}

func (s *Session) restart(e *queue.Entry) error {
	s.mu.Lock()
	if s.playing && s.stopStream != nil {
		s.end = endReplay
		close(s.stopStream)
		s.stopStream = nil
		s.mu.Unlock()
		return nil
	}
	if s.playing || s.advancing {
		// The driver already claimed the slot; its start wins.
		s.mu.Unlock()
		return nil
	}
	voiceCh := s.voiceChannelID
	s.reopenLocked()
	s.playing = true
	s.mu.Unlock()

	if err := s.sink.Connect(voiceCh); err != nil {
		s.mu.Lock()
		s.playing = false
		s.mu.Unlock()
		return err
	}
	s.startTrack(e, false)
	return nil
}

// ClearQueue empties the queue and stops the current track if one is
// playing. The driver then sees an empty queue and arms the reaper.
func (s *Session) ClearQueue() {
	s.queue.Clear()
	s.mu.Lock()
	if s.playing && s.stopStream != nil {
		s.end = endSkip
		close(s.stopStream)
		s.stopStream = nil
	}
	s.mu.Unlock()
}

// Stop tears the session down: playback, background jobs, queue and
// the voice connection all go.
func (s *Session) Stop() {
	s.mu.Lock()
	s.end = endTeardown
	if s.stopStream != nil {
		close(s.stopStream)
		s.stopStream = nil
	}
	select {
	case <-s.halt:
	default:
		close(s.halt)
	}
	s.playing = false
	s.paused = false
	s.retries = 0
	s.mu.Unlock()

	s.jobs.StopAll()
	s.queue.Clear()
	if err := s.sink.Disconnect(); err != nil {
		log.Printf("[WARN] [Player] %s: disconnect: %v", s.guildID, err)
	}
}

// reopenLocked re-arms the halt channel after a Stop. Caller holds mu.
func (s *Session) reopenLocked() {
	select {
	case <-s.halt:
		s.halt = make(chan struct{})
	default:
	}
}

func (s *Session) haltChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halt
}

// notify forwards a playback message with whatever channel the session
// knows. An empty channel is passed through so the notifier can apply
// its own fallback.
func (s *Session) notify(message string) {
	s.mu.Lock()
	ch := s.textChannelID
	s.mu.Unlock()
	s.notifier.Notify(ch, message)
}
