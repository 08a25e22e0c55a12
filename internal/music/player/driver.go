package player

import (
	"fmt"
	"log"
	"time"

	"quaver/internal/history"
	"quaver/internal/music/queue"
)

// startTrack begins streaming e. The caller must have the sink
// connected. A retry keeps the retry counter; a fresh start resets it
// and announces the track.
func (s *Session) startTrack(e *queue.Entry, isRetry bool) {
	s.mu.Lock()
	s.playing = true
	s.paused = false
	if !isRetry {
		s.retries = 0
	}
	s.startedAt = time.Now()
	s.end = endAuto
	stop := make(chan struct{})
	s.stopStream = stop
	s.mu.Unlock()

	// A track starting means the session is no longer idle.
	s.jobs.Stop(jobIdle)

	if isRetry {
		log.Printf("[INFO] [Player] %s: retrying %q", s.guildID, e.DisplayTitle())
	} else {
		s.notify("Now playing: " + e.DisplayTitle())
	}
	go s.recordPlay(e)

	go s.runStream(e, stop)
}

func (s *Session) runStream(e *queue.Entry, stop <-chan struct{}) {
	if err := s.sink.Stream(e.URL, stop, s.isPausedFn); err != nil {
		log.Printf("[WARN] [Player] %s: stream %q: %v", s.guildID, e.DisplayTitle(), err)
	}
	s.onStreamEnd(e)
}

// onStreamEnd classifies why the stream stopped and decides what runs
// next. Early endings retry up to cfg.MaxRetries before the track is
// given up on.
func (s *Session) onStreamEnd(e *queue.Entry) {
	s.mu.Lock()
	elapsed := time.Since(s.startedAt)
	action := s.end
	s.end = endAuto
	s.playing = false
	s.paused = false
	retries := s.retries
	s.mu.Unlock()

	switch action {
	case endTeardown:
		return
	case endSkip:
		s.resetRetries()
		s.advance()
		return
	case endReplay:
		time.Sleep(s.cfg.ReplayPause)
		s.resetRetries()
		now := s.queue.NowPlaying()
		if now == nil {
			s.advance()
			return
		}
		s.startTrack(now, false)
		return
	}

	if elapsed < s.cfg.RetryThreshold {
		if retries < s.cfg.MaxRetries {
			s.mu.Lock()
			s.retries++
			attempt := s.retries
			s.mu.Unlock()
			log.Printf("[WARN] [Player] %s: %q stopped after %v, retry %d/%d",
				s.guildID, e.DisplayTitle(), elapsed.Round(time.Millisecond), attempt, s.cfg.MaxRetries)
			s.startTrack(e, true)
			return
		}
		s.notify(fmt.Sprintf("Failed to play %q after %d retries, skipping.", e.DisplayTitle(), s.cfg.MaxRetries))
		log.Printf("[ERR] [Player] %s: giving up on %q after %d retries", s.guildID, e.DisplayTitle(), s.cfg.MaxRetries)
	}

	s.resetRetries()
	s.advance()
}

func (s *Session) resetRetries() {
	s.mu.Lock()
	s.retries = 0
	s.mu.Unlock()
}

// advance pulls the next playable entry off the queue. A pending head
// is waited on, never reordered around. An empty queue ends playback
// and arms the idle reaper.
func (s *Session) advance() {
	s.mu.Lock()
	if s.playing || s.advancing {
		s.mu.Unlock()
		return
	}
	s.advancing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.advancing = false
		s.mu.Unlock()
	}()

	halt := s.haltChan()
	for {
		select {
		case <-halt:
			return
		default:
		}

		// The empty-queue exit releases the advancing flag and clears
		// the now-playing slot in one critical section; PlayResolved
		// makes its start decision under the same lock.
		s.mu.Lock()
		head := s.queue.Peek()
		if head == nil {
			s.queue.ClearNowPlaying()
			s.advancing = false
			s.mu.Unlock()
			s.notify("Queue ended.")
			s.armIdleReaper()
			return
		}
		s.mu.Unlock()
		if head.Pending() {
			select {
			case <-halt:
				return
			case <-time.After(s.cfg.PendingPoll):
			}
			continue
		}

		e := s.queue.DequeueNext()
		if e == nil {
			continue
		}
		// Claim the playing slot before the stream goroutine exists so
		// a concurrent advance cannot double-start.
		s.mu.Lock()
		s.playing = true
		s.advancing = false
		s.mu.Unlock()
		s.startTrack(e, false)
		return
	}
}

func (s *Session) recordPlay(e *queue.Entry) {
	if s.recorder == nil {
		return
	}
	p := history.Play{
		UserID:    e.RequesterID,
		Song:      e.DisplayTitle(),
		URL:       e.URL,
		Duration:  e.Duration,
		GuildID:   s.guildID,
		GuildName: s.guildName,
		PlayedAt:  time.Now(),
	}
	if err := s.recorder.Record(p); err != nil {
		log.Printf("[WARN] [Player] %s: record play: %v", s.guildID, err)
	}
}
