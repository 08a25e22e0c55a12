package player

import (
	"context"
	"log"
	"time"
)

// armIdleReaper schedules a voice disconnect after cfg.IdleTimeout of
// no playback. Re-arming replaces any timer already ticking, and a new
// track cancels it via jobs.Stop in startTrack.
func (s *Session) armIdleReaper() {
	s.jobs.StartReplace(jobIdle, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.IdleTimeout):
		}
		if s.IsPlaying() {
			return nil
		}
		if err := s.sink.Disconnect(); err != nil {
			log.Printf("[WARN] [Player] %s: idle disconnect: %v", s.guildID, err)
		}
		s.notify("Nothing played for a while, leaving the voice channel.")
		log.Printf("[INFO] [Player] %s: idle for %v, disconnected", s.guildID, s.cfg.IdleTimeout)
		return nil
	})
}
