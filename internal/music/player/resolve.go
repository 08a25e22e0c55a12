package player

import (
	"context"
	"log"
)

// EnsureResolverLoop starts the background resolution job if it is not
// already running. Calling it repeatedly is cheap.
//
// A lost Start can land on a loop that already decided to exit and so
// never sees the entries appended just before the call. When that
// happens the old loop is waited out and the start retried, so a
// pending entry is never left without a runner.
func (s *Session) EnsureResolverLoop() {
	if s.jobs.Start(jobResolve, s.runResolverLoop) {
		return
	}
	go func() {
		s.jobs.Wait(jobResolve)
		if s.queue.HasPending() {
			s.EnsureResolverLoop()
		}
	}()
}

// runResolverLoop fills in pending entries front to back, one lookup
// at a time, and exits once nothing is pending. A failed lookup marks
// the entry with a terminal failed title so the queue never stalls.
func (s *Session) runResolverLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		idx, key, ok := s.queue.FirstPending()
		if !ok {
			return nil
		}

		res, err := s.resolver.Resolve(ctx, key)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Printf("[WARN] [Resolver] %s: %q: %v", s.guildID, key, err)
			s.queue.FailAt(idx, key)
		} else if s.queue.ResolveAt(idx, key, res) {
			log.Printf("[INFO] [Resolver] %s: resolved %q -> %q", s.guildID, key, res.Title)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}
	}
}
