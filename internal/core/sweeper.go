package core

// sweeper.go drops idle session workspaces in the background.
//
// Workspaces live only in memory, so a session that stops making requests
// would otherwise hold its tables until restart. The sweeper runs every
// interval and removes sessions idle for longer than Config.SessionTTL.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often idle sessions are checked.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper removes idle sessions every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	slog.Info("session sweeper started",
		"interval", interval.String(),
		"ttl", s.cfg.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if n := s.SweepSessions(); n > 0 {
				slog.Info("expired sessions removed",
					"sessions_removed", n,
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}

// SweepSessions removes sessions idle for longer than the TTL and returns
// how many were removed.
func (s *Service) SweepSessions() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.sessions {
		if ws.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
