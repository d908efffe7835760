package duel

import (
	"context"
	"errors"
	"time"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// tickInterval is the coarse cooperative timer resolution. Every connected
// client runs one of these loops; all of them compare against the shared
// RoundStartedAt, never a locally started countdown, so clock drift or a
// backgrounded client cannot desynchronize the round.
const tickInterval = 250 * time.Millisecond

// Remaining derives the time left in the current round from the shared
// round epoch. Never negative.
func Remaining(d game.DuelState, roundTimeSeconds int, now time.Time) time.Duration {
	if d.Phase != game.PhaseGuessing {
		return 0
	}
	left := time.Duration(roundTimeSeconds)*time.Second - now.Sub(d.RoundStartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Watch drives round expiry for one connected client. It ticks until the
// context is cancelled or the duel disappears, calling ExpireRound each
// time; the guarded write inside makes concurrent watchers harmless.
func (s *Service) Watch(ctx context.Context, lobbyID string, roundTimeSeconds int) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d, err := s.Get(ctx, lobbyID)
			if errors.Is(err, sharedstate.ErrNotFound) {
				// Duel not created yet (lobby still waiting) or cleaned up.
				continue
			}
			if err != nil {
				s.logger.Warn("watch read failed", "lobby", lobbyID, "error", err)
				continue
			}
			if d.Phase == game.PhaseFinished {
				return
			}
			if _, err := s.ExpireRound(ctx, lobbyID, roundTimeSeconds); err != nil {
				s.logger.Warn("round expiry failed", "lobby", lobbyID, "error", err)
			}
		}
	}
}
