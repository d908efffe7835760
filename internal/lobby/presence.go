package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// Heartbeat stamps the player's liveness timestamp and sweeps stale peers
// in the same atomic write. There is no central watchdog: every connected
// client sweeps on its own heartbeat, and because eviction is keyed by uid
// two clients racing to evict the same peer converge on the same list.
func (s *Service) Heartbeat(ctx context.Context, id, uid string) ([]string, error) {
	now := s.now().UTC()
	var evicted []string

	updated, err := sharedstate.Modify(ctx, s.store, game.LobbyKey(id), func(l *game.LobbySession) error {
		p := l.PlayerByUID(uid)
		if p == nil {
			return ErrNotMember
		}
		p.LastHeartbeat = now
		evicted = sweep(l, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(evicted) > 0 {
		s.logger.Info("evicted stale players", "lobby", id, "evicted", evicted)
		if updated.Status == game.StatusAbandoned || updated.Visibility == game.VisibilityPublic {
			s.unindexPublic(ctx, id)
		}
	}
	return evicted, nil
}

// SweepStale evicts every player whose heartbeat is older than the stale
// threshold. Idempotent: a second sweep over the same state is a no-op.
func (s *Service) SweepStale(ctx context.Context, id string, now time.Time) ([]string, error) {
	var evicted []string
	_, err := sharedstate.Modify(ctx, s.store, game.LobbyKey(id), func(l *game.LobbySession) error {
		evicted = sweep(l, now)
		if len(evicted) == 0 {
			return sharedstate.ErrNoChange
		}
		return nil
	})
	if errors.Is(err, sharedstate.ErrNoChange) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(evicted) > 0 {
		s.logger.Info("evicted stale players", "lobby", id, "evicted", evicted)
	}
	return evicted, nil
}

// sweep removes players whose heartbeat age exceeds StaleAfter and repairs
// the host role if the host was evicted. Keyed by uid, never by index.
func sweep(l *game.LobbySession, now time.Time) []string {
	var stale []string
	for _, p := range l.Players {
		if now.Sub(p.LastHeartbeat) > game.StaleAfter {
			stale = append(stale, p.UID)
		}
	}
	for _, uid := range stale {
		removePlayer(l, uid)
	}
	return stale
}
