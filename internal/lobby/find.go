package lobby

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// Summary is a public lobby as shown in the browse list.
type Summary struct {
	ID           string          `json:"id"`
	JoinCode     string          `json:"joinCode"`
	HostUsername string          `json:"hostUsername"`
	Difficulty   game.Difficulty `json:"difficulty"`
	Players      int             `json:"players"`
	MaxPlayers   int             `json:"maxPlayers"`
}

// FindPublic lists joinable public lobbies. Index entries pointing at
// started, abandoned, or full lobbies are skipped and pruned lazily.
func (s *Service) FindPublic(ctx context.Context) ([]Summary, error) {
	var index map[string]string
	err := s.store.Get(ctx, game.PublicIndexKey, &index)
	if errors.Is(err, sharedstate.ErrNotFound) {
		return []Summary{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(index))
	for id := range index {
		l, err := s.Get(ctx, id)
		if errors.Is(err, sharedstate.ErrNotFound) || (err == nil && l.Status != game.StatusWaiting) {
			s.unindexPublic(ctx, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(l.Players) >= l.MaxPlayers {
			continue
		}
		out = append(out, Summary{
			ID:           l.ID,
			JoinCode:     l.JoinCode,
			HostUsername: l.HostUsername,
			Difficulty:   l.Difficulty,
			Players:      len(l.Players),
			MaxPlayers:   l.MaxPlayers,
		})
	}
	return out, nil
}

func (s *Service) indexPublic(ctx context.Context, id, code string) error {
	err := s.store.Patch(ctx, game.PublicIndexKey, map[string]any{id: code})
	if errors.Is(err, sharedstate.ErrNotFound) {
		return s.store.Set(ctx, game.PublicIndexKey, map[string]string{id: code})
	}
	return err
}

// unindexPublic drops a lobby from the public index. Best-effort: a stale
// entry is harmless because FindPublic re-checks every lobby it lists.
func (s *Service) unindexPublic(ctx context.Context, id string) {
	err := s.store.Update(ctx, game.PublicIndexKey, func(raw []byte) ([]byte, error) {
		var index map[string]string
		if err := json.Unmarshal(raw, &index); err != nil {
			return nil, err
		}
		if _, ok := index[id]; !ok {
			return nil, sharedstate.ErrNoChange
		}
		delete(index, id)
		return json.Marshal(index)
	})
	if err != nil && !errors.Is(err, sharedstate.ErrNoChange) && !errors.Is(err, sharedstate.ErrNotFound) {
		s.logger.Warn("public index prune failed", "lobby", id, "error", err)
	}
}
