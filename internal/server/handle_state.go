package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/campusguessr/backend/internal/duel"
	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// GameStateResponse is the combined lobby + duel view. Duel is null until
// the lobby starts. RemainingSeconds is derived from the shared round epoch
// so every client computes the same countdown.
type GameStateResponse struct {
	Lobby            game.LobbySession `json:"lobby"`
	Duel             *game.DuelState   `json:"duel,omitempty"`
	RemainingSeconds float64           `json:"remainingSeconds"`
}

func handleGameState(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		l, err := svcs.Lobby.Get(r.Context(), sess.LobbyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := GameStateResponse{Lobby: l}
		d, err := svcs.Duel.Get(r.Context(), sess.LobbyID)
		if err != nil && !errors.Is(err, sharedstate.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		if err == nil {
			resp.Duel = &d
			resp.RemainingSeconds = duel.Remaining(d, l.RoundTimeSeconds, time.Now().UTC()).Seconds()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
