package server

import (
	"net/http"

	"github.com/campusguessr/backend/internal/game"
)

type GuessRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor *int    `json:"floor,omitempty"`
}

func handleGuess(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		loc := game.Point{X: req.X, Y: req.Y}
		if err := svcs.Duel.SubmitGuess(r.Context(), sess.LobbyID, sess.UID, loc, req.Floor); err != nil {
			writeServiceError(w, err)
			return
		}

		d, err := svcs.Duel.Get(r.Context(), sess.LobbyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
