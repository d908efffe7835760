package server

import (
	"errors"
	"net/http"

	"github.com/campusguessr/backend/internal/duel"
	"github.com/campusguessr/backend/internal/lobby"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// writeServiceError maps domain sentinel errors onto HTTP statuses with a
// user-facing message. Unknown errors become opaque 500s.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sharedstate.ErrNotFound):
		writeError(w, http.StatusNotFound, "lobby not found")
	case errors.Is(err, lobby.ErrLobbyFull):
		writeError(w, http.StatusConflict, "lobby is full")
	case errors.Is(err, lobby.ErrFriendsOnly):
		writeError(w, http.StatusForbidden, "this lobby is open to the host's friends only")
	case errors.Is(err, lobby.ErrNotHost), errors.Is(err, duel.ErrNotHost):
		writeError(w, http.StatusForbidden, "only the host may do this")
	case errors.Is(err, lobby.ErrNotMember), errors.Is(err, duel.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "you are not part of this game")
	case errors.Is(err, lobby.ErrNotEligible):
		writeError(w, http.StatusConflict, "everyone must be ready before starting")
	case errors.Is(err, lobby.ErrAlreadyStarted):
		writeError(w, http.StatusConflict, "game has already started")
	case errors.Is(err, duel.ErrOutsideArea):
		writeError(w, http.StatusBadRequest, "guess is outside the playing area")
	case errors.Is(err, duel.ErrFloorRequired):
		writeError(w, http.StatusBadRequest, "this location requires a floor selection")
	case errors.Is(err, duel.ErrRoundOver):
		writeError(w, http.StatusConflict, "round is no longer accepting guesses")
	case errors.Is(err, sharedstate.ErrNoChange):
		writeError(w, http.StatusConflict, "nothing to do")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
