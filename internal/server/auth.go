package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// playerSession binds an opaque bearer token to a player inside a lobby.
// Stored as a shared document so any instance can resolve it.
type playerSession struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	LobbyID  string `json:"lobbyId"`
}

var errNoSession = errors.New("no valid session")

type ctxKey int

const ctxKeySession ctxKey = iota

func sessionMiddleware(store sharedstate.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request, store sharedstate.Store) (playerSession, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		auth := r.Header.Get("Authorization")
		var found bool
		token, found = strings.CutPrefix(auth, "Bearer ")
		if !found || token == "" {
			return playerSession{}, errNoSession
		}
	}

	var sess playerSession
	if err := store.Get(r.Context(), game.SessionKey(token), &sess); err != nil {
		return playerSession{}, errNoSession
	}
	return sess, nil
}

func sessionFrom(r *http.Request) playerSession {
	return r.Context().Value(ctxKeySession).(playerSession)
}
