package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/campusguessr/backend/internal/game"
)

// handleEvents streams lobby and duel document writes to the client over
// SSE. The connection also arms the cooperative round timer: as long as at
// least one player keeps a stream open, rounds expire on schedule.
func handleEvents(logger *slog.Logger, svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		l, err := svcs.Lobby.Get(r.Context(), sess.LobbyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		lobbyCh := svcs.Store.Subscribe(game.LobbyKey(sess.LobbyID))
		defer svcs.Store.Unsubscribe(game.LobbyKey(sess.LobbyID), lobbyCh)
		duelCh := svcs.Store.Subscribe(game.DuelKey(sess.LobbyID))
		defer svcs.Store.Unsubscribe(game.DuelKey(sess.LobbyID), duelCh)

		go svcs.Duel.Watch(r.Context(), sess.LobbyID, l.RoundTimeSeconds)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		logger.Debug("event stream opened", "lobby", sess.LobbyID, "uid", sess.UID)
		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-lobbyCh:
				fmt.Fprintf(w, "event: lobby\ndata: %s\n\n", data)
				flusher.Flush()
			case data := <-duelCh:
				fmt.Fprintf(w, "event: duel\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
