package server

import (
	"net/http"
)

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

func handleReady(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReadyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		l, err := svcs.Lobby.SetReady(r.Context(), sess.LobbyID, sess.UID, req.Ready)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func handleStart(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		d, err := svcs.Lobby.Start(r.Context(), sess.LobbyID, sess.UID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleLeave(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if err := svcs.Lobby.Leave(r.Context(), sess.LobbyID, sess.UID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"left": true})
	}
}

type HeartbeatResponse struct {
	Evicted []string `json:"evicted"`
}

func handleHeartbeat(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		evicted, err := svcs.Lobby.Heartbeat(r.Context(), sess.LobbyID, sess.UID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if evicted == nil {
			evicted = []string{}
		}
		writeJSON(w, http.StatusOK, HeartbeatResponse{Evicted: evicted})
	}
}

func handleAdvance(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		d, err := svcs.Duel.AdvanceRound(r.Context(), sess.LobbyID, sess.UID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
