package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/lobby"
)

type CreateLobbyRequest struct {
	Username         string `json:"username"`
	UID              string `json:"uid,omitempty"`
	Visibility       string `json:"visibility,omitempty"`
	Difficulty       string `json:"difficulty,omitempty"`
	RoundTimeSeconds int    `json:"roundTimeSeconds,omitempty"`
}

type LobbyResponse struct {
	Token string            `json:"token"`
	UID   string            `json:"uid"`
	Lobby game.LobbySession `json:"lobby"`
}

func handleCreateLobby(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateLobbyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}
		// A client-supplied stable uid keeps friends-only visibility working
		// across sessions. Anonymous players get a throwaway one.
		uid := req.UID
		if uid == "" {
			uid = uuid.NewString()
		}

		l, err := svcs.Lobby.Create(r.Context(), lobby.CreateParams{
			HostUID:          uid,
			HostUsername:     req.Username,
			Visibility:       game.Visibility(req.Visibility),
			Difficulty:       game.Difficulty(req.Difficulty),
			RoundTimeSeconds: req.RoundTimeSeconds,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		token, err := newSession(r, svcs, uid, req.Username, l.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, LobbyResponse{Token: token, UID: uid, Lobby: l})
	}
}

func handleFindLobbies(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svcs.Lobby.FindPublic(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleLookupLobby(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		l, err := svcs.Lobby.Lookup(r.Context(), code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

type JoinLobbyRequest struct {
	Username string `json:"username"`
	UID      string `json:"uid,omitempty"`
}

func handleJoinLobby(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinLobbyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}
		uid := req.UID
		if uid == "" {
			uid = uuid.NewString()
		}

		code := strings.ToUpper(chi.URLParam(r, "code"))
		l, err := svcs.Lobby.Join(r.Context(), code, uid, req.Username)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		token, err := newSession(r, svcs, uid, req.Username, l.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, LobbyResponse{Token: token, UID: uid, Lobby: l})
	}
}

func newSession(r *http.Request, svcs Services, uid, username, lobbyID string) (string, error) {
	token := uuid.NewString()
	err := svcs.Store.Set(r.Context(), game.SessionKey(token), playerSession{
		UID:      uid,
		Username: username,
		LobbyID:  lobbyID,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}
