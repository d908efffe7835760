package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/campusguessr/backend/internal/content"
	"github.com/campusguessr/backend/internal/duel"
	"github.com/campusguessr/backend/internal/friends"
	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/lobby"
	"github.com/campusguessr/backend/internal/outcome"
	"github.com/campusguessr/backend/internal/sharedstate"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := sharedstate.NewMemStore()
	if err := content.SeedDemo(ctx, logger, store); err != nil {
		t.Fatalf("seeding campus: %v", err)
	}

	provider := content.NewStoreProvider(store)
	svcs := Services{
		Store:   store,
		Lobby:   lobby.NewService(store, friends.NewMemLookup(), provider, logger),
		Duel:    duel.NewService(store, provider, outcome.NewMemRecorder(), logger),
		Content: provider,
	}

	r := chi.NewRouter()
	r.Get("/api/campus", handleCampus(svcs))
	r.Post("/api/lobbies", handleCreateLobby(svcs))
	r.Get("/api/lobbies", handleFindLobbies(svcs))
	r.Get("/api/lobbies/{code}", handleLookupLobby(svcs))
	r.Post("/api/lobbies/{code}/join", handleJoinLobby(svcs))
	r.Route("/api/game", func(r chi.Router) {
		r.Use(sessionMiddleware(svcs.Store))
		r.Post("/ready", handleReady(svcs))
		r.Post("/start", handleStart(svcs))
		r.Post("/leave", handleLeave(svcs))
		r.Post("/heartbeat", handleHeartbeat(svcs))
		r.Get("/state", handleGameState(svcs))
		r.Post("/guess", handleGuess(svcs))
		r.Post("/advance", handleAdvance(svcs))
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// createDuel walks two players through create, join, ready, and start, and
// returns their session tokens plus the join code.
func createDuel(t *testing.T, r http.Handler) (host, guest, code string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "ana"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create lobby: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created LobbyResponse
	json.NewDecoder(w.Body).Decode(&created)
	host = created.Token
	code = created.Lobby.JoinCode

	w = doJSON(t, r, http.MethodPost, "/api/lobbies/"+code+"/join", "", JoinLobbyRequest{Username: "ben"})
	if w.Code != http.StatusOK {
		t.Fatalf("join lobby: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var joined LobbyResponse
	json.NewDecoder(w.Body).Decode(&joined)
	guest = joined.Token

	for _, token := range []string{host, guest} {
		w = doJSON(t, r, http.MethodPost, "/api/game/ready", token, ReadyRequest{Ready: true})
		if w.Code != http.StatusOK {
			t.Fatalf("ready: expected 200, got %d: %s", w.Code, w.Body.String())
		}
	}

	w = doJSON(t, r, http.MethodPost, "/api/game/start", host, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return host, guest, code
}

func TestCampus(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/campus", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var c content.Campus
	json.NewDecoder(w.Body).Decode(&c)
	if len(c.Images) == 0 {
		t.Error("expected seeded campus to have images")
	}
}

func TestCreateLobbyRequiresUsername(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLookupUnknownCode(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/lobbies/ZZZZZZ", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSessionRequired(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/game/state", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/game/state", "bogus-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bogus token, got %d", w.Code)
	}
}

func TestJoinFullLobby(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "ana"})
	var created LobbyResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = doJSON(t, r, http.MethodPost, "/api/lobbies/"+created.Lobby.JoinCode+"/join", "", JoinLobbyRequest{Username: "ben"})
	if w.Code != http.StatusOK {
		t.Fatalf("first join: expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/lobbies/"+created.Lobby.JoinCode+"/join", "", JoinLobbyRequest{Username: "cleo"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second join: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartHostOnly(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "ana"})
	var created LobbyResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = doJSON(t, r, http.MethodPost, "/api/lobbies/"+created.Lobby.JoinCode+"/join", "", JoinLobbyRequest{Username: "ben"})
	var joined LobbyResponse
	json.NewDecoder(w.Body).Decode(&joined)

	w = doJSON(t, r, http.MethodPost, "/api/game/start", joined.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-host start, got %d", w.Code)
	}
}

func TestFullDuelRound(t *testing.T) {
	r := testRouter(t)
	host, guest, _ := createDuel(t, r)

	// Guess outside the playing area is rejected.
	w := doJSON(t, r, http.MethodPost, "/api/game/guess", host, GuessRequest{X: 200, Y: 50})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("outside area: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Guess inside a building without a floor is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/game/guess", host, GuessRequest{X: 20, Y: 20})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("floor required: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Both players guess in the open; the second submission resolves.
	w = doJSON(t, r, http.MethodPost, "/api/game/guess", host, GuessRequest{X: 90, Y: 50})
	if w.Code != http.StatusOK {
		t.Fatalf("host guess: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/game/guess", guest, GuessRequest{X: 35, Y: 45})
	if w.Code != http.StatusOK {
		t.Fatalf("guest guess: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var d game.DuelState
	json.NewDecoder(w.Body).Decode(&d)
	if d.Phase != game.PhaseResults {
		t.Fatalf("expected results phase after both guesses, got %q", d.Phase)
	}
	if len(d.RoundHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(d.RoundHistory))
	}

	// Host advances to round two.
	w = doJSON(t, r, http.MethodPost, "/api/game/advance", host, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&d)
	if d.CurrentRound != 2 || d.Phase != game.PhaseGuessing {
		t.Fatalf("expected round 2 guessing, got round %d phase %q", d.CurrentRound, d.Phase)
	}

	// A second advance is a silent no-op turned 409.
	w = doJSON(t, r, http.MethodPost, "/api/game/advance", host, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double advance: expected 409, got %d", w.Code)
	}

	// Guest cannot advance at all.
	w = doJSON(t, r, http.MethodPost, "/api/game/advance", guest, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("guest advance: expected 403, got %d", w.Code)
	}
}

func TestGameState(t *testing.T) {
	r := testRouter(t)
	host, _, _ := createDuel(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/game/state", host, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp GameStateResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Lobby.Status != game.StatusInProgress {
		t.Errorf("expected in_progress lobby, got %q", resp.Lobby.Status)
	}
	if resp.Duel == nil {
		t.Fatal("expected duel state after start")
	}
	if resp.RemainingSeconds <= 0 {
		t.Errorf("expected positive countdown, got %v", resp.RemainingSeconds)
	}
}

func TestHeartbeat(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "ana"})
	var created LobbyResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = doJSON(t, r, http.MethodPost, "/api/game/heartbeat", created.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp HeartbeatResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Evicted) != 0 {
		t.Errorf("expected no evictions, got %v", resp.Evicted)
	}
}

func TestLeaveLobby(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "ana"})
	var created LobbyResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = doJSON(t, r, http.MethodPost, "/api/game/leave", created.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// The emptied lobby's code no longer resolves.
	w = doJSON(t, r, http.MethodGet, "/api/lobbies/"+created.Lobby.JoinCode, "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after abandon, got %d", w.Code)
	}
}

func TestFindLobbies(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{Username: "ana"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/lobbies", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var list []lobby.Summary
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("expected one public lobby, got %d", len(list))
	}
	if list[0].HostUsername != "ana" {
		t.Errorf("expected host ana, got %q", list[0].HostUsername)
	}
}

func TestFriendsOnlyLobby(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := sharedstate.NewMemStore()
	if err := content.SeedDemo(ctx, logger, store); err != nil {
		t.Fatalf("seeding campus: %v", err)
	}
	fl := friends.NewMemLookup()
	fl.Add("host-1", "pal-1")

	provider := content.NewStoreProvider(store)
	svcs := Services{
		Store:   store,
		Lobby:   lobby.NewService(store, fl, provider, logger),
		Duel:    duel.NewService(store, provider, outcome.NewMemRecorder(), logger),
		Content: provider,
	}
	r := chi.NewRouter()
	r.Post("/api/lobbies", handleCreateLobby(svcs))
	r.Post("/api/lobbies/{code}/join", handleJoinLobby(svcs))

	w := doJSON(t, r, http.MethodPost, "/api/lobbies", "", CreateLobbyRequest{
		Username: "ana", UID: "host-1", Visibility: "friends",
	})
	var created LobbyResponse
	json.NewDecoder(w.Body).Decode(&created)

	w = doJSON(t, r, http.MethodPost, "/api/lobbies/"+created.Lobby.JoinCode+"/join", "",
		JoinLobbyRequest{Username: "mal", UID: "stranger-1"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger join: expected 403, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/lobbies/"+created.Lobby.JoinCode+"/join", "",
		JoinLobbyRequest{Username: "pal", UID: "pal-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("friend join: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
