package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/campusguessr/backend/internal/content"
	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/lobby"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "CampusGuessr API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for CampusGuessr photo duels.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/ping
	getWSPing, _ := r.NewOperationContext(http.MethodGet, "/ws/ping")
	getWSPing.SetSummary("WebSocket connectivity probe")
	getWSPing.SetDescription("Upgrades to a WebSocket connection that answers every message with pong.")
	getWSPing.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSPing)

	// GET /api/campus
	getCampus, _ := r.NewOperationContext(http.MethodGet, "/api/campus")
	getCampus.SetSummary("Get campus content")
	getCampus.SetDescription("Returns the campus map, building regions, and the photo pool.")
	getCampus.AddRespStructure(content.Campus{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCampus)

	// POST /api/lobbies
	postLobby, _ := r.NewOperationContext(http.MethodPost, "/api/lobbies")
	postLobby.SetSummary("Create lobby")
	postLobby.SetDescription("Creates a lobby with the caller as host. Returns a session token.")
	postLobby.AddReqStructure(CreateLobbyRequest{})
	postLobby.AddRespStructure(LobbyResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postLobby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postLobby)

	// GET /api/lobbies
	listLobbies, _ := r.NewOperationContext(http.MethodGet, "/api/lobbies")
	listLobbies.SetSummary("Browse public lobbies")
	listLobbies.SetDescription("Returns joinable public lobbies that still have room.")
	listLobbies.AddRespStructure([]lobby.Summary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listLobbies)

	// GET /api/lobbies/{code}
	getLobby, _ := r.NewOperationContext(http.MethodGet, "/api/lobbies/{code}")
	getLobby.SetSummary("Look up lobby")
	getLobby.SetDescription("Look up a waiting lobby by its join code before joining.")
	getLobby.AddRespStructure(game.LobbySession{}, openapi.WithHTTPStatus(http.StatusOK))
	getLobby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getLobby)

	// POST /api/lobbies/{code}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/lobbies/{code}/join")
	postJoin.SetSummary("Join a lobby")
	postJoin.SetDescription("Joins the lobby behind the code. Returns a session token.")
	postJoin.AddReqStructure(JoinLobbyRequest{})
	postJoin.AddRespStructure(LobbyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// POST /api/game/ready
	postReady, _ := r.NewOperationContext(http.MethodPost, "/api/game/ready")
	postReady.SetSummary("Set ready flag")
	postReady.SetDescription("Marks the caller ready or not ready. Requires Bearer token.")
	postReady.AddReqStructure(ReadyRequest{})
	postReady.AddRespStructure(game.LobbySession{}, openapi.WithHTTPStatus(http.StatusOK))
	postReady.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReady)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start the duel")
	postStart.SetDescription("Host starts the match once everyone is ready. Requires Bearer token.")
	postStart.AddRespStructure(game.DuelState{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/game/leave
	postLeave, _ := r.NewOperationContext(http.MethodPost, "/api/game/leave")
	postLeave.SetSummary("Leave the lobby")
	postLeave.SetDescription("Removes the caller from the lobby. Requires Bearer token.")
	postLeave.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLeave)

	// POST /api/game/heartbeat
	postHeartbeat, _ := r.NewOperationContext(http.MethodPost, "/api/game/heartbeat")
	postHeartbeat.SetSummary("Heartbeat")
	postHeartbeat.SetDescription("Refreshes the caller's liveness and sweeps stale peers. Requires Bearer token.")
	postHeartbeat.AddRespStructure(HeartbeatResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postHeartbeat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postHeartbeat)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the lobby and duel documents plus the shared countdown. Requires Bearer token.")
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/game/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/game/guess")
	postGuess.SetSummary("Submit guess")
	postGuess.SetDescription("Submits the caller's guess for the current round. Requires Bearer token.")
	postGuess.AddReqStructure(GuessRequest{})
	postGuess.AddRespStructure(game.DuelState{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	// POST /api/game/advance
	postAdvance, _ := r.NewOperationContext(http.MethodPost, "/api/game/advance")
	postAdvance.SetSummary("Advance to next round")
	postAdvance.SetDescription("Host moves a resolved round to the next one. Requires Bearer token.")
	postAdvance.AddRespStructure(game.DuelState{}, openapi.WithHTTPStatus(http.StatusOK))
	postAdvance.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postAdvance.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAdvance)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of lobby and duel document updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
