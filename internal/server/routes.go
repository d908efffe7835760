package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/campusguessr/backend/internal/content"
	"github.com/campusguessr/backend/internal/duel"
	"github.com/campusguessr/backend/internal/lobby"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// Services bundles everything the HTTP layer needs.
type Services struct {
	Store   sharedstate.Store
	Lobby   *lobby.Service
	Duel    *duel.Service
	Content content.Provider
	DB      *sql.DB
	Redis   *redis.Client
	SPADir  string
}

func addRoutes(r chi.Router, logger *slog.Logger, svcs Services) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CampusGuessr API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, svcs.DB, svcs.Redis))
	r.Get("/ws/ping", handleWSPing(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/campus", handleCampus(svcs))

		r.Post("/lobbies", handleCreateLobby(svcs))
		r.Get("/lobbies", handleFindLobbies(svcs))
		r.Get("/lobbies/{code}", handleLookupLobby(svcs))
		r.Post("/lobbies/{code}/join", handleJoinLobby(svcs))

		// Game routes require a session token.
		r.Route("/game", func(r chi.Router) {
			r.Use(sessionMiddleware(svcs.Store))
			r.Post("/ready", handleReady(svcs))
			r.Post("/start", handleStart(svcs))
			r.Post("/leave", handleLeave(svcs))
			r.Post("/heartbeat", handleHeartbeat(svcs))
			r.Get("/state", handleGameState(svcs))
			r.Post("/guess", handleGuess(svcs))
			r.Post("/advance", handleAdvance(svcs))
			r.Get("/events", handleEvents(logger, svcs))
		})
	})

	if svcs.SPADir != "" {
		if info, err := os.Stat(svcs.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", svcs.SPADir)
			r.NotFound(handleSPA(svcs.SPADir))
		}
	}
}
