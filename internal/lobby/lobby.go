// Package lobby implements the matchmaking state machine: create, find,
// join, ready, start. All state lives in shared lobby documents; every
// operation is an atomic read-modify-write against the store so racing
// clients converge on the same lobby.
package lobby

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/campusguessr/backend/internal/content"
	"github.com/campusguessr/backend/internal/friends"
	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

var (
	ErrLobbyFull      = errors.New("lobby is full")
	ErrFriendsOnly    = errors.New("lobby is restricted to the host's friends")
	ErrNotHost        = errors.New("only the host may do this")
	ErrNotMember      = errors.New("player is not in this lobby")
	ErrNotEligible    = errors.New("lobby is not ready to start")
	ErrAlreadyStarted = errors.New("lobby has already started")
)

// codeAlphabet avoids ambiguous characters (0/O, 1/I) in join codes.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

type Service struct {
	store   sharedstate.Store
	friends friends.Lookup
	content content.Provider
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store sharedstate.Store, fl friends.Lookup, cp content.Provider, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		friends: fl,
		content: cp,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CreateParams configures a new lobby.
type CreateParams struct {
	HostUID          string
	HostUsername     string
	Visibility       game.Visibility
	Difficulty       game.Difficulty
	MaxPlayers       int
	RoundTimeSeconds int
}

// codeIndex maps a join code to the lobby that owns it.
type codeIndex struct {
	LobbyID string `json:"lobbyId"`
}

// Create writes a fresh waiting lobby with the host as its first player
// and indexes its join code. Code collisions are tolerated: the index
// always points at the newest lobby, and lookup requires status=waiting.
func (s *Service) Create(ctx context.Context, p CreateParams) (game.LobbySession, error) {
	if p.MaxPlayers <= 0 {
		p.MaxPlayers = game.DuelPlayers
	}
	if p.RoundTimeSeconds <= 0 {
		p.RoundTimeSeconds = 60
	}
	if p.Visibility == "" {
		p.Visibility = game.VisibilityPublic
	}
	if p.Difficulty == "" {
		p.Difficulty = game.DifficultyNormal
	}

	now := s.now().UTC()
	l := game.LobbySession{
		ID:           newID(),
		JoinCode:     newJoinCode(),
		HostUID:      p.HostUID,
		HostUsername: p.HostUsername,
		Visibility:   p.Visibility,
		Difficulty:   p.Difficulty,
		MaxPlayers:   p.MaxPlayers,
		Players: []game.Player{{
			UID:           p.HostUID,
			Username:      p.HostUsername,
			JoinedAt:      now,
			LastHeartbeat: now,
		}},
		Status:           game.StatusWaiting,
		RoundTimeSeconds: p.RoundTimeSeconds,
		CreatedAt:        now,
	}

	if err := s.store.Set(ctx, game.LobbyKey(l.ID), l); err != nil {
		return game.LobbySession{}, fmt.Errorf("writing lobby: %w", err)
	}
	if err := s.store.Set(ctx, game.CodeKey(l.JoinCode), codeIndex{LobbyID: l.ID}); err != nil {
		return game.LobbySession{}, fmt.Errorf("indexing join code: %w", err)
	}
	if l.Visibility == game.VisibilityPublic {
		if err := s.indexPublic(ctx, l.ID, l.JoinCode); err != nil {
			s.logger.Warn("public index update failed", "lobby", l.ID, "error", err)
		}
	}

	s.logger.Info("lobby created",
		"lobby", l.ID, "code", l.JoinCode, "host", p.HostUID, "visibility", l.Visibility)
	return l, nil
}

// Get loads a lobby by id.
func (s *Service) Get(ctx context.Context, id string) (game.LobbySession, error) {
	var l game.LobbySession
	if err := s.store.Get(ctx, game.LobbyKey(id), &l); err != nil {
		return game.LobbySession{}, err
	}
	return l, nil
}

// Lookup resolves a join code to its waiting lobby. Codes pointing at
// started or abandoned lobbies resolve to not-found.
func (s *Service) Lookup(ctx context.Context, code string) (game.LobbySession, error) {
	var idx codeIndex
	if err := s.store.Get(ctx, game.CodeKey(code), &idx); err != nil {
		return game.LobbySession{}, err
	}
	l, err := s.Get(ctx, idx.LobbyID)
	if err != nil {
		return game.LobbySession{}, err
	}
	if l.Status != game.StatusWaiting {
		return game.LobbySession{}, sharedstate.ErrNotFound
	}
	return l, nil
}

// Join adds a player to the lobby behind the code. Re-joining with the
// same uid refreshes the heartbeat instead of duplicating the player.
func (s *Service) Join(ctx context.Context, code, uid, username string) (game.LobbySession, error) {
	l, err := s.Lookup(ctx, code)
	if err != nil {
		return game.LobbySession{}, err
	}

	if l.Visibility == game.VisibilityFriends && uid != l.HostUID {
		ok, err := s.friends.AreFriends(ctx, l.HostUID, uid)
		if err != nil {
			return game.LobbySession{}, fmt.Errorf("friendship lookup: %w", err)
		}
		if !ok {
			return game.LobbySession{}, ErrFriendsOnly
		}
	}

	now := s.now().UTC()
	return sharedstate.Modify(ctx, s.store, game.LobbyKey(l.ID), func(l *game.LobbySession) error {
		if l.Status != game.StatusWaiting {
			return ErrAlreadyStarted
		}
		if p := l.PlayerByUID(uid); p != nil {
			p.LastHeartbeat = now
			return nil
		}
		if len(l.Players) >= l.MaxPlayers {
			return ErrLobbyFull
		}
		l.Players = append(l.Players, game.Player{
			UID:           uid,
			Username:      username,
			JoinedAt:      now,
			LastHeartbeat: now,
		})
		return nil
	})
}

// Leave removes a player. The host leaving promotes the longest-joined
// remaining player; an emptied lobby is marked abandoned.
func (s *Service) Leave(ctx context.Context, id, uid string) error {
	updated, err := sharedstate.Modify(ctx, s.store, game.LobbyKey(id), func(l *game.LobbySession) error {
		if l.PlayerByUID(uid) == nil {
			return sharedstate.ErrNoChange
		}
		removePlayer(l, uid)
		return nil
	})
	if errors.Is(err, sharedstate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if updated.Status == game.StatusAbandoned || updated.Visibility == game.VisibilityPublic {
		s.unindexPublic(ctx, id)
	}
	s.logger.Info("player left lobby", "lobby", id, "uid", uid, "status", updated.Status)
	return nil
}

// SetReady toggles a player's ready flag. Only meaningful while waiting.
func (s *Service) SetReady(ctx context.Context, id, uid string, ready bool) (game.LobbySession, error) {
	return sharedstate.Modify(ctx, s.store, game.LobbyKey(id), func(l *game.LobbySession) error {
		if l.Status != game.StatusWaiting {
			return ErrAlreadyStarted
		}
		p := l.PlayerByUID(uid)
		if p == nil {
			return ErrNotMember
		}
		p.Ready = ready
		return nil
	})
}

// Start transitions the lobby to in_progress and writes the initial duel
// document. Host-only; requires a full, all-ready lobby. The status flip is
// the single guarded write: only the request that wins it goes on to write
// the duel document, so a delayed duplicate start can never reset a match
// in progress. Clients that observe in_progress just before the duel write
// lands see not-found and keep polling.
func (s *Service) Start(ctx context.Context, id, uid string) (game.DuelState, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return game.DuelState{}, err
	}

	img, err := s.content.ImageForRound(ctx, l.Difficulty, l.ID, 1)
	if err != nil {
		return game.DuelState{}, fmt.Errorf("picking first image: %w", err)
	}

	updated, err := sharedstate.Modify(ctx, s.store, game.LobbyKey(id), func(l *game.LobbySession) error {
		if uid != l.HostUID {
			return ErrNotHost
		}
		if l.Status != game.StatusWaiting {
			return ErrAlreadyStarted
		}
		if !l.StartEligible() {
			return ErrNotEligible
		}
		l.Status = game.StatusInProgress
		return nil
	})
	if err != nil {
		return game.DuelState{}, err
	}

	health := make(map[string]int, len(updated.Players))
	for _, p := range updated.Players {
		health[p.UID] = game.StartingHealth
	}
	duel := game.DuelState{
		Phase:          game.PhaseGuessing,
		CurrentRound:   1,
		CurrentImage:   img,
		Guesses:        map[string]game.Guess{},
		Health:         health,
		RoundStartedAt: s.now().UTC(),
	}
	if err := s.store.Set(ctx, game.DuelKey(id), duel); err != nil {
		return game.DuelState{}, fmt.Errorf("writing duel state: %w", err)
	}

	s.unindexPublic(ctx, id)
	s.logger.Info("duel started", "lobby", id, "players", len(updated.Players))
	return duel, nil
}

func removePlayer(l *game.LobbySession, uid string) {
	players := l.Players[:0]
	for _, p := range l.Players {
		if p.UID != uid {
			players = append(players, p)
		}
	}
	l.Players = players

	if len(l.Players) == 0 {
		if l.Status == game.StatusWaiting {
			l.Status = game.StatusAbandoned
		}
		return
	}
	if l.HostUID == uid {
		sort.SliceStable(l.Players, func(i, j int) bool {
			return l.Players[i].JoinedAt.Before(l.Players[j].JoinedAt)
		})
		l.HostUID = l.Players[0].UID
		l.HostUsername = l.Players[0].Username
	}
}

func newID() string {
	return randomString("abcdef0123456789", 16)
}

func newJoinCode() string {
	return randomString(codeAlphabet, codeLength)
}

func randomString(alphabet string, n int) string {
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
