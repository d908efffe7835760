package duel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusguessr/backend/internal/content"
	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/geo"
	"github.com/campusguessr/backend/internal/outcome"
	"github.com/campusguessr/backend/internal/sharedstate"
)

var (
	// ErrOutsideArea rejects a guess outside the playing area. Raised
	// before any state mutation.
	ErrOutsideArea = errors.New("guess is outside the playing area")
	// ErrFloorRequired rejects a guess inside a floor region without a
	// floor selection.
	ErrFloorRequired = errors.New("this location requires a floor selection")
	ErrNotParticipant = errors.New("player is not in this duel")
	ErrRoundOver      = errors.New("round is no longer accepting guesses")
	ErrNotHost        = errors.New("only the host may advance the round")

	// errAwaitingGuesses aborts a resolution attempt without writing: not
	// every player has submitted yet.
	errAwaitingGuesses = errors.New("awaiting guesses")
)

type Service struct {
	store    sharedstate.Store
	content  content.Provider
	recorder outcome.Recorder
	logger   *slog.Logger
	params   Params
	now      func() time.Time
}

func NewService(store sharedstate.Store, cp content.Provider, rec outcome.Recorder, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		content:  cp,
		recorder: rec,
		logger:   logger,
		params:   DefaultParams(),
		now:      time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get loads the duel document for a lobby.
func (s *Service) Get(ctx context.Context, lobbyID string) (game.DuelState, error) {
	var d game.DuelState
	if err := s.store.Get(ctx, game.DuelKey(lobbyID), &d); err != nil {
		return game.DuelState{}, err
	}
	return d, nil
}

// SubmitGuess validates and writes one player's guess for the current
// round. Geometry is validated before any write; the membership and phase
// checks ride the same guarded write as the guess itself, so a resolution
// or advance landing in between rejects the stale submission instead of
// letting it leak into a settled round. Re-submission replaces the earlier
// guess wholesale.
func (s *Service) SubmitGuess(ctx context.Context, lobbyID, uid string, loc game.Point, floor *int) error {
	campus, err := s.content.Campus(ctx)
	if err != nil {
		return err
	}
	if !geo.InPlayingArea(loc, campus.PlayingArea) {
		return ErrOutsideArea
	}
	if geo.FloorsForPoint(loc, campus.Regions) != nil && floor == nil {
		return ErrFloorRequired
	}

	_, err = sharedstate.Modify(ctx, s.store, game.DuelKey(lobbyID), func(d *game.DuelState) error {
		if _, ok := d.Health[uid]; !ok {
			return ErrNotParticipant
		}
		if d.Phase != game.PhaseGuessing {
			return ErrRoundOver
		}
		d.Guesses[uid] = game.Guess{
			Kind:     game.GuessPlaced,
			Location: &loc,
			Floor:    floor,
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Opportunistic resolution: whichever client observes both guesses
	// present resolves the round. The guess is already committed, so a
	// failure here is logged, not surfaced — another submit, watcher, or
	// expiry will resolve the round.
	if _, err := s.Resolve(ctx, lobbyID); err != nil {
		s.logger.Warn("opportunistic resolution failed", "lobby", lobbyID, "error", err)
	}
	return nil
}

// Resolve settles the current round once both players' guesses are in.
// The lastProcessedRound guard makes it idempotent: of all the clients
// racing to resolve the same round, exactly one write goes through and the
// rest are silent no-ops.
func (s *Service) Resolve(ctx context.Context, lobbyID string) (bool, error) {
	campus, err := s.content.Campus(ctx)
	if err != nil {
		return false, err
	}

	var resolved game.DuelState
	err = s.store.Update(ctx, game.DuelKey(lobbyID), func(raw []byte) ([]byte, error) {
		var d game.DuelState
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		if d.LastProcessedRound >= d.CurrentRound || d.Phase != game.PhaseGuessing {
			return nil, sharedstate.ErrNoChange
		}
		for uid := range d.Health {
			if _, ok := d.Guesses[uid]; !ok {
				return nil, errAwaitingGuesses
			}
		}
		applyOutcome(&d, ResolveRound(d.Guesses, d.Health, d.CurrentImage, d.CurrentRound, campus.Regions, s.params))
		resolved = d
		return json.Marshal(d)
	})
	if errors.Is(err, sharedstate.ErrNoChange) || errors.Is(err, errAwaitingGuesses) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("round resolved",
		"lobby", lobbyID, "round", resolved.LastProcessedRound,
		"damage", lastEntry(resolved).Damage, "phase", resolved.Phase)

	if resolved.Phase == game.PhaseFinished {
		s.recordOutcomes(ctx, lobbyID, resolved)
	}
	return true, nil
}

// ExpireRound force-finishes the current round once its time is up:
// placed guesses are re-flagged timed_out, absent ones become no_guess,
// and the round resolves in the same guarded write. This is the liveness
// guarantee — a round settles within the round time even if neither
// player ever interacts again.
func (s *Service) ExpireRound(ctx context.Context, lobbyID string, roundTimeSeconds int) (bool, error) {
	campus, err := s.content.Campus(ctx)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()

	var resolved game.DuelState
	err = s.store.Update(ctx, game.DuelKey(lobbyID), func(raw []byte) ([]byte, error) {
		var d game.DuelState
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		if d.LastProcessedRound >= d.CurrentRound || d.Phase != game.PhaseGuessing {
			return nil, sharedstate.ErrNoChange
		}
		if Remaining(d, roundTimeSeconds, now) > 0 {
			return nil, sharedstate.ErrNoChange
		}
		for uid := range d.Health {
			g, ok := d.Guesses[uid]
			if !ok {
				d.Guesses[uid] = game.Guess{Kind: game.GuessNone}
				continue
			}
			if g.Kind == game.GuessPlaced {
				g.Kind = game.GuessTimedOut
				d.Guesses[uid] = g
			}
		}
		applyOutcome(&d, ResolveRound(d.Guesses, d.Health, d.CurrentImage, d.CurrentRound, campus.Regions, s.params))
		resolved = d
		return json.Marshal(d)
	})
	if errors.Is(err, sharedstate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("round expired", "lobby", lobbyID, "round", resolved.LastProcessedRound)

	if resolved.Phase == game.PhaseFinished {
		s.recordOutcomes(ctx, lobbyID, resolved)
	}
	return true, nil
}

// AdvanceRound moves a resolved round to the next one: fresh image, empty
// guesses, new shared round epoch. Host-only. A racing double-advance is a
// no-op because the expected round number is checked inside the update.
func (s *Service) AdvanceRound(ctx context.Context, lobbyID, uid string) (game.DuelState, error) {
	var l game.LobbySession
	if err := s.store.Get(ctx, game.LobbyKey(lobbyID), &l); err != nil {
		return game.DuelState{}, err
	}
	if uid != l.HostUID {
		return game.DuelState{}, ErrNotHost
	}

	d, err := s.Get(ctx, lobbyID)
	if err != nil {
		return game.DuelState{}, err
	}
	next := d.CurrentRound + 1
	img, err := s.content.ImageForRound(ctx, l.Difficulty, lobbyID, next)
	if err != nil {
		return game.DuelState{}, fmt.Errorf("picking image for round %d: %w", next, err)
	}
	now := s.now().UTC()

	return sharedstate.Modify(ctx, s.store, game.DuelKey(lobbyID), func(d *game.DuelState) error {
		if d.Phase != game.PhaseResults || d.CurrentRound != next-1 {
			return sharedstate.ErrNoChange
		}
		d.Phase = game.PhaseGuessing
		d.CurrentRound = next
		d.CurrentImage = img
		d.Guesses = map[string]game.Guess{}
		d.RoundStartedAt = now
		return nil
	})
}

// recordOutcomes reports the finished duel once per player. Only the
// client whose guarded write finished the duel gets here, so the recorder
// is invoked exactly once per match. Failures are logged, never retried:
// the guarded write already happened and a retry could double-book.
func (s *Service) recordOutcomes(ctx context.Context, lobbyID string, d game.DuelState) {
	if d.Winner == "" && d.Loser == "" {
		s.logger.Info("duel drawn", "lobby", lobbyID, "rounds", d.CurrentRound)
	}
	for uid, health := range d.Health {
		res := outcome.Result{
			Won:          uid == d.Winner,
			RoundsPlayed: d.CurrentRound,
			FinalHealth:  health,
		}
		if err := s.recorder.RecordOutcome(ctx, uid, res); err != nil {
			s.logger.Error("outcome recording failed", "lobby", lobbyID, "uid", uid, "error", err)
		}
	}

	_, err := sharedstate.Modify(ctx, s.store, game.LobbyKey(lobbyID), func(l *game.LobbySession) error {
		if l.Status != game.StatusInProgress {
			return sharedstate.ErrNoChange
		}
		l.Status = game.StatusFinished
		return nil
	})
	if err != nil && !errors.Is(err, sharedstate.ErrNoChange) {
		s.logger.Error("lobby finish failed", "lobby", lobbyID, "error", err)
	}
}

func applyOutcome(d *game.DuelState, out Outcome) {
	for uid, r := range out.Entry.Results {
		g := d.Guesses[uid]
		g.Score = r.Score
		d.Guesses[uid] = g
	}
	d.Health = out.HealthAfter
	d.RoundHistory = append(d.RoundHistory, out.Entry)
	d.LastProcessedRound = d.CurrentRound
	if out.Finished {
		d.Phase = game.PhaseFinished
		d.Winner = out.Winner
		d.Loser = out.Loser
	} else {
		d.Phase = game.PhaseResults
	}
}

func lastEntry(d game.DuelState) game.RoundHistoryEntry {
	if len(d.RoundHistory) == 0 {
		return game.RoundHistoryEntry{}
	}
	return d.RoundHistory[len(d.RoundHistory)-1]
}
