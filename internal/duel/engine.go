// Package duel implements the real-time duel round engine. The shared duel
// document is the only coordination channel between the two clients, so
// resolution is written as a pure function of the round inputs: any client
// that wins the conditional update computes exactly the result every other
// client would have computed.
package duel

import (
	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/geo"
	"github.com/campusguessr/backend/internal/scoring"
)

// Params are the engine tunables shared by every client.
type Params struct {
	Scoring   scoring.Params
	MaxRounds int
}

func DefaultParams() Params {
	return Params{
		Scoring:   scoring.Defaults(),
		MaxRounds: game.MaxRounds,
	}
}

// Multiplier is the damage escalation factor for a round. It depends on
// the round number alone so every client recomputes the same value.
func Multiplier(round int) float64 {
	return 1 + 0.5*float64(round-1)
}

// Outcome is the result of resolving one round.
type Outcome struct {
	Entry       game.RoundHistoryEntry
	HealthAfter map[string]int
	Finished    bool
	Winner      string
	Loser       string
}

// ResolveRound scores both guesses and applies damage. Pure: identical
// inputs always yield identical outputs, which is what makes the
// idempotency guard on the shared document safe to race on.
func ResolveRound(guesses map[string]game.Guess, health map[string]int, img game.Image, round int, regions []game.Region, p Params) Outcome {
	results := make(map[string]game.PlayerRound, len(health))
	for uid := range health {
		results[uid] = scoreGuess(guesses[uid], img, regions, p.Scoring)
	}

	// Damage the lower scorer by the score gap, escalated by round.
	mult := Multiplier(round)
	var damaged string
	best, worst := -1, -1
	for uid, r := range results {
		if best < 0 || r.Score > best {
			best = r.Score
		}
		if worst < 0 || r.Score < worst {
			worst = r.Score
			damaged = uid
		}
	}
	damage := int(float64(best-worst) * mult)
	if damage == 0 {
		damaged = ""
	}

	after := make(map[string]int, len(health))
	for uid, h := range health {
		after[uid] = h
	}
	if damaged != "" {
		h := after[damaged] - damage
		if h < 0 {
			h = 0
		}
		after[damaged] = h
	}

	out := Outcome{
		Entry: game.RoundHistoryEntry{
			RoundNumber: round,
			Results:     results,
			Damage:      damage,
			DamagedUID:  damaged,
			Multiplier:  mult,
			HealthAfter: after,
		},
		HealthAfter: after,
	}

	eliminated := damaged != "" && after[damaged] == 0
	if eliminated || round >= p.MaxRounds {
		out.Finished = true
		out.Winner, out.Loser = decide(after)
	}
	return out
}

// scoreGuess maps a single guess to its round result. A missing or no_guess
// entry scores zero at maximum distance.
func scoreGuess(g game.Guess, img game.Image, regions []game.Region, p scoring.Params) game.PlayerRound {
	switch g.Kind {
	case game.GuessPlaced, game.GuessTimedOut:
	default:
		return game.PlayerRound{Distance: p.MaxDistance()}
	}
	if g.Location == nil {
		return game.PlayerRound{Distance: p.MaxDistance()}
	}

	d := geo.Distance(*g.Location, img.CorrectLocation)
	score := p.Score(d)

	floorCorrect := false
	if geo.FloorsForPoint(*g.Location, regions) != nil && img.CorrectFloor != nil {
		floorCorrect = g.Floor != nil && *g.Floor == *img.CorrectFloor
		score = p.ApplyFloor(score, floorCorrect)
	}

	return game.PlayerRound{
		Location:     g.Location,
		Floor:        g.Floor,
		Score:        score,
		Distance:     d,
		FloorCorrect: floorCorrect,
	}
}

// decide picks winner and loser by remaining health. Equal health at the
// round cap is a draw: both stay empty.
func decide(health map[string]int) (winner, loser string) {
	var hiUID, loUID string
	hi, lo := -1, -1
	for uid, h := range health {
		if hi < 0 || h > hi {
			hi, hiUID = h, uid
		}
		if lo < 0 || h < lo {
			lo, loUID = h, uid
		}
	}
	if hi == lo {
		return "", ""
	}
	return hiUID, loUID
}
