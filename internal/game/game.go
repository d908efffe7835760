// Package game defines the core domain types for CampusGuessr duels.
// It has zero external dependencies — everything here is pure Go.
package game

import "time"

// Point is a position in percent coordinates of the 100x100 campus map.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region is a building footprint that requires floor disambiguation.
type Region struct {
	Name    string  `json:"name"`
	Polygon []Point `json:"polygon"`
	Floors  []int   `json:"floors"`
}

// PlayingArea bounds the clickable portion of the map. Guesses outside it
// are rejected before any state mutation.
type PlayingArea struct {
	Polygon []Point `json:"polygon"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
)

type LobbyStatus string

const (
	StatusWaiting    LobbyStatus = "waiting"
	StatusInProgress LobbyStatus = "in_progress"
	StatusFinished   LobbyStatus = "finished"
	StatusAbandoned  LobbyStatus = "abandoned"
)

// Player is a participant in a lobby.
type Player struct {
	UID           string    `json:"uid"`
	Username      string    `json:"username"`
	JoinedAt      time.Time `json:"joinedAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Ready         bool      `json:"ready"`
}

// LobbySession groups players before and during a match.
//
// Invariants: player UIDs are unique and len(Players) <= MaxPlayers.
type LobbySession struct {
	ID               string      `json:"id"`
	JoinCode         string      `json:"joinCode"`
	HostUID          string      `json:"hostUid"`
	HostUsername     string      `json:"hostUsername"`
	Visibility       Visibility  `json:"visibility"`
	Difficulty       Difficulty  `json:"difficulty"`
	MaxPlayers       int         `json:"maxPlayers"`
	Players          []Player    `json:"players"`
	Status           LobbyStatus `json:"status"`
	RoundTimeSeconds int         `json:"roundTimeSeconds"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// PlayerByUID returns the player with the given uid, or nil.
func (l *LobbySession) PlayerByUID(uid string) *Player {
	for i := range l.Players {
		if l.Players[i].UID == uid {
			return &l.Players[i]
		}
	}
	return nil
}

// StartEligible reports whether the host may start the match. Derived on
// every call, never cached, so an eviction from a full lobby invalidates
// eligibility automatically.
func (l *LobbySession) StartEligible() bool {
	if l.Status != StatusWaiting || len(l.Players) != l.MaxPlayers {
		return false
	}
	for _, p := range l.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

type DuelPhase string

const (
	PhaseGuessing DuelPhase = "guessing"
	PhaseResults  DuelPhase = "results"
	PhaseFinished DuelPhase = "finished"
)

// GuessKind discriminates the guess variants. Consumers switch on it
// exhaustively; there is no untagged state.
type GuessKind string

const (
	// GuessPlaced is a deliberate guess submitted before the round timer ran out.
	GuessPlaced GuessKind = "placed"
	// GuessTimedOut is a placed guess that was auto-resubmitted at expiry.
	GuessTimedOut GuessKind = "timed_out"
	// GuessNone means the player never placed anything before expiry.
	GuessNone GuessKind = "no_guess"
)

// Guess is one player's submission for the current round. Location and
// Floor are set for placed and timed_out guesses only. Score is filled in
// at resolution.
type Guess struct {
	Kind     GuessKind `json:"kind"`
	Location *Point    `json:"location,omitempty"`
	Floor    *int      `json:"floor,omitempty"`
	Score    int       `json:"score"`
}

// Image is the photo the current round is played against.
type Image struct {
	URL             string     `json:"url"`
	CorrectLocation Point      `json:"correctLocation"`
	CorrectFloor    *int       `json:"correctFloor,omitempty"`
	Difficulty      Difficulty `json:"difficulty"`
}

// PlayerRound is one player's resolved result within a round.
type PlayerRound struct {
	Location     *Point  `json:"location,omitempty"`
	Floor        *int    `json:"floor,omitempty"`
	Score        int     `json:"score"`
	Distance     float64 `json:"distance"`
	FloorCorrect bool    `json:"floorCorrect"`
}

// RoundHistoryEntry records one resolved round. Immutable once appended.
type RoundHistoryEntry struct {
	RoundNumber int                    `json:"roundNumber"`
	Results     map[string]PlayerRound `json:"results"`
	Damage      int                    `json:"damage"`
	DamagedUID  string                 `json:"damagedUid"`
	Multiplier  float64                `json:"multiplier"`
	HealthAfter map[string]int         `json:"healthAfter"`
}

// DuelState is the shared duel document. It is the single source of truth
// for both clients; the only canonical clock is RoundStartedAt.
type DuelState struct {
	Phase              DuelPhase           `json:"phase"`
	CurrentRound       int                 `json:"currentRound"`
	CurrentImage       Image               `json:"currentImage"`
	Guesses            map[string]Guess    `json:"guesses"`
	Health             map[string]int      `json:"health"`
	RoundHistory       []RoundHistoryEntry `json:"roundHistory"`
	Winner             string              `json:"winner,omitempty"`
	Loser              string              `json:"loser,omitempty"`
	RoundStartedAt     time.Time           `json:"roundStartedAt"`
	LastProcessedRound int                 `json:"lastProcessedRound"`
}

// Tunables shared by every client. Any value derived from these must be a
// deterministic function of the shared document alone.
const (
	StartingHealth = 5000
	MaxRounds      = 10
	DuelPlayers    = 2

	HeartbeatInterval = 10 * time.Second
	SweepInterval     = 15 * time.Second
	// StaleAfter tolerates two missed beats before a peer is evicted.
	StaleAfter = 3 * HeartbeatInterval
)
