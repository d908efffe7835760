// Package content serves the campus map, building regions, and the
// moderated photo pool. The submission/moderation pipeline that produces
// this data lives elsewhere; this package is a read-only consumer.
package content

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// CampusKey is the shared-store key of the campus content document.
const CampusKey = "content/campus"

// Campus is the playable content document: the clickable area, the floor
// regions, and the approved photo pool grouped by difficulty.
type Campus struct {
	Name        string           `json:"name"`
	PlayingArea game.PlayingArea `json:"playingArea"`
	Regions     []game.Region    `json:"regions"`
	Images      []game.Image     `json:"images"`
}

// Provider is the content port consumed by the lobby and duel engines.
type Provider interface {
	Campus(ctx context.Context) (Campus, error)

	// ImageForRound picks a photo for the given round. The choice is a
	// deterministic function of (seed, round, difficulty) so that two
	// clients racing to advance the same round always pick the same photo.
	ImageForRound(ctx context.Context, difficulty game.Difficulty, seed string, round int) (game.Image, error)
}

// StoreProvider reads the campus document from the shared store.
type StoreProvider struct {
	store sharedstate.Store
}

func NewStoreProvider(store sharedstate.Store) *StoreProvider {
	return &StoreProvider{store: store}
}

func (p *StoreProvider) Campus(ctx context.Context) (Campus, error) {
	var c Campus
	if err := p.store.Get(ctx, CampusKey, &c); err != nil {
		return Campus{}, fmt.Errorf("loading campus content: %w", err)
	}
	return c, nil
}

func (p *StoreProvider) ImageForRound(ctx context.Context, difficulty game.Difficulty, seed string, round int) (game.Image, error) {
	c, err := p.Campus(ctx)
	if err != nil {
		return game.Image{}, err
	}

	pool := make([]game.Image, 0, len(c.Images))
	for _, img := range c.Images {
		if img.Difficulty == difficulty {
			pool = append(pool, img)
		}
	}
	if len(pool) == 0 {
		pool = c.Images
	}
	if len(pool) == 0 {
		return game.Image{}, fmt.Errorf("campus has no images")
	}

	h := fnv.New32a()
	fmt.Fprintf(h, "%s/%d", seed, round)
	return pool[int(h.Sum32())%len(pool)], nil
}
