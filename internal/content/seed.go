package content

import (
	"context"
	"errors"
	"log/slog"

	"github.com/campusguessr/backend/internal/game"
	"github.com/campusguessr/backend/internal/sharedstate"
)

// SeedDemo writes the demo campus if no campus content exists yet.
// Idempotent: does nothing when the document is already present.
func SeedDemo(ctx context.Context, logger *slog.Logger, store sharedstate.Store) error {
	var existing Campus
	err := store.Get(ctx, CampusKey, &existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sharedstate.ErrNotFound) {
		return err
	}

	if err := store.Set(ctx, CampusKey, demoCampus()); err != nil {
		return err
	}
	logger.Info("demo campus seeded")
	return nil
}

func floor(n int) *int { return &n }

func demoCampus() Campus {
	return Campus{
		Name: "Demo Campus",
		PlayingArea: game.PlayingArea{
			Polygon: []game.Point{
				{X: 2, Y: 2}, {X: 98, Y: 2}, {X: 98, Y: 98}, {X: 2, Y: 98},
			},
		},
		Regions: []game.Region{
			{
				Name: "Main Library",
				Polygon: []game.Point{
					{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 30, Y: 28}, {X: 10, Y: 28},
				},
				Floors: []int{1, 2, 3, 4},
			},
			{
				Name: "Science Hall",
				Polygon: []game.Point{
					{X: 55, Y: 15}, {X: 78, Y: 15}, {X: 78, Y: 32}, {X: 55, Y: 32},
				},
				Floors: []int{1, 2},
			},
			{
				Name: "Student Union",
				Polygon: []game.Point{
					{X: 40, Y: 60}, {X: 62, Y: 60}, {X: 62, Y: 82}, {X: 40, Y: 82},
				},
				Floors: []int{1, 2, 3},
			},
		},
		Images: []game.Image{
			{
				URL:             "/photos/library-stacks.jpg",
				CorrectLocation: game.Point{X: 18, Y: 20},
				CorrectFloor:    floor(3),
				Difficulty:      game.DifficultyNormal,
			},
			{
				URL:             "/photos/library-entrance.jpg",
				CorrectLocation: game.Point{X: 20, Y: 27},
				CorrectFloor:    floor(1),
				Difficulty:      game.DifficultyEasy,
			},
			{
				URL:             "/photos/quad-fountain.jpg",
				CorrectLocation: game.Point{X: 48, Y: 45},
				Difficulty:      game.DifficultyEasy,
			},
			{
				URL:             "/photos/science-lab.jpg",
				CorrectLocation: game.Point{X: 65, Y: 24},
				CorrectFloor:    floor(2),
				Difficulty:      game.DifficultyNormal,
			},
			{
				URL:             "/photos/union-food-court.jpg",
				CorrectLocation: game.Point{X: 52, Y: 70},
				CorrectFloor:    floor(1),
				Difficulty:      game.DifficultyNormal,
			},
			{
				URL:             "/photos/maintenance-corridor.jpg",
				CorrectLocation: game.Point{X: 88, Y: 91},
				Difficulty:      game.DifficultyHard,
			},
			{
				URL:             "/photos/union-rooftop.jpg",
				CorrectLocation: game.Point{X: 58, Y: 63},
				CorrectFloor:    floor(3),
				Difficulty:      game.DifficultyHard,
			},
		},
	}
}
