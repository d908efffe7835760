// Package geo answers point-in-polygon questions against the playable map
// and per-building floor regions.
package geo

import (
	"math"

	"github.com/campusguessr/backend/internal/game"
)

// Distance returns the euclidean distance between two map points.
func Distance(a, b game.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// contains implements the even-odd ray-casting rule. Points exactly on an
// edge may land on either side; region polygons are drawn with enough slack
// that this never matters in practice.
func contains(p game.Point, polygon []game.Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// InPlayingArea reports whether p is a valid guess location.
func InPlayingArea(p game.Point, area game.PlayingArea) bool {
	return contains(p, area.Polygon)
}

// FloorsForPoint returns the floor list of the first region containing p,
// or nil when no region matches (no floor requirement).
func FloorsForPoint(p game.Point, regions []game.Region) []int {
	for _, r := range regions {
		if contains(p, r.Polygon) {
			return r.Floors
		}
	}
	return nil
}
