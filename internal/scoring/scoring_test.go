package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePerfectRadius(t *testing.T) {
	p := Defaults()

	assert.Equal(t, 5000, p.Score(0))
	assert.Equal(t, 5000, p.Score(3))
	assert.Equal(t, 5000, p.Score(p.PerfectRadius))
}

func TestScoreKnownDistances(t *testing.T) {
	p := Defaults()

	// Hand-computed against the curve: r = (d-5)/131.4213562373095.
	assert.Equal(t, 4971, p.Score(6))
	assert.Equal(t, 4326, p.Score(10))
	assert.Equal(t, 1359, p.Score(20))
	assert.Equal(t, 0, p.Score(50))
}

func TestScoreMaxDistanceNearZero(t *testing.T) {
	p := Defaults()

	assert.InDelta(t, 136.42, p.MaxDistance(), 0.01)
	assert.Equal(t, 0, p.Score(p.MaxDistance()))
	assert.Equal(t, 0, p.Score(500))
}

func TestScoreMonotonicDecay(t *testing.T) {
	p := Defaults()

	prev := p.MaxScore
	for d := p.PerfectRadius; d <= p.MaxDistance(); d += 0.25 {
		s := p.Score(d)
		assert.LessOrEqual(t, s, prev, "score increased at distance %v", d)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, p.MaxScore)
		prev = s
	}
}

func TestApplyFloor(t *testing.T) {
	p := Defaults()

	assert.Equal(t, 4000, p.ApplyFloor(4000, true))
	assert.Equal(t, 3200, p.ApplyFloor(4000, false))
	assert.Equal(t, 0, p.ApplyFloor(0, false))
}

func TestApplyTimeDecay(t *testing.T) {
	p := Defaults()

	// Instant guess keeps the full score.
	assert.Equal(t, 4000, p.ApplyTimeDecay(4000, 0, 60))
	// Halfway through the round halves it.
	assert.Equal(t, 2000, p.ApplyTimeDecay(4000, 30, 60))
	// Decay is floored at the minimum multiplier.
	assert.Equal(t, 2000, p.ApplyTimeDecay(4000, 55, 60))
	assert.Equal(t, 2000, p.ApplyTimeDecay(4000, 120, 60))
	// Zero round length disables decay.
	assert.Equal(t, 4000, p.ApplyTimeDecay(4000, 10, 0))
}

func TestApplyTimeDecayNonIncreasing(t *testing.T) {
	p := Defaults()

	prev := p.ApplyTimeDecay(5000, 0, 60)
	for e := 1.0; e <= 70; e++ {
		s := p.ApplyTimeDecay(5000, e, 60)
		assert.LessOrEqual(t, s, prev)
		prev = s
	}
}
