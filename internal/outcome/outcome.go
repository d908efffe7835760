// Package outcome records finished-match results for XP and leaderboard
// bookkeeping. Recording happens exactly once per player per match, keyed
// off the same guarded write that finishes the duel.
package outcome

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Result is the per-player outcome of a finished duel.
type Result struct {
	Won          bool
	RoundsPlayed int
	FinalHealth  int
}

// XP awarded per match. The leaderboard service owns the real progression
// rules; these mirror its flat per-match grants.
const (
	xpWin  = 100
	xpLoss = 25
)

func (r Result) xp() int {
	if r.Won {
		return xpWin
	}
	return xpLoss
}

// Recorder is invoked once per player when a duel finishes.
type Recorder interface {
	RecordOutcome(ctx context.Context, uid string, res Result) error
}

// RedisRecorder keeps a global XP leaderboard in a sorted set plus
// per-player win/loss counters.
type RedisRecorder struct {
	client *redis.Client
}

func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: client}
}

func (r *RedisRecorder) RecordOutcome(ctx context.Context, uid string, res Result) error {
	field := "losses"
	if res.Won {
		field = "wins"
	}

	pipe := r.client.TxPipeline()
	pipe.ZIncrBy(ctx, "leaderboard:xp", float64(res.xp()), uid)
	pipe.HIncrBy(ctx, "player:"+uid, field, 1)
	pipe.HIncrBy(ctx, "player:"+uid, "xp", int64(res.xp()))
	_, err := pipe.Exec(ctx)
	return err
}

// MemRecorder captures outcomes for tests.
type MemRecorder struct {
	mu      sync.Mutex
	Results map[string][]Result
}

func NewMemRecorder() *MemRecorder {
	return &MemRecorder{Results: make(map[string][]Result)}
}

func (r *MemRecorder) RecordOutcome(ctx context.Context, uid string, res Result) error {
	r.mu.Lock()
	r.Results[uid] = append(r.Results[uid], res)
	r.mu.Unlock()
	return nil
}

// Count returns how many outcomes were recorded for uid.
func (r *MemRecorder) Count(uid string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Results[uid])
}
