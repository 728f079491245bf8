package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	"SignalGuard/internal/state"
)

// RedisTrackerStore persists per-model trackers in Redis hashes so
// model state survives process restarts and is shared across replicas.
// Creation uses HSETNX per field, which makes concurrent first touch of
// a key race-free.
type RedisTrackerStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisTrackerStore(client *redis.Client, prefix string) *RedisTrackerStore {
	if prefix == "" {
		prefix = "signalguard"
	}
	return &RedisTrackerStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisTrackerStore) trackerKey(key string) string {
	return fmt.Sprintf("%s:tracker:%s", s.prefix, key)
}

func (s *RedisTrackerStore) GetOrCreate(ctx context.Context, key string) (models.PerformanceTracker, error) {
	rkey := s.trackerKey(key)

	pipe := s.client.Pipeline()
	pipe.HSetNX(ctx, rkey, "created_at", s.now().Unix())
	pipe.HSetNX(ctx, rkey, "total", 0)
	pipe.HSetNX(ctx, rkey, "correct", 0)
	pipe.HSetNX(ctx, rkey, "recent", 0.5)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.PerformanceTracker{}, fmt.Errorf("redis tracker init %q: %w", key, err)
	}

	fields, err := s.client.HGetAll(ctx, rkey).Result()
	if err != nil {
		return models.PerformanceTracker{}, fmt.Errorf("redis tracker read %q: %w", key, err)
	}
	return parseTracker(fields)
}

func (s *RedisTrackerStore) RecordOutcome(ctx context.Context, key string, correct bool) error {
	rkey := s.trackerKey(key)

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, rkey, "total", 1)
	if correct {
		pipe.HIncrBy(ctx, rkey, "correct", 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis tracker outcome %q: %w", key, err)
	}

	// EWMA update of recent accuracy; last-writer-wins is acceptable
	// for an advisory trend input.
	recent, err := s.client.HGet(ctx, rkey, "recent").Float64()
	if err != nil {
		return fmt.Errorf("redis tracker recent %q: %w", key, err)
	}
	outcome := 0.0
	if correct {
		outcome = 1.0
	}
	recent = recent*0.9 + outcome*0.1
	if err := s.client.HSet(ctx, rkey, "recent", recent).Err(); err != nil {
		return fmt.Errorf("redis tracker recent update %q: %w", key, err)
	}
	return nil
}

func parseTracker(fields map[string]string) (models.PerformanceTracker, error) {
	var t models.PerformanceTracker
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return t, fmt.Errorf("parse created_at: %w", err)
	}
	total, err := strconv.Atoi(fields["total"])
	if err != nil {
		return t, fmt.Errorf("parse total: %w", err)
	}
	correct, err := strconv.Atoi(fields["correct"])
	if err != nil {
		return t, fmt.Errorf("parse correct: %w", err)
	}
	recent, err := strconv.ParseFloat(fields["recent"], 64)
	if err != nil {
		return t, fmt.Errorf("parse recent: %w", err)
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	t.TotalPredictions = total
	t.CorrectPredictions = correct
	t.RecentAccuracy = recent
	return t, nil
}

var _ domrepo.TrackerStore = (*RedisTrackerStore)(nil)

// RedisSampleStore persists per-model accuracy observations in Redis
// lists. First touch seeds the list through a Lua script, so concurrent
// callers observe either no list or the complete seed, never a partial
// one. List existence is the only seed marker.
type RedisSampleStore struct {
	client *redis.Client
	prefix string
	seed   state.SeedFunc
}

func NewRedisSampleStore(client *redis.Client, prefix string, seed state.SeedFunc) *RedisSampleStore {
	if prefix == "" {
		prefix = "signalguard"
	}
	if seed == nil {
		seed = state.EmptySeed
	}
	return &RedisSampleStore{client: client, prefix: prefix, seed: seed}
}

func (s *RedisSampleStore) listKey(key string) string {
	return fmt.Sprintf("%s:samples:%s", s.prefix, key)
}

// seedSamplesScript pushes the seed and reads the list back in one
// atomic step. Only the first writer's RPUSH lands; losers of the race
// still read the complete seed rather than an empty or partial list.
var seedSamplesScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 and #ARGV > 0 then
    redis.call('RPUSH', KEYS[1], unpack(ARGV))
end
return redis.call('LRANGE', KEYS[1], 0, -1)
`)

func (s *RedisSampleStore) GetOrCreate(ctx context.Context, key string) ([]float64, error) {
	lkey := s.listKey(key)

	// Only generate seed samples when the list looks absent; the script
	// re-checks existence so a racing creator cannot double-seed.
	var args []interface{}
	exists, err := s.client.Exists(ctx, lkey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis samples check %q: %w", key, err)
	}
	if exists == 0 {
		seeded := s.seed(key)
		args = make([]interface{}, len(seeded))
		for i, v := range seeded {
			args[i] = v
		}
	}

	raw, err := seedSamplesScript.Run(ctx, s.client, []string{lkey}, args...).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("redis samples seed %q: %w", key, err)
	}
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, fmt.Errorf("redis samples parse %q: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *RedisSampleStore) Append(ctx context.Context, key string, sample float64) error {
	if err := s.client.RPush(ctx, s.listKey(key), sample).Err(); err != nil {
		return fmt.Errorf("redis samples append %q: %w", key, err)
	}
	return nil
}

var _ domrepo.SampleStore = (*RedisSampleStore)(nil)
