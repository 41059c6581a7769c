package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"inventorypro/internal/model"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// ── Live shift snapshot ───────────────────────────────────────────────────────

const shiftSnapshotKey = "register:shift:active"

// ShiftSnapshotStore keeps a JSON copy of the live shift in Redis so a
// restarted process can resume it.
type ShiftSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewShiftSnapshotStore expires snapshots after ttl; zero keeps them forever.
func NewShiftSnapshotStore(rdb *redis.Client, ttl time.Duration) *ShiftSnapshotStore {
	return &ShiftSnapshotStore{rdb: rdb, ttl: ttl}
}

func (s *ShiftSnapshotStore) Save(ctx context.Context, shift *model.Shift) error {
	data, err := json.Marshal(shift)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, shiftSnapshotKey, data, s.ttl).Err()
}

// Load returns nil, nil when no snapshot exists.
func (s *ShiftSnapshotStore) Load(ctx context.Context) (*model.Shift, error) {
	data, err := s.rdb.Get(ctx, shiftSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var shift model.Shift
	if err := json.Unmarshal(data, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

func (s *ShiftSnapshotStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, shiftSnapshotKey).Err()
}
