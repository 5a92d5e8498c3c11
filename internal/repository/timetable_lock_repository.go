package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// TimetableLockConfig tunes the Redis lease lock.
type TimetableLockConfig struct {
	TTL          time.Duration
	Wait         time.Duration
	PollInterval time.Duration
	KeyPrefix    string
}

// TimetableLockRepository serialises work on one timetable across processes
// with a Redis lease (SET NX PX plus a token-checked release).
type TimetableLockRepository struct {
	client *redis.Client
	cfg    TimetableLockConfig
	logger *zap.Logger
}

// NewTimetableLockRepository constructs the lock repository.
func NewTimetableLockRepository(client *redis.Client, cfg TimetableLockConfig, logger *zap.Logger) *TimetableLockRepository {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "timetable:lock:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableLockRepository{client: client, cfg: cfg, logger: logger}
}

// Acquire blocks until the lease for timetableID is held, the wait budget is
// spent (ErrTimetableBusy) or ctx is done.
func (r *TimetableLockRepository) Acquire(ctx context.Context, timetableID string) (func(), error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client unavailable")
	}
	key := r.cfg.KeyPrefix + timetableID
	token := uuid.NewString()

	deadline := time.NewTimer(r.cfg.Wait)
	defer deadline.Stop()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() { r.release(key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, appErrors.Clone(appErrors.ErrTimetableBusy, "timetable is being modified by another request")
		case <-ticker.C:
		}
	}
}

func (r *TimetableLockRepository) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		r.logger.Warn("release timetable lock failed", zap.String("key", key), zap.Error(err))
	}
}
