package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type cacheRepoStub struct {
	mu      sync.Mutex
	values  map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	deleted []string
	onSet   func(key string)
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.onSet != nil {
		s.onSet(key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	s.ttls[key] = ttl
	return nil
}

func (s *cacheRepoStub) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	s.deleted = append(s.deleted, keys...)
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, pattern)
	return nil
}

func TestCacheServiceHitMissAndDefaultTTL(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, conflictReportKey("tt-1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, conflictReportKey("tt-1"), "report", 0))
	assert.Equal(t, time.Minute, repo.ttls["timetable:conflicts:tt-1"])

	hit, err = svc.Get(ctx, conflictReportKey("tt-1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "report", out)

	require.NoError(t, svc.Delete(ctx, conflictReportKey("tt-1")))
	assert.Equal(t, []string{"timetable:conflicts:tt-1"}, repo.deleted)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := newCacheRepoStub()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, hit)
	assert.EqualError(t, err, "connection refused")
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", time.Second))
	assert.Empty(t, repo.values)

	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(ctx, "timetable:*"))
}
