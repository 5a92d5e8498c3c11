package service

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// TimetableLocker serialises generation and manual edits per timetable id.
type TimetableLocker interface {
	Acquire(ctx context.Context, timetableID string) (func(), error)
}

// KeyedTimetableLocker is the in-process locker: one buffered channel per
// timetable id, dropped when its last holder releases.
type KeyedTimetableLocker struct {
	wait  time.Duration
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedTimetableLocker builds a locker that waits up to wait for a busy id.
func NewKeyedTimetableLocker(wait time.Duration) *KeyedTimetableLocker {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &KeyedTimetableLocker{wait: wait, locks: make(map[string]*keyedLock)}
}

// Acquire blocks until the id is free, the wait budget runs out
// (ErrTimetableBusy) or ctx is cancelled.
func (l *KeyedTimetableLocker) Acquire(ctx context.Context, timetableID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[timetableID]
	if !ok {
		lock = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[timetableID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case lock.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lock.ch
				l.unref(timetableID, lock)
			})
		}, nil
	case <-ctx.Done():
		l.unref(timetableID, lock)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(timetableID, lock)
		return nil, appErrors.Clone(appErrors.ErrTimetableBusy, "timetable is being modified by another request")
	}
}

func (l *KeyedTimetableLocker) unref(timetableID string, lock *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, timetableID)
	}
}
