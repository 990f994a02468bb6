package integration

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// hotelLocks serializes work per hotel while letting different hotels proceed
// concurrently. Entries are dropped once nobody holds or waits on them.
type hotelLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*hotelLock
}

type hotelLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newHotelLocks() *hotelLocks {
	return &hotelLocks{locks: make(map[uuid.UUID]*hotelLock)}
}

// acquire blocks until the hotel is free or ctx ends
func (l *hotelLocks) acquire(ctx context.Context, hotelID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[hotelID]
	if !ok {
		entry = &hotelLock{sem: semaphore.NewWeighted(1)}
		l.locks[hotelID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.unref(hotelID, entry)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			l.unref(hotelID, entry)
		})
	}, nil
}

func (l *hotelLocks) unref(hotelID uuid.UUID, entry *hotelLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, hotelID)
	}
}

func (l *hotelLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
