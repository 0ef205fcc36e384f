package services

import (
	"context"
	"sync"
)

// PostLocks serializes workflow operations per post. Operations on different posts never
// contend. Entries are dropped once no caller holds or waits on them.
type PostLocks struct {
	mu      sync.Mutex
	entries map[string]*postLock
}

type postLock struct {
	ch   chan struct{}
	refs int
}

func NewPostLocks() *PostLocks {
	return &PostLocks{entries: make(map[string]*postLock)}
}

// Lock blocks until the post is free or ctx is done. The returned func releases the lock.
func (l *PostLocks) Lock(ctx context.Context, postID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[postID]
	if !ok {
		e = &postLock{ch: make(chan struct{}, 1)}
		l.entries[postID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(postID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(postID, e)
		})
	}, nil
}

func (l *PostLocks) release(postID string, e *postLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, postID)
	}
}

func (l *PostLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
