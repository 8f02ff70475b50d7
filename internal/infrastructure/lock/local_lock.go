package lock

import (
	"context"
	"sync"
)

// LocalLocker 进程内按 key 互斥，单实例部署或未启用 Redis 时使用
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Obtain(ctx context.Context, key, _ string) (Lock, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return &localLock{owner: l, key: key, slot: s}, nil
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

type localLock struct {
	owner *LocalLocker
	key   string
	slot  *slot
	once  sync.Once
}

func (l *localLock) Unlock(context.Context) error {
	l.once.Do(func() {
		<-l.slot.ch
		l.owner.release(l.key, l.slot)
	})
	return nil
}
