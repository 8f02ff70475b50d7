package service

import (
	"context"
	"errors"
	"fmt"

	"healthloop/internal/infrastructure/lock"
	"healthloop/pkg/idgen"
)

// withLocks 按给定顺序依次加锁，执行完毕后逆序释放
func withLocks(ctx context.Context, locker lock.Locker, keys []string, fn func() error) error {
	held := make([]lock.Lock, 0, len(keys))
	defer func() {
		// 释放锁不受请求取消影响
		unlockCtx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			_ = held[i].Unlock(unlockCtx)
		}
	}()

	owner := idgen.NewUUID()
	for _, key := range keys {
		l, err := locker.Obtain(ctx, key, owner)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrSystemBusy, err)
		}
		held = append(held, l)
	}
	return fn()
}
