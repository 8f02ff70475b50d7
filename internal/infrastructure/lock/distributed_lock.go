package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 加锁：SET key value NX EX timeout，value 为持有者标识
// 释放：Lua 脚本校验 value 后再删除，避免误删他人在锁过期后重新获取的锁

var (
	ErrLockFailed = errors.New("获取分布式锁失败")
)

// Locker 按 key 互斥，同一账户/购物车的读-改-写必须串行
type Locker interface {
	Obtain(ctx context.Context, key, owner string) (Lock, error)
}

// Lock 已持有的锁
type Lock interface {
	Unlock(ctx context.Context) error
}

// DistributedLock 基于 Redis 的分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Unlock 释放锁，只删除自己持有的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.value).Err()
}

// RedisLocker 多实例部署时使用
type RedisLocker struct {
	client        *redis.Client
	expiration    time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewRedisLocker(client *redis.Client, expiration time.Duration) *RedisLocker {
	return &RedisLocker{
		client:        client,
		expiration:    expiration,
		retryInterval: 50 * time.Millisecond,
		maxRetries:    100,
	}
}

func (r *RedisLocker) Obtain(ctx context.Context, key, owner string) (Lock, error) {
	l := NewDistributedLock(r.client, key, owner, r.expiration)
	if err := l.Lock(ctx, r.retryInterval, r.maxRetries); err != nil {
		return nil, err
	}
	return l, nil
}

// AccountLockKey 积分账户锁，按账户维度加锁，不同账户可以并发
func AccountLockKey(accountID string) string {
	return fmt.Sprintf("points:lock:account:%s", accountID)
}

// CartLockKey 购物车锁；结算时先锁购物车再锁账户
func CartLockKey(accountID string) string {
	return fmt.Sprintf("cart:lock:account:%s", accountID)
}
