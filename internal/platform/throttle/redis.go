// Package throttle limits repeated failed logins per account.
package throttle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per email.
type LoginLimiter interface {
	// Blocked reports whether further attempts for email are rejected.
	Blocked(ctx context.Context, email string) (bool, error)
	// Fail records one failed attempt.
	Fail(ctx context.Context, email string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, email string) error
}

// ConnectRedis opens and pings a client.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	log.Println("Successfully connected to Redis!")
	return rdb, nil
}

type redisLimiter struct {
	rdb         *redis.Client
	maxFailures int
	lockout     time.Duration
}

// NewRedisLimiter blocks an email for lockout once maxFailures failures have
// been recorded within the lockout window.
func NewRedisLimiter(rdb *redis.Client, maxFailures int, lockout time.Duration) LoginLimiter {
	return &redisLimiter{rdb: rdb, maxFailures: maxFailures, lockout: lockout}
}

func failureKey(email string) string {
	return "quizmaster:login_failures:" + strings.ToLower(strings.TrimSpace(email))
}

func (l *redisLimiter) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := l.rdb.Get(ctx, failureKey(email)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redisLimiter.Blocked: %w", err)
	}
	return n >= l.maxFailures, nil
}

func (l *redisLimiter) Fail(ctx context.Context, email string) error {
	key := failureKey(email)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.lockout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisLimiter.Fail: %w", err)
	}
	if incr.Val() == int64(l.maxFailures) {
		log.Printf("WARN: login for %s locked for %s after %d failures", email, l.lockout, l.maxFailures)
	}
	return nil
}

func (l *redisLimiter) Reset(ctx context.Context, email string) error {
	if err := l.rdb.Del(ctx, failureKey(email)).Err(); err != nil {
		return fmt.Errorf("redisLimiter.Reset: %w", err)
	}
	return nil
}

type noopLimiter struct{}

// NoopLimiter never blocks. It is used when no Redis address is configured.
func NoopLimiter() LoginLimiter { return noopLimiter{} }

func (noopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (noopLimiter) Fail(context.Context, string) error            { return nil }
func (noopLimiter) Reset(context.Context, string) error           { return nil }
