// Package ratelimiter は固定ウィンドウ方式で操作の頻度を制限します。
package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// Limiter はリクエストやURL取得などの操作の頻度を制限するインターフェースです。
type Limiter interface {
	// Allow は現在のウィンドウに空きがあればカウントしてtrueを返します。待機はしません。
	Allow() bool
	// WaitIfNeeded は上限に達している場合、次のウィンドウまで待機します。
	WaitIfNeeded()
}

// RateLimiter は interval ごとに limit 回までの操作を許可します。複数のgoroutineから安全に利用できます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
	sleep     func(time.Duration)
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// resetIfElapsed は interval を過ぎていればカウントをリセットします。mu を保持して呼び出します。
func (rl *RateLimiter) resetIfElapsed(now time.Time) {
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
}

// Allow は上限に達していなければ操作をカウントしてtrueを返します。
func (rl *RateLimiter) Allow() bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.resetIfElapsed(rl.now())
	if rl.count >= rl.limit {
		return false
	}
	rl.count++
	return true
}

// WaitIfNeeded はレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) WaitIfNeeded() {
	if rl.limit <= 0 {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.resetIfElapsed(now)

	rl.count++
	if rl.count > rl.limit {
		wait := rl.interval - now.Sub(rl.lastReset)
		if wait > 0 {
			slog.Warn("rate limit reached, waiting", "limit", rl.limit, "wait", wait)
			rl.sleep(wait)
		}
		rl.count = 1
		rl.lastReset = rl.now()
	}
}
