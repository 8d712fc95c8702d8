package etsy

import (
	"context"
	"log"
	"sync"
	"time"
)

// Etsy API 配额
const (
	MaxPerSecond = 10    // 每秒最大请求数
	MaxPerDay    = 10000 // 每日最大请求数
)

// ==================== RateLimiter Etsy API 限流器 ====================

// RateLimiter 双重限流：
//   - 每秒 10 次：并发槽位在放行 1 秒后自动释放，平滑突发流量
//   - 每日 10000 次：计数器在跨过 UTC 零点后惰性重置（下次访问时检测）
//
// 所有 API 调用共享同一个实例，必须并发安全
type RateLimiter struct {
	mu         sync.Mutex
	dailyCount int
	dailyReset time.Time // 上次重置时间，零值表示未初始化

	sem chan struct{}

	// 测试钩子
	now          func() time.Time
	releaseDelay time.Duration
}

// NewRateLimiter 创建限流器
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		sem:          make(chan struct{}, MaxPerSecond),
		now:          time.Now,
		releaseDelay: time.Second,
	}
}

// checkDailyReset 跨天（UTC）时清零计数器，调用方需持有锁
func (l *RateLimiter) checkDailyReset() {
	now := l.now().UTC()
	if l.dailyReset.IsZero() || now.Truncate(24*time.Hour).After(l.dailyReset.UTC().Truncate(24*time.Hour)) {
		l.dailyCount = 0
		l.dailyReset = now
	}
}

// Acquire 获取一个请求额度
// 每日配额用尽时返回 false，调用方应以限流错误终止本次操作；
// 否则占用一个并发槽位（可能阻塞至 1 秒内有槽位释放）后放行
func (l *RateLimiter) Acquire(ctx context.Context) bool {
	l.mu.Lock()
	l.checkDailyReset()
	if l.dailyCount >= MaxPerDay {
		l.mu.Unlock()
		log.Println("[RateLimiter] 已达每日请求上限")
		return false
	}
	l.dailyCount++
	l.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	// 槽位固定在 1 秒后释放，而不是请求结束时释放
	time.AfterFunc(l.releaseDelay, func() { <-l.sem })
	return true
}

// DailyRemaining 今日剩余请求额度
func (l *RateLimiter) DailyRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkDailyReset()
	if remaining := MaxPerDay - l.dailyCount; remaining > 0 {
		return remaining
	}
	return 0
}
