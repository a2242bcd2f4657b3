package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	GetRemaining() int
	GetResetTime() time.Time
}

// Clock 时间源，测试时替换为合成时钟
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock 默认时钟
var SystemClock Clock = realClock{}

// SlidingWindow 滑动窗口（时间戳日志）速率限制器
// 任意长度为 windowSize 的尾部窗口内，放行次数不超过 limit
type SlidingWindow struct {
	limit      int           // 限制数量
	windowSize time.Duration // 窗口大小
	requests   []time.Time   // 已放行请求的时间戳（升序）
	clock      Clock
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return NewSlidingWindowWithClock(limit, windowSize, SystemClock)
}

// NewSlidingWindowWithClock 使用指定时钟创建
func NewSlidingWindowWithClock(limit int, windowSize time.Duration, clock Clock) *SlidingWindow {
	if limit < 1 {
		limit = 1
	}
	if clock == nil {
		clock = SystemClock
	}
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		requests:   make([]time.Time, 0, limit),
		clock:      clock,
	}
}

// prune 移除窗口外的请求，调用方必须持有锁
func (sw *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		sw.requests = append(sw.requests[:0], sw.requests[i:]...)
	}
}

// tryAcquire 检查并登记放行，返回需要等待的时长（0 表示已放行）
func (sw *SlidingWindow) tryAcquire() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.clock.Now()
	sw.prune(now)
	if len(sw.requests) < sw.limit {
		sw.requests = append(sw.requests, now)
		return 0
	}
	wait := sw.requests[0].Add(sw.windowSize).Sub(now)
	if wait <= 0 {
		// 时钟精度导致的边界情况，下一轮 prune 会移除最旧的记录
		wait = time.Millisecond
	}
	return wait
}

// Allow 检查是否允许请求（非阻塞）
func (sw *SlidingWindow) Allow() bool {
	return sw.tryAcquire() == 0
}

// Wait 阻塞直到允许请求，然后登记本次放行
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		wait := sw.tryAcquire()
		if wait == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sw.clock.After(wait):
		}
	}
}

// GetRemaining 获取剩余请求数
func (sw *SlidingWindow) GetRemaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.prune(sw.clock.Now())
	return max(0, sw.limit-len(sw.requests))
}

// GetResetTime 最旧记录离开窗口的时间
func (sw *SlidingWindow) GetResetTime() time.Time {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.clock.Now()
	sw.prune(now)
	if len(sw.requests) == 0 {
		return now
	}
	return sw.requests[0].Add(sw.windowSize)
}

// 限流键
const (
	// KeyTokenIssue KIS tokenP：每分钟 1 次
	KeyTokenIssue = "kis:oauth2:token"
	// KeyApprovalIssue 实时行情 approval key
	KeyApprovalIssue = "kis:oauth2:approval"
)

// Manager 进程级速率限制管理器。显式构造后注入给所有会话，避免包级全局状态。
type Manager struct {
	limiters map[string]RateLimiter
	clock    Clock
	mu       sync.RWMutex
}

// NewManager 创建管理器并注册默认限制器
func NewManager() *Manager {
	return NewManagerWithClock(SystemClock)
}

// NewManagerWithClock 使用指定时钟创建管理器
func NewManagerWithClock(clock Clock) *Manager {
	m := &Manager{
		limiters: make(map[string]RateLimiter),
		clock:    clock,
	}
	m.initDefaultLimiters()
	return m
}

// initDefaultLimiters 初始化默认的速率限制器
func (m *Manager) initDefaultLimiters() {
	m.limiters[KeyTokenIssue] = NewSlidingWindowWithClock(1, time.Minute, m.clock)
	m.limiters[KeyApprovalIssue] = NewSlidingWindowWithClock(1, time.Minute, m.clock)
}

// Configure 替换某个键的窗口参数（例如从配置文件读取）
func (m *Manager) Configure(key string, limit int, window time.Duration) {
	m.Register(key, NewSlidingWindowWithClock(limit, window, m.clock))
}

// Register 注册或替换限制器
func (m *Manager) Register(key string, limiter RateLimiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[key] = limiter
}

// GetLimiter 获取指定键的速率限制器；未注册的键会按 1 次/分钟懒创建并保存，
// 保证同一个键在进程内只有一个窗口
func (m *Manager) GetLimiter(key string) RateLimiter {
	m.mu.RLock()
	limiter, ok := m.limiters[key]
	m.mu.RUnlock()
	if ok {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if limiter, ok := m.limiters[key]; ok {
		return limiter
	}
	limiter = NewSlidingWindowWithClock(1, time.Minute, m.clock)
	m.limiters[key] = limiter
	return limiter
}

// Wait 等待直到允许请求
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.GetLimiter(key).Wait(ctx)
}

// Allow 检查是否允许请求
func (m *Manager) Allow(key string) bool {
	return m.GetLimiter(key).Allow()
}

// GetRemaining 获取剩余请求数
func (m *Manager) GetRemaining(key string) int {
	return m.GetLimiter(key).GetRemaining()
}
