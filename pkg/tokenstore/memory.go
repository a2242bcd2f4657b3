package tokenstore

import (
	"time"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/cache"
)

// MemoryStore 只在进程内有效，条目在服务端到期时间之后自动淘汰
type MemoryStore struct {
	entries *cache.InMemoryCache[string, entry]
	now     func() time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock 使用指定时间源
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: cache.NewInMemoryCacheWithClock[string, entry](24*time.Hour, now),
		now:     now,
	}
}

// Load 读取 token
func (s *MemoryStore) Load(accountKey string) (types.Token, bool) {
	e, ok := s.entries.Get(accountKey)
	if !ok {
		return types.Token{}, false
	}
	return e.toToken(accountKey)
}

// Save 写入 token；到期时间无法解析时按默认 TTL 保留，读取时会被视为已过期
func (s *MemoryStore) Save(token, expiry, accountKey string) {
	var ttl time.Duration
	if expiresAt, err := types.ParseTokenExpiry(expiry); err == nil {
		ttl = expiresAt.Sub(s.now())
		if ttl <= 0 {
			ttl = time.Second
		}
	}
	s.entries.Set(accountKey, entry{Token: token, Expired: expiry}, ttl)
}

// Close 无需释放资源
func (s *MemoryStore) Close() error { return nil }
