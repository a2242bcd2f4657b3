// Package broker 由配置组装一个可用的 KIS 账户客户端。
package broker

import (
	"fmt"
	"time"

	"github.com/betbot/systock/internal/ports"
	"github.com/betbot/systock/kis/client"
	"github.com/betbot/systock/pkg/config"
	"github.com/betbot/systock/pkg/logger"
	"github.com/betbot/systock/pkg/ratelimit"
	"github.com/betbot/systock/pkg/tokenstore"
)

// Broker 一个账户的全部能力，附带它打开的 token 存储
type Broker struct {
	*client.Client
	store tokenstore.CloseableStore
}

var _ ports.Broker = (*Broker)(nil)

// NewLimits 按配置创建进程内共享的限流器；同一进程的所有 Broker 应共用一个
func NewLimits(cfg *config.Config) *ratelimit.Manager {
	limits := ratelimit.NewManager()
	limits.Configure(ratelimit.KeyTokenIssue, cfg.RateLimit.TokenIssueLimit, cfg.RateLimit.TokenIssueWindow.Duration)
	limits.Configure(ratelimit.KeyApprovalIssue, cfg.RateLimit.ApprovalIssueLimit, cfg.RateLimit.ApprovalIssueWindow.Duration)
	return limits
}

// New 创建 Broker。limits 为 nil 时按配置新建一个。
func New(cfg *config.Config, limits *ratelimit.Manager) (*Broker, error) {
	cred, err := cfg.Credential()
	if err != nil {
		return nil, err
	}
	if limits == nil {
		limits = NewLimits(cfg)
	}

	store, err := tokenstore.Open(cfg.TokenStoreOptions())
	if err != nil {
		return nil, fmt.Errorf("打开 token 存储失败: %w", err)
	}

	c := client.NewClient(cred, client.Options{
		BaseURL:     cfg.KIS.BaseURL,
		Timeout:     cfg.KIS.Timeout.Duration,
		Store:       store,
		Limits:      limits,
		PageDelay:   delay(cfg.Pacing.PageDelay.Duration),
		CancelDelay: delay(cfg.Pacing.CancelDelay.Duration),
	})
	logger.Infof("KIS 客户端已创建: env=%s host=%s store=%s", cred.Environment, c.GetHost(), cfg.TokenStore.Backend)
	return &Broker{Client: c, store: store}, nil
}

// delay 配置里的 0 表示不等待；client.Options 里 0 表示默认值
func delay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// Close 释放 token 存储
func (b *Broker) Close() error {
	if b.store == nil {
		return nil
	}
	return b.store.Close()
}
