package client

import (
	"context"
	"time"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/ratelimit"
	sdkhttp "github.com/betbot/systock/pkg/sdk/http"
	"github.com/betbot/systock/pkg/tokenstore"
)

// DefaultCancelDelay 批量撤单时每笔之间的间隔
const DefaultCancelDelay = 50 * time.Millisecond

// Options 客户端可选项，零值即默认
type Options struct {
	BaseURL     string        // 为空时按环境选择
	Timeout     time.Duration // HTTP 超时，默认 30s
	Store       tokenstore.Store
	Limits      *ratelimit.Manager // 同一进程内的多个客户端应共享
	PageDelay   time.Duration      // <0 表示不等待
	CancelDelay time.Duration      // <0 表示不等待
	Now         func() time.Time
}

// Client KIS 账户客户端
type Client struct {
	cred        types.Credential
	http        *sdkhttp.Client
	session     *Session
	dispatcher  *Dispatcher
	pages       *Paginator
	limits      *ratelimit.Manager
	cancelDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient 创建客户端。不发起任何网络请求，token 在第一次调用时才获取。
func NewClient(cred types.Credential, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURLFor(cred.Environment)
	}
	limits := opts.Limits
	if limits == nil {
		limits = ratelimit.NewManager()
	}
	pageDelay := opts.PageDelay
	if pageDelay == 0 {
		pageDelay = DefaultPageDelay
	}
	cancelDelay := opts.CancelDelay
	if cancelDelay == 0 {
		cancelDelay = DefaultCancelDelay
	}

	httpClient := sdkhttp.NewClient(baseURL, opts.Timeout)
	session := NewSession(cred, httpClient, opts.Store, limits.GetLimiter(ratelimit.KeyTokenIssue), opts.Now)

	return &Client{
		cred:        cred,
		http:        httpClient,
		session:     session,
		dispatcher:  NewDispatcher(session, httpClient),
		pages:       NewPaginator(pageDelay),
		limits:      limits,
		cancelDelay: cancelDelay,
		sleep:       sleepContext,
	}
}

// Credential 客户端使用的凭证
func (c *Client) Credential() types.Credential {
	return c.cred
}

// GetHost 服务器地址
func (c *Client) GetHost() string {
	return c.http.BaseURL()
}

// Session 令牌会话
func (c *Client) Session() *Session {
	return c.session
}

// account CANO / ACNT_PRDT_CD
func (c *Client) account() (string, string) {
	return c.cred.AccountPrefix, c.cred.AccountSuffix
}
