package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
	"github.com/betbot/systock/pkg/ratelimit"
	sdkhttp "github.com/betbot/systock/pkg/sdk/http"
	"github.com/betbot/systock/pkg/tokenstore"
)

// Session 管理一个账户的访问令牌。
//
// 状态：未初始化 -> 已加载/已发放 -> (过期) -> 重新发放。
// 发放失败回到未初始化，下一次调用会重新读取 Store。
// 所有状态变化都在 mu 下完成，同一实例上的并发调用最多触发一次发放。
type Session struct {
	cred    types.Credential
	http    *sdkhttp.Client
	store   tokenstore.Store
	limiter ratelimit.RateLimiter
	now     func() time.Time

	mu     sync.Mutex
	token  types.Token
	loaded bool
}

// NewSession limiter 必须是 ratelimit.KeyTokenIssue 对应的共享实例
func NewSession(cred types.Credential, httpClient *sdkhttp.Client, store tokenstore.Store, limiter ratelimit.RateLimiter, now func() time.Time) *Session {
	if store == nil {
		store = tokenstore.NewMemoryStore()
	}
	if limiter == nil {
		limiter = ratelimit.NewManager().GetLimiter(ratelimit.KeyTokenIssue)
	}
	if now == nil {
		now = time.Now
	}
	return &Session{
		cred:    cred,
		http:    httpClient,
		store:   store,
		limiter: limiter,
		now:     now,
	}
}

// Credential 会话使用的凭证
func (s *Session) Credential() types.Credential {
	return s.cred
}

func (s *Session) log() *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"account": s.cred.AccountKey(),
		"env":     s.cred.Environment,
	})
}

// EnsureToken 返回一个在安全边际内仍然有效的 token，必要时重新发放
func (s *Session) EnsureToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token.UsableAt(now) {
		return s.token.Value, nil
	}

	if !s.loaded {
		s.loaded = true
		if tok, ok := s.store.Load(s.cred.AccountKey()); ok && tok.UsableAt(now) {
			s.token = tok
			s.log().WithField("expires_at", types.FormatTokenExpiry(tok.ExpiresAt)).Debug("复用已保存的 token")
			return tok.Value, nil
		}
	}

	tok, expiry, err := s.issue(ctx)
	if err != nil {
		s.token = types.Token{}
		s.loaded = false
		return "", err
	}
	s.token = tok
	s.store.Save(tok.Value, expiry, s.cred.AccountKey())
	s.log().WithField("expires_at", expiry).Info("已发放新的 token")
	return tok.Value, nil
}

// Invalidate 丢弃内存中的 token（例如服务端报告 token 失效）
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = types.Token{}
}

// issue 调用 /oauth2/tokenP。调用方持有 mu。
func (s *Session) issue(ctx context.Context) (types.Token, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return types.Token{}, "", errors.Wrap(err, "wait token issue limiter")
	}

	body, err := json.Marshal(types.TokenRequest{
		GrantType: "client_credentials",
		AppKey:    s.cred.AppKey,
		AppSecret: s.cred.AppSecret,
	})
	if err != nil {
		return types.Token{}, "", errors.Wrap(err, "marshal token request")
	}

	issuedAt := s.now()
	resp, err := s.http.DoRequest(ctx, http.MethodPost, EndpointToken, &sdkhttp.RequestOptions{Body: body})
	if err != nil {
		return types.Token{}, "", &types.NetworkError{Method: http.MethodPost, Path: EndpointToken, Err: err}
	}
	raw := strings.TrimSpace(string(resp.Body()))
	if !resp.IsSuccess() {
		s.log().WithField("status", resp.StatusCode()).Warn("token 发放被拒绝")
		return types.Token{}, "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: sdkhttp.StatusError(resp)}
	}

	var out types.TokenResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return types.Token{}, "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: errors.Wrap(err, "decode token response")}
	}
	if out.AccessToken == "" {
		return types.Token{}, "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: errors.New("empty access_token")}
	}

	expiry := strings.TrimSpace(out.AccessTokenExpired)
	var expiresAt time.Time
	if expiry != "" {
		expiresAt, err = types.ParseTokenExpiry(expiry)
		if err != nil {
			return types.Token{}, "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: errors.Wrap(err, "parse access_token_token_expired")}
		}
	} else if out.ExpiresIn > 0 {
		expiresAt = issuedAt.Add(time.Duration(out.ExpiresIn) * time.Second)
		expiry = types.FormatTokenExpiry(expiresAt)
	} else {
		return types.Token{}, "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: errors.New("missing token expiry")}
	}

	return types.Token{Value: out.AccessToken, IssuedAt: issuedAt, ExpiresAt: expiresAt}, expiry, nil
}
