package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/ratelimit"
	"github.com/betbot/systock/pkg/tokenstore"
)

var testNow = time.Date(2024, 1, 2, 9, 0, 0, 0, types.KST)

const testExpiry = "2024-01-03 09:00:00"

type recorded struct {
	Method string
	Header http.Header
	Query  url.Values
	Body   []byte
}

// routeFunc n 为该路径上的第几次调用（从 1 开始）
type routeFunc func(w http.ResponseWriter, r *http.Request, body []byte, n int)

// kisStub 按路径分发的假 KIS 服务端
type kisStub struct {
	mu       sync.Mutex
	calls    map[string]int
	requests map[string][]recorded
	routes   map[string]routeFunc
	server   *httptest.Server
}

func newKISStub(t *testing.T) *kisStub {
	t.Helper()
	s := &kisStub{
		calls:    make(map[string]int),
		requests: make(map[string][]recorded),
		routes:   make(map[string]routeFunc),
	}
	s.routes[EndpointToken] = func(w http.ResponseWriter, _ *http.Request, _ []byte, n int) {
		reply(w, http.StatusOK, "", map[string]any{
			"access_token":               fmt.Sprintf("tok-%d", n),
			"access_token_token_expired": testExpiry,
			"token_type":                 "Bearer",
			"expires_in":                 86400,
		})
	}
	s.routes[EndpointHashKey] = func(w http.ResponseWriter, _ *http.Request, body []byte, _ int) {
		reply(w, http.StatusOK, "", map[string]any{"HASH": fmt.Sprintf("hash-%d", len(body))})
	}
	s.server = httptest.NewServer(s)
	t.Cleanup(s.server.Close)
	return s
}

func (s *kisStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.calls[r.URL.Path]++
	n := s.calls[r.URL.Path]
	s.requests[r.URL.Path] = append(s.requests[r.URL.Path], recorded{
		Method: r.Method,
		Header: r.Header.Clone(),
		Query:  r.URL.Query(),
		Body:   body,
	})
	route := s.routes[r.URL.Path]
	s.mu.Unlock()

	if route == nil {
		http.NotFound(w, r)
		return
	}
	route(w, r, body, n)
}

func (s *kisStub) handle(path string, fn routeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = fn
}

func (s *kisStub) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *kisStub) requestsFor(path string) []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recorded(nil), s.requests[path]...)
}

func reply(w http.ResponseWriter, status int, trCont string, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if trCont != "" {
		w.Header().Set("tr_cont", trCont)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func okBody(extra map[string]any) map[string]any {
	m := map[string]any{"rt_cd": "0", "msg_cd": "MCA00000", "msg1": "정상처리 되었습니다."}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// recordingStore 记录 Load/Save 次数的 Store
type recordingStore struct {
	mu     sync.Mutex
	tokens map[string]types.Token
	loads  int
	saves  int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{tokens: make(map[string]types.Token)}
}

func (s *recordingStore) seed(account, value string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[account] = types.Token{Value: value, ExpiresAt: expiresAt}
}

func (s *recordingStore) Load(accountKey string) (types.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	tok, ok := s.tokens[accountKey]
	return tok, ok
}

func (s *recordingStore) Save(token, expiry, accountKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	expiresAt, _ := types.ParseTokenExpiry(expiry)
	s.tokens[accountKey] = types.Token{Value: token, ExpiresAt: expiresAt}
}

func (s *recordingStore) stats() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves
}

func testCredential(t *testing.T) types.Credential {
	t.Helper()
	cred, err := types.NewCredential("app-key", "app-secret", "12345678-01", types.EnvVirtual)
	require.NoError(t, err)
	return cred
}

func generousLimits() *ratelimit.Manager {
	limits := ratelimit.NewManager()
	limits.Configure(ratelimit.KeyTokenIssue, 100, time.Minute)
	limits.Configure(ratelimit.KeyApprovalIssue, 100, time.Minute)
	return limits
}

func newTestClient(t *testing.T, stub *kisStub, store tokenstore.Store) *Client {
	t.Helper()
	if store == nil {
		store = newRecordingStore()
	}
	return NewClient(testCredential(t), Options{
		BaseURL:     stub.server.URL,
		Timeout:     5 * time.Second,
		Store:       store,
		Limits:      generousLimits(),
		PageDelay:   -1,
		CancelDelay: -1,
		Now:         func() time.Time { return testNow },
	})
}
