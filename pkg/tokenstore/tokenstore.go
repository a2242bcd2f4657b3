// Package tokenstore 持久化 KIS 访问令牌，键为账户前缀（CANO）。
//
// 读取永远不会因为缓存缺失或数据损坏而报错；写入失败只记日志，
// 丢失缓存的代价只是多发一次 token。
package tokenstore

import (
	"fmt"
	"strings"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// Store Token Store 契约
type Store interface {
	// Load 返回缓存的 token；未保存过或数据损坏时返回 false
	Load(accountKey string) (types.Token, bool)
	// Save 写入 token 与服务端给出的到期时间字符串，错误只记录日志
	Save(token, expiry, accountKey string)
}

// CloseableStore 需要释放底层资源的 Store
type CloseableStore interface {
	Store
	Close() error
}

// Backend 存储后端
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Options 打开存储的参数
type Options struct {
	Backend       Backend
	Path          string
	EncryptionKey string // badger 使用，base64 或 hex 编码的 32 字节
}

// Open 按后端类型打开 Store
func Open(opts Options) (CloseableStore, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendFile:
		path := opts.Path
		if path == "" {
			path = "data/kis_token.json"
		}
		return NewFileStore(path), nil
	case BackendBadger:
		key, err := ParseKey(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("tokenstore: encryption key: %w", err)
		}
		return OpenBadger(BadgerOptions{Path: opts.Path, EncryptionKey: key})
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("tokenstore: unknown backend %q", opts.Backend)
}

// ParseBackend 空串表示文件后端
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendBadger, BackendSQLite, BackendMemory:
		return b, nil
	}
	return "", fmt.Errorf("tokenstore: unknown backend %q", s)
}

// entry 所有后端共用的序列化格式
type entry struct {
	Token   string `json:"token"`
	Expired string `json:"expired"`
}

// toToken 解析到期时间；解析失败视为已经过期（ExpiresAt 为零值），迫使会话重新发放
func (e entry) toToken(accountKey string) (types.Token, bool) {
	if e.Token == "" {
		return types.Token{}, false
	}
	expiresAt, err := types.ParseTokenExpiry(e.Expired)
	if err != nil {
		logger.WithField("account", accountKey).Debugf("[tokenstore] 到期时间无法解析，按已过期处理: %q", e.Expired)
		return types.Token{Value: e.Token}, true
	}
	return types.Token{Value: e.Token, ExpiresAt: expiresAt}, true
}
