package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// FileStore 单个 JSON 文件：{account_prefix: {token, expired}}
// 写入为 tmp + rename 原子替换；跨进程用 flock 串行化读改写
type FileStore struct {
	path string
}

// NewFileStore 创建文件存储，目录在第一次写入时创建
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path 文件路径
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) readAll() (map[string]entry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]entry)
	if len(b) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Load 读取 token
func (s *FileStore) Load(accountKey string) (types.Token, bool) {
	entries, err := s.readAll()
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debugf("[tokenstore] 读取 %s 失败: %v", s.path, err)
		}
		return types.Token{}, false
	}
	e, ok := entries[accountKey]
	if !ok {
		return types.Token{}, false
	}
	return e.toToken(accountKey)
}

// Save 写入 token
func (s *FileStore) Save(token, expiry, accountKey string) {
	if err := s.save(token, expiry, accountKey); err != nil {
		logger.WithField("account", accountKey).Warnf("[tokenstore] 保存 token 失败: %v", err)
	}
}

func (s *FileStore) save(token, expiry, accountKey string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := s.readAll()
	if err != nil {
		// 文件不存在或已损坏，直接覆盖
		entries = make(map[string]entry)
	}
	entries[accountKey] = entry{Token: token, Expired: expiry}

	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close 无需释放资源
func (s *FileStore) Close() error { return nil }
