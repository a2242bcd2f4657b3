package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// SQLiteStore 多个进程共享同一个数据库文件时使用，最后写入者获胜
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）数据库；path 为 ":memory:" 时使用内存库
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("tokenstore: sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kis_tokens (
	account_key TEXT PRIMARY KEY,
	token       TEXT NOT NULL,
	expired     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("migrate kis_tokens: %w", err)
	}
	return nil
}

// Load 读取 token
func (s *SQLiteStore) Load(accountKey string) (types.Token, bool) {
	var e entry
	err := s.db.QueryRow(`SELECT token, expired FROM kis_tokens WHERE account_key = ?`, accountKey).
		Scan(&e.Token, &e.Expired)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Debugf("[tokenstore] sqlite 读取失败: %v", err)
		}
		return types.Token{}, false
	}
	return e.toToken(accountKey)
}

// Save 写入 token
func (s *SQLiteStore) Save(token, expiry, accountKey string) {
	_, err := s.db.Exec(`INSERT INTO kis_tokens (account_key, token, expired, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(account_key) DO UPDATE SET token = excluded.token, expired = excluded.expired, updated_at = excluded.updated_at`,
		accountKey, token, expiry, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		logger.WithField("account", accountKey).Warnf("[tokenstore] sqlite 保存失败: %v", err)
	}
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
