package tokenstore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

const badgerKeyPrefix = "kis:token:"

// BadgerStore token 存在 Badger 中，可选静态加密（由 Badger 的 key registry 提供）
type BadgerStore struct {
	db *badger.DB
}

// BadgerOptions 打开参数
type BadgerOptions struct {
	Path          string // 为空时使用内存模式
	EncryptionKey []byte // 32 bytes; nil 表示不加密
	ReadOnly      bool
}

// OpenBadger 打开 Badger 存储
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithReadOnly(opts.ReadOnly)
	if strings.TrimSpace(opts.Path) == "" {
		bopts = bopts.WithInMemory(true)
	}
	if len(opts.EncryptionKey) > 0 {
		// 加密模式下 Badger 要求 index cache
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(16 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load 读取 token
func (s *BadgerStore) Load(accountKey string) (types.Token, bool) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + accountKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Debugf("[tokenstore] badger 读取失败: %v", err)
		}
		return types.Token{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		logger.Debugf("[tokenstore] badger 数据损坏: %v", err)
		return types.Token{}, false
	}
	return e.toToken(accountKey)
}

// Save 写入 token
func (s *BadgerStore) Save(token, expiry, accountKey string) {
	v, err := json.Marshal(entry{Token: token, Expired: expiry})
	if err == nil {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(badgerKeyPrefix+accountKey), v)
		})
	}
	if err != nil {
		logger.WithField("account", accountKey).Warnf("[tokenstore] badger 保存失败: %v", err)
	}
}

// Close 关闭数据库
func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ParseKey expects 32 bytes (base64 or hex). Returns nil if input is empty.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
