// Package shutdown 收集进程退出时要执行的关闭动作。
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/betbot/systock/pkg/logger"
)

// Handler 关闭回调；应在 ctx 到期前返回
type Handler func(ctx context.Context) error

type entry struct {
	name    string
	handler Handler
}

// Manager 优雅关闭管理器。回调按注册的逆序执行：先停入口，再释放底层资源。
type Manager struct {
	mu      sync.Mutex
	entries []entry
	done    bool
}

func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{name: name, handler: handler})
}

// Shutdown 执行所有回调，只生效一次。返回所有失败回调的合并错误。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	entries := m.entries
	m.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}
	logger.Infof("开始优雅关闭，共 %d 个回调", len(entries))

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
			continue
		}
		if err := e.handler(ctx); err != nil {
			logger.Warnf("关闭 %s 失败: %v", e.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	if len(errs) == 0 {
		logger.Info("所有关闭回调已完成")
	}
	return errors.Join(errs...)
}

// NotifyContext 收到 SIGINT / SIGTERM / SIGQUIT 时取消返回的 ctx
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
}
