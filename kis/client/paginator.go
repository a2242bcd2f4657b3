package client

import (
	"context"
	"time"

	"github.com/betbot/systock/kis/types"
)

// DefaultPageDelay 两次翻页请求之间的间隔，避免触发服务端的频率限制
const DefaultPageDelay = 50 * time.Millisecond

// Page 单页结果
type Page[T any] struct {
	Items []T
	Next  types.Cursor
	More  bool
}

// FetchFunc 拉取 cursor 指向的那一页；空 cursor 表示第一页
type FetchFunc[T any] func(ctx context.Context, cursor types.Cursor) (Page[T], error)

// Paginator 顺序翻页，不并发
type Paginator struct {
	Delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPaginator delay <= 0 时不等待
func NewPaginator(delay time.Duration) *Paginator {
	return &Paginator{Delay: delay, sleep: sleepContext}
}

func (p *Paginator) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, p.Delay)
}

// Collect 拉取全部页并按顺序拼接。任何一页失败都整体失败，已取到的数据丢弃。
func Collect[T any](ctx context.Context, p *Paginator, fetch FetchFunc[T]) ([]T, error) {
	var items []T
	cursor := types.Cursor{}
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if !page.More || page.Next.IsEmpty() {
			return items, nil
		}
		cursor = page.Next
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// sleepContext 可被 ctx 打断的 sleep
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pageParams 把 cursor 填入查询参数。key 因接口而异（FK100 / FK200）。
func pageParams(params map[string]string, fkKey, nkKey string, cursor types.Cursor) (map[string]string, string) {
	params[fkKey] = cursor.FK
	params[nkKey] = cursor.NK
	if cursor.IsEmpty() {
		return params, ""
	}
	return params, types.TrContNextPage
}
