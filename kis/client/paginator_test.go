package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/systock/kis/types"
)

func fakePaginator() (*Paginator, *[]time.Duration) {
	var slept []time.Duration
	p := NewPaginator(DefaultPageDelay)
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestCollect_ConcatenatesPagesInOrder(t *testing.T) {
	p, slept := fakePaginator()
	var cursors []types.Cursor
	pages := []Page[int]{
		{Items: []int{1, 2}, Next: types.Cursor{FK: "a", NK: "b"}, More: true},
		{Items: []int{3}, Next: types.Cursor{FK: "c", NK: "d"}, More: true},
		{Items: []int{4, 5}, More: false},
	}

	got, err := Collect(context.Background(), p, func(_ context.Context, cursor types.Cursor) (Page[int], error) {
		cursors = append(cursors, cursor)
		return pages[len(cursors)-1], nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, []types.Cursor{{}, {FK: "a", NK: "b"}, {FK: "c", NK: "d"}}, cursors)
	assert.Equal(t, []time.Duration{DefaultPageDelay, DefaultPageDelay}, *slept, "delay only between pages")
}

func TestCollect_AbortsOnPageError(t *testing.T) {
	p, _ := fakePaginator()
	boom := errors.New("boom")
	calls := 0

	got, err := Collect(context.Background(), p, func(_ context.Context, _ types.Cursor) (Page[int], error) {
		calls++
		if calls == 2 {
			return Page[int]{}, boom
		}
		return Page[int]{Items: []int{calls}, Next: types.Cursor{FK: "x"}, More: true}, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got, "partial results are discarded")
	assert.Equal(t, 2, calls)
}

func TestCollect_StopsOnEmptyCursor(t *testing.T) {
	p, _ := fakePaginator()
	calls := 0
	got, err := Collect(context.Background(), p, func(_ context.Context, _ types.Cursor) (Page[string], error) {
		calls++
		return Page[string]{Items: []string{"only"}, Next: types.Cursor{FK: "   ", NK: " "}, More: true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got)
	assert.Equal(t, 1, calls)
}

func TestCollect_ContextCancelledBetweenPages(t *testing.T) {
	p := NewPaginator(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	got, err := Collect(ctx, p, func(_ context.Context, _ types.Cursor) (Page[int], error) {
		calls++
		cancel()
		return Page[int]{Items: []int{1}, Next: types.Cursor{FK: "x"}, More: true}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Equal(t, 1, calls)
}
