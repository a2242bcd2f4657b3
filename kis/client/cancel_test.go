package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/systock/kis/types"
)

func openOrdersRoute(rows ...map[string]string) routeFunc {
	return func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "D", okBody(map[string]any{"output": rows}))
	}
}

func openRow(id, symbol string) map[string]string {
	return map[string]string{"ord_gno_brno": "06010", "odno": id, "pdno": symbol, "sll_buy_dvsn_cd": "02", "ord_qty": "1", "ord_unpr": "1000", "psbl_qty": "1"}
}

func TestCancelAll_SkipsIndividualFailures(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOpenOrders, openOrdersRoute(
		openRow("id1", "005930"),
		openRow("other", "000660"),
		openRow("id2", "005930"),
		openRow("id3", "005930"),
	))
	stub.handle(EndpointOrderRvseCncl, func(w http.ResponseWriter, _ *http.Request, body []byte, _ int) {
		var req types.CancelRequest
		_ = json.Unmarshal(body, &req)
		if req.OrgnOdno == "id2" {
			reply(w, http.StatusOK, "", map[string]any{"rt_cd": "1", "msg_cd": "APBK0344", "msg1": "이미 체결된 주문입니다"})
			return
		}
		reply(w, http.StatusOK, "", okBody(nil))
	})
	c := newTestClient(t, stub, nil)

	var slept []time.Duration
	c.cancelDelay = DefaultCancelDelay
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	ids, err := c.CancelAll(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, []string{"id1", "id3"}, ids)
	assert.Equal(t, 3, stub.count(EndpointOrderRvseCncl), "other symbols are not touched")
	assert.Equal(t, []time.Duration{DefaultCancelDelay, DefaultCancelDelay}, slept)
}

func TestCancelAll_ListingFailurePropagates(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOpenOrders, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusServiceUnavailable, "", map[string]any{})
	})
	c := newTestClient(t, stub, nil)

	ids, err := c.CancelAll(context.Background(), "005930")
	require.Error(t, err)
	assert.Nil(t, ids)
	assert.True(t, types.IsRetryable(err))
	assert.Equal(t, 0, stub.count(EndpointOrderRvseCncl))
}

func TestCancelAll_NothingToCancel(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOpenOrders, openOrdersRoute(openRow("x", "000660")))
	c := newTestClient(t, stub, nil)

	ids, err := c.CancelAll(context.Background(), "005930")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestCancelAll_EmptySymbolCancelsEverything(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOpenOrders, openOrdersRoute(openRow("a", "005930"), openRow("b", "000660")))
	stub.handle(EndpointOrderRvseCncl, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "", okBody(nil))
	})
	c := newTestClient(t, stub, nil)

	ids, err := c.CancelAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}
