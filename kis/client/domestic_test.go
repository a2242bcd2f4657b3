package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/systock/kis/types"
)

func TestQuote_ParsesNumericStrings(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointInquirePrice, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "", okBody(map[string]any{
			"output": map[string]string{"stck_prpr": "71000", "acml_vol": "1200000", "prdy_ctrt": "1.5"},
		}))
	})
	c := newTestClient(t, stub, nil)

	q, err := c.Quote(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, &types.Quote{Symbol: "005930", Price: 71000, Volume: 1200000, Change: 1.5}, q)

	req := stub.requestsFor(EndpointInquirePrice)[0]
	assert.Equal(t, "J", req.Query.Get("FID_COND_MRKT_DIV_CODE"))
	assert.Equal(t, "005930", req.Query.Get("FID_INPUT_ISCD"))
}

func TestQuote_BadNumberIsNetworkError(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointInquirePrice, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "", okBody(map[string]any{"output": map[string]string{"stck_prpr": "n/a"}}))
	})
	c := newTestClient(t, stub, nil)

	_, err := c.Quote(context.Background(), "005930")
	var netErr *types.NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestPlaceOrder_BuildsCashOrder(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOrderCash, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "", okBody(map[string]any{
			"output": map[string]string{"KRX_FWDG_ORD_ORGNO": "91252", "ODNO": "0000117057", "ORD_TMD": "121052"},
		}))
	})
	c := newTestClient(t, stub, nil)

	h, err := c.PlaceOrder(context.Background(), types.OrderIntent{Symbol: "005930", Side: types.SideSell, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "0000117057", h.OrderID)
	assert.Equal(t, "91252", h.BranchNo)
	assert.Equal(t, types.OrderTypeMarket, h.OrderType, "price 0 forces market")

	req := stub.requestsFor(EndpointOrderCash)[0]
	assert.Equal(t, "VTTC0801U", req.Header.Get("tr_id"))

	var body types.OrderCashRequest
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, types.OrderCashRequest{
		CANO:       "12345678",
		AcntPrdtCd: "01",
		Pdno:       "005930",
		OrdDvsn:    "01",
		OrdQty:     "3",
		OrdUnpr:    "0",
	}, body)
}

func TestPlaceOrder_InvalidIntentSendsNothing(t *testing.T) {
	stub := newKISStub(t)
	c := newTestClient(t, stub, nil)

	_, err := c.PlaceOrder(context.Background(), types.OrderIntent{Symbol: "005930", Side: types.SideBuy, Quantity: 0})
	require.Error(t, err)
	assert.Equal(t, 0, stub.count(EndpointToken))
	assert.Equal(t, 0, stub.count(EndpointOrderCash))
}

func TestPlaceOrder_DivisionAndPricePerOrderType(t *testing.T) {
	cases := []struct {
		typ      types.OrderType
		price    int64
		division string
		unitCost string
	}{
		{types.OrderTypeLimit, 70000, "00", "70000"},
		{types.OrderTypeMarket, 0, "01", "0"},
		{types.OrderTypeConditionalLimit, 70000, "02", "70000"},
		{types.OrderTypeBestLimit, 0, "03", "0"},
		{types.OrderTypePriorityLimit, 0, "04", "0"},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			stub := newKISStub(t)
			stub.handle(EndpointOrderCash, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
				reply(w, http.StatusOK, "", okBody(map[string]any{
					"output": map[string]string{"KRX_FWDG_ORD_ORGNO": "91252", "ODNO": "0000117057", "ORD_TMD": "121052"},
				}))
			})
			c := newTestClient(t, stub, nil)

			h, err := c.PlaceOrder(context.Background(), types.OrderIntent{
				Symbol:    "005930",
				Side:      types.SideBuy,
				Quantity:  1,
				Price:     tc.price,
				OrderType: tc.typ,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.typ, h.OrderType)

			var body types.OrderCashRequest
			require.NoError(t, json.Unmarshal(stub.requestsFor(EndpointOrderCash)[0].Body, &body))
			assert.Equal(t, tc.division, body.OrdDvsn)
			assert.Equal(t, tc.unitCost, body.OrdUnpr)
		})
	}
}

func TestPlaceOrder_PriceTypeMismatchSendsNothing(t *testing.T) {
	stub := newKISStub(t)
	c := newTestClient(t, stub, nil)

	intents := []types.OrderIntent{
		{Symbol: "005930", Side: types.SideBuy, Quantity: 1, Price: 70000, OrderType: types.OrderTypeMarket},
		{Symbol: "005930", Side: types.SideBuy, Quantity: 1, Price: 70000, OrderType: types.OrderTypeBestLimit},
		{Symbol: "005930", Side: types.SideBuy, Quantity: 1, OrderType: types.OrderTypeLimit},
	}
	for _, intent := range intents {
		_, err := c.PlaceOrder(context.Background(), intent)
		assert.Error(t, err, "%s price=%d", intent.OrderType, intent.Price)
	}
	assert.Equal(t, 0, stub.count(EndpointOrderCash))
}

func balancePage(rows []map[string]string, fk, nk string, summary map[string]string) map[string]any {
	return okBody(map[string]any{
		"ctx_area_fk100": fk,
		"ctx_area_nk100": nk,
		"output1":        rows,
		"output2":        []map[string]string{summary},
	})
}

func TestBalance_FollowsContinuation(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointInquireBalance, func(w http.ResponseWriter, _ *http.Request, _ []byte, n int) {
		switch n {
		case 1:
			reply(w, http.StatusOK, "F", balancePage([]map[string]string{
				{"pdno": "005930", "prdt_name": "삼성전자", "hldg_qty": "10", "pchs_avg_pric": "70000.0000", "pchs_amt": "700000", "evlu_amt": "710000", "evlu_pfls_amt": "10000", "evlu_pfls_rt": "1.43"},
			}, "FK1", "NK1", map[string]string{"dnca_tot_amt": "1", "tot_evlu_amt": "1"}))
		case 2:
			reply(w, http.StatusOK, "M", balancePage([]map[string]string{
				{"pdno": "000660", "prdt_name": "SK하이닉스", "hldg_qty": "0", "pchs_amt": "0"},
			}, "FK2", "NK2", map[string]string{"dnca_tot_amt": "2", "tot_evlu_amt": "2"}))
		default:
			reply(w, http.StatusOK, "D", balancePage([]map[string]string{
				{"pdno": "035420", "prdt_name": "NAVER", "hldg_qty": "2", "pchs_avg_pric": "150000", "pchs_amt": "300000", "evlu_amt": "270000", "evlu_pfls_amt": "-30000", "evlu_pfls_rt": "-10.00"},
			}, "", "", map[string]string{"dnca_tot_amt": "5000000", "tot_evlu_amt": "5980000"}))
		}
	})
	c := newTestClient(t, stub, nil)

	bal, err := c.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stub.count(EndpointInquireBalance))

	require.Len(t, bal.Holdings, 2, "zero-quantity rows are skipped")
	assert.Equal(t, "005930", bal.Holdings[0].Symbol)
	assert.Equal(t, "035420", bal.Holdings[1].Symbol)
	assert.Equal(t, 70000.0, bal.Holdings[0].AvgPrice)
	assert.Equal(t, int64(5000000), bal.Deposit, "summary comes from the last page")
	assert.Equal(t, int64(5980000), bal.TotalAsset)
	assert.Equal(t, int64(-20000), bal.Profit)
	assert.Equal(t, -2.0, bal.ProfitRate)

	reqs := stub.requestsFor(EndpointInquireBalance)
	assert.Empty(t, reqs[0].Header.Get("tr_cont"))
	assert.Equal(t, "", reqs[0].Query.Get("CTX_AREA_FK100"))
	assert.Equal(t, "N", reqs[1].Header.Get("tr_cont"))
	assert.Equal(t, "FK1", reqs[1].Query.Get("CTX_AREA_FK100"))
	assert.Equal(t, "NK1", reqs[1].Query.Get("CTX_AREA_NK100"))
	assert.Equal(t, "FK2", reqs[2].Query.Get("CTX_AREA_FK100"))
	assert.Equal(t, "VTTC8434R", reqs[0].Header.Get("tr_id"))
}

func TestBalance_FailureOnSecondPageDiscardsEverything(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointInquireBalance, func(w http.ResponseWriter, _ *http.Request, _ []byte, n int) {
		if n == 1 {
			reply(w, http.StatusOK, "M", balancePage([]map[string]string{
				{"pdno": "005930", "hldg_qty": "1"},
			}, "FK1", "NK1", map[string]string{}))
			return
		}
		reply(w, http.StatusOK, "", map[string]any{"rt_cd": "1", "msg_cd": "OPSQ0002", "msg1": "없는 서비스 코드 입니다"})
	})
	c := newTestClient(t, stub, nil)

	bal, err := c.Balance(context.Background())
	assert.Nil(t, bal)
	apiErr, ok := types.AsApiError(err)
	require.True(t, ok)
	assert.Equal(t, "OPSQ0002", apiErr.Code)
	assert.Equal(t, 2, stub.count(EndpointInquireBalance))
}

func TestBalance_EmptyAccount(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointInquireBalance, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "D", okBody(map[string]any{"output1": []any{}, "output2": []any{}}))
	})
	c := newTestClient(t, stub, nil)

	bal, err := c.Balance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bal.Holdings)
	assert.NotNil(t, bal.Holdings)
	assert.Equal(t, 0.0, bal.ProfitRate)
}

func TestOpenOrders_MapsRows(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOpenOrders, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "D", okBody(map[string]any{
			"output": []map[string]string{
				{"ord_gno_brno": "06010", "odno": "0000002101", "pdno": "005930", "prdt_name": "삼성전자", "sll_buy_dvsn_cd": "02", "ord_qty": "5", "ord_unpr": "69000", "psbl_qty": "3"},
			},
		}))
	})
	c := newTestClient(t, stub, nil)

	orders, err := c.OpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, types.OpenOrderRecord{
		OrderID:           "0000002101",
		BranchNo:          "06010",
		Symbol:            "005930",
		Name:              "삼성전자",
		Side:              types.SideBuy,
		OrderedQuantity:   5,
		RemainingQuantity: 3,
		Price:             69000,
	}, orders[0])
	assert.Equal(t, "VTTC8036R", stub.requestsFor(EndpointOpenOrders)[0].Header.Get("tr_id"))
}

func TestCancelOrder_BuildsFullCancel(t *testing.T) {
	stub := newKISStub(t)
	stub.handle(EndpointOrderRvseCncl, func(w http.ResponseWriter, _ *http.Request, _ []byte, _ int) {
		reply(w, http.StatusOK, "", okBody(nil))
	})
	c := newTestClient(t, stub, nil)

	require.NoError(t, c.CancelOrder(context.Background(), types.OrderRef{OrderID: "0000002101", BranchNo: "06010"}))

	req := stub.requestsFor(EndpointOrderRvseCncl)[0]
	assert.Equal(t, "VTTC0803U", req.Header.Get("tr_id"))
	assert.NotEmpty(t, req.Header.Get("hashkey"))
	var body types.CancelRequest
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, types.CancelRequest{
		CANO:            "12345678",
		AcntPrdtCd:      "01",
		KrxFwdgOrdOrgno: "06010",
		OrgnOdno:        "0000002101",
		OrdDvsn:         "00",
		RvseCnclDvsnCd:  "02",
		OrdQty:          "0",
		OrdUnpr:         "0",
		QtyAllOrdYn:     "Y",
	}, body)
}
