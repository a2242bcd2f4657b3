package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// invalidPayload 2xx 且 rt_cd 成功，但字段无法解析
func invalidPayload(method, path string, err error) error {
	return &types.NetworkError{Method: method, Path: path, StatusCode: http.StatusOK, Err: err}
}

// Quote 国内股票现价
func (c *Client) Quote(ctx context.Context, symbol string) (*types.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("quote: symbol is required")
	}

	var out types.QuoteResponse
	_, err := c.dispatcher.Execute(ctx, &Request{
		Method: http.MethodGet,
		Path:   EndpointInquirePrice,
		TrID:   TrIDInquirePrice,
		Params: map[string]string{
			"FID_COND_MRKT_DIV_CODE": "J",
			"FID_INPUT_ISCD":         symbol,
		},
	}, &out)
	if err != nil {
		return nil, err
	}

	var p numParser
	q := &types.Quote{
		Symbol: symbol,
		Price:  p.int("stck_prpr", out.Output.Price),
		Volume: p.int("acml_vol", out.Output.Volume),
		Change: p.float("prdy_ctrt", out.Output.ChangeRate),
	}
	if p.err != nil {
		return nil, invalidPayload(http.MethodGet, EndpointInquirePrice, p.err)
	}
	return q, nil
}

// PlaceOrder 国内现金下单
func (c *Client) PlaceOrder(ctx context.Context, intent types.OrderIntent) (*types.OrderHandle, error) {
	intent, err := intent.Normalize()
	if err != nil {
		return nil, err
	}
	division, _ := intent.OrderType.DivisionCode()
	cano, prdt := c.account()

	var out types.OrderResponse
	_, err = c.dispatcher.Execute(ctx, &Request{
		Method: http.MethodPost,
		Path:   EndpointOrderCash,
		TrID:   orderTrID(intent.Side, c.cred.Environment),
		Body: types.OrderCashRequest{
			CANO:       cano,
			AcntPrdtCd: prdt,
			Pdno:       intent.Symbol,
			OrdDvsn:    division,
			OrdQty:     strconv.FormatInt(intent.Quantity, 10),
			OrdUnpr:    strconv.FormatInt(intent.Price, 10),
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Output.OrderNo == "" {
		return nil, invalidPayload(http.MethodPost, EndpointOrderCash, errors.New("missing ODNO"))
	}

	handle := &types.OrderHandle{
		OrderID:   out.Output.OrderNo,
		BranchNo:  out.Output.BranchNo,
		OrderedAt: out.Output.OrderTmd,
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		Price:     intent.Price,
		OrderType: intent.OrderType,
	}
	logger.WithFields(logrus.Fields{
		"order_id": handle.OrderID,
		"symbol":   handle.Symbol,
		"side":     handle.Side,
		"qty":      handle.Quantity,
		"price":    handle.Price,
		"type":     handle.OrderType,
	}).Info("下单成功")
	return handle, nil
}

// Balance 国内账户余额，自动翻页。组合损益由持仓汇总。
func (c *Client) Balance(ctx context.Context) (*types.Balance, error) {
	cano, prdt := c.account()
	trID := trInquireBalance.pick(c.cred.Environment)

	var summary *types.BalanceSummary
	holdings, err := Collect(ctx, c.pages, func(ctx context.Context, cursor types.Cursor) (Page[types.Holding], error) {
		params, trCont := pageParams(map[string]string{
			"CANO":                  cano,
			"ACNT_PRDT_CD":          prdt,
			"AFHR_FLPR_YN":          "N",
			"OFL_YN":                "",
			"INQR_DVSN":             "02",
			"UNPR_DVSN":             "01",
			"FUND_STTL_ICLD_YN":     "N",
			"FNCG_AMT_AUTO_RDPT_YN": "N",
			"PRCS_DVSN":             "00",
		}, "CTX_AREA_FK100", "CTX_AREA_NK100", cursor)

		var out types.BalanceResponse
		resp, err := c.dispatcher.Execute(ctx, &Request{
			Method: http.MethodGet,
			Path:   EndpointInquireBalance,
			TrID:   trID,
			Params: params,
			TrCont: trCont,
		}, &out)
		if err != nil {
			return Page[types.Holding]{}, err
		}

		items, err := holdingsFrom(out.Output1)
		if err != nil {
			return Page[types.Holding]{}, invalidPayload(http.MethodGet, EndpointInquireBalance, err)
		}
		if len(out.Output2) > 0 {
			s := out.Output2[0]
			summary = &s
		}
		return Page[types.Holding]{
			Items: items,
			Next:  types.Cursor{FK: out.CtxAreaFK100, NK: out.CtxAreaNK100},
			More:  resp.HasMore(),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	var deposit, total int64
	if summary != nil {
		var p numParser
		deposit = p.int("dnca_tot_amt", summary.DncaTotAmt)
		total = p.int("tot_evlu_amt", summary.TotEvluAmt)
		if p.err != nil {
			return nil, invalidPayload(http.MethodGet, EndpointInquireBalance, p.err)
		}
	}
	if holdings == nil {
		holdings = []types.Holding{}
	}
	return types.NewBalance(deposit, total, holdings), nil
}

// holdingsFrom 跳过持仓数量为 0 的行（当日已清仓的股票仍会出现在列表里）
func holdingsFrom(rows []types.BalanceItem) ([]types.Holding, error) {
	holdings := make([]types.Holding, 0, len(rows))
	for _, row := range rows {
		var p numParser
		h := types.Holding{
			Symbol:         row.Pdno,
			Name:           row.PrdtName,
			Quantity:       p.int("hldg_qty", row.HldgQty),
			AvgPrice:       p.float("pchs_avg_pric", row.PchsAvgPric),
			PurchaseAmount: p.int("pchs_amt", row.PchsAmt),
			EvalAmount:     p.int("evlu_amt", row.EvluAmt),
			Profit:         p.int("evlu_pfls_amt", row.EvluPflsAmt),
			ProfitRate:     p.float("evlu_pfls_rt", row.EvluPflsRt),
		}
		if p.err != nil {
			return nil, p.err
		}
		if h.Quantity == 0 {
			continue
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// OpenOrders 可撤销的未成交订单，自动翻页
func (c *Client) OpenOrders(ctx context.Context) ([]types.OpenOrderRecord, error) {
	cano, prdt := c.account()
	trID := trOpenOrders.pick(c.cred.Environment)

	orders, err := Collect(ctx, c.pages, func(ctx context.Context, cursor types.Cursor) (Page[types.OpenOrderRecord], error) {
		params, trCont := pageParams(map[string]string{
			"CANO":         cano,
			"ACNT_PRDT_CD": prdt,
			"INQR_DVSN_1":  "0",
			"INQR_DVSN_2":  "0",
		}, "CTX_AREA_FK100", "CTX_AREA_NK100", cursor)

		var out types.OpenOrdersResponse
		resp, err := c.dispatcher.Execute(ctx, &Request{
			Method: http.MethodGet,
			Path:   EndpointOpenOrders,
			TrID:   trID,
			Params: params,
			TrCont: trCont,
		}, &out)
		if err != nil {
			return Page[types.OpenOrderRecord]{}, err
		}

		items := make([]types.OpenOrderRecord, 0, len(out.Output))
		for _, row := range out.Output {
			var p numParser
			rec := types.OpenOrderRecord{
				OrderID:           row.Odno,
				BranchNo:          row.OrdGnoBrno,
				Symbol:            row.Pdno,
				Name:              row.PrdtName,
				Side:              types.SideFromCode(row.SllBuyDvsnCd),
				OrderedQuantity:   p.int("ord_qty", row.OrdQty),
				RemainingQuantity: p.int("psbl_qty", row.PsblQty),
				Price:             p.int("ord_unpr", row.OrdUnpr),
			}
			if p.err != nil {
				return Page[types.OpenOrderRecord]{}, invalidPayload(http.MethodGet, EndpointOpenOrders, p.err)
			}
			items = append(items, rec)
		}
		return Page[types.OpenOrderRecord]{
			Items: items,
			Next:  types.Cursor{FK: out.CtxAreaFK100, NK: out.CtxAreaNK100},
			More:  resp.HasMore(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []types.OpenOrderRecord{}
	}
	return orders, nil
}

// CancelOrder 撤销一笔订单的全部剩余数量
func (c *Client) CancelOrder(ctx context.Context, ref types.OrderRef) error {
	if strings.TrimSpace(ref.OrderID) == "" {
		return errors.New("cancel: order id is required")
	}
	cano, prdt := c.account()

	_, err := c.dispatcher.Execute(ctx, &Request{
		Method: http.MethodPost,
		Path:   EndpointOrderRvseCncl,
		TrID:   trOrderCancel.pick(c.cred.Environment),
		Body: types.CancelRequest{
			CANO:            cano,
			AcntPrdtCd:      prdt,
			KrxFwdgOrdOrgno: ref.BranchNo,
			OrgnOdno:        ref.OrderID,
			OrdDvsn:         "00",
			RvseCnclDvsnCd:  "02",
			OrdQty:          "0",
			OrdUnpr:         "0",
			QtyAllOrdYn:     "Y",
		},
	}, nil)
	if err != nil {
		return err
	}
	logger.WithField("order_id", ref.OrderID).Info("撤单成功")
	return nil
}
