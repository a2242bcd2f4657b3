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

// OverseasQuote 海外股票现价（延迟行情）
func (c *Client) OverseasQuote(ctx context.Context, exchange types.Exchange, symbol string) (*types.OverseasQuote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("overseas quote: symbol is required")
	}

	var out types.OverseasQuoteResponse
	_, err := c.dispatcher.Execute(ctx, &Request{
		Method: http.MethodGet,
		Path:   EndpointOverseasPrice,
		TrID:   TrIDOverseasPrice,
		Params: map[string]string{
			"AUTH": "",
			"EXCD": exchange.QuoteCode(),
			"SYMB": symbol,
		},
	}, &out)
	if err != nil {
		return nil, err
	}

	var p numParser
	q := &types.OverseasQuote{
		Exchange: exchange,
		Symbol:   symbol,
		Price:    p.decimal("last", out.Output.Last),
		Volume:   p.int("tvol", out.Output.Tvol),
		Change:   p.float("rate", out.Output.Rate),
	}
	if p.err != nil {
		return nil, invalidPayload(http.MethodGet, EndpointOverseasPrice, p.err)
	}
	return q, nil
}

// PlaceOverseasOrder 海外限价单
func (c *Client) PlaceOverseasOrder(ctx context.Context, intent types.OverseasOrderIntent) (*types.OverseasOrderHandle, error) {
	intent.Symbol = strings.ToUpper(strings.TrimSpace(intent.Symbol))
	switch {
	case intent.Symbol == "":
		return nil, errors.New("overseas order: symbol is required")
	case intent.Side != types.SideBuy && intent.Side != types.SideSell:
		return nil, errors.Errorf("overseas order: invalid side %q", intent.Side)
	case intent.Quantity <= 0:
		return nil, errors.Errorf("overseas order: quantity must be positive, got %d", intent.Quantity)
	case !intent.Price.IsPositive():
		return nil, errors.New("overseas order: limit price must be positive")
	}
	exchange, err := types.ParseExchange(string(intent.Exchange))
	if err != nil {
		return nil, err
	}
	intent.Exchange = exchange
	cano, prdt := c.account()

	var out types.OrderResponse
	_, err = c.dispatcher.Execute(ctx, &Request{
		Method: http.MethodPost,
		Path:   EndpointOverseasOrder,
		TrID:   overseasOrderTrID(intent.Side, c.cred.Environment),
		Body: types.OverseasOrderRequest{
			CANO:         cano,
			AcntPrdtCd:   prdt,
			OvrsExcgCd:   string(intent.Exchange),
			Pdno:         intent.Symbol,
			OrdQty:       strconv.FormatInt(intent.Quantity, 10),
			OvrsOrdUnpr:  intent.Price.StringFixed(2),
			OrdSvrDvsnCd: "0",
			OrdDvsn:      "00",
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Output.OrderNo == "" {
		return nil, invalidPayload(http.MethodPost, EndpointOverseasOrder, errors.New("missing ODNO"))
	}

	handle := &types.OverseasOrderHandle{
		OrderID:   out.Output.OrderNo,
		BranchNo:  out.Output.BranchNo,
		OrderedAt: out.Output.OrderTmd,
		Exchange:  intent.Exchange,
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		Price:     intent.Price,
	}
	logger.WithFields(logrus.Fields{
		"order_id": handle.OrderID,
		"exchange": handle.Exchange,
		"symbol":   handle.Symbol,
		"side":     handle.Side,
		"qty":      handle.Quantity,
		"price":    handle.Price.String(),
	}).Info("海外下单成功")
	return handle, nil
}

// OverseasBalance 海外持仓余额，自动翻页。exchange 为空时按 NASD 查询（模拟盘下即美国全部）。
func (c *Client) OverseasBalance(ctx context.Context, exchange types.Exchange, currency string) (*types.OverseasBalance, error) {
	if currency == "" {
		currency = "USD"
	}
	excg := string(exchange)
	if excg == "" {
		excg = string(types.ExchangeNasdaq)
	}
	cano, prdt := c.account()
	trID := trOverseasBalance.pick(c.cred.Environment)

	holdings, err := Collect(ctx, c.pages, func(ctx context.Context, cursor types.Cursor) (Page[types.OverseasHolding], error) {
		params, trCont := pageParams(map[string]string{
			"CANO":         cano,
			"ACNT_PRDT_CD": prdt,
			"OVRS_EXCG_CD": excg,
			"TR_CRCY_CD":   currency,
		}, "CTX_AREA_FK200", "CTX_AREA_NK200", cursor)

		var out types.OverseasBalanceResponse
		resp, err := c.dispatcher.Execute(ctx, &Request{
			Method: http.MethodGet,
			Path:   EndpointOverseasBalance,
			TrID:   trID,
			Params: params,
			TrCont: trCont,
		}, &out)
		if err != nil {
			return Page[types.OverseasHolding]{}, err
		}

		items := make([]types.OverseasHolding, 0, len(out.Output1))
		for _, row := range out.Output1 {
			var p numParser
			h := types.OverseasHolding{
				Exchange:       types.Exchange(row.OvrsExcgCd),
				Symbol:         row.OvrsPdno,
				Name:           row.OvrsItemName,
				Quantity:       p.int("ovrs_cblc_qty", row.OvrsCblcQty),
				AvgPrice:       p.decimal("pchs_avg_pric", row.PchsAvgPric),
				PurchaseAmount: p.decimal("frcr_pchs_amt1", row.FrcrPchsAmt1),
				EvalAmount:     p.decimal("ovrs_stck_evlu_amt", row.OvrsStckEvluAmt),
				Profit:         p.decimal("frcr_evlu_pfls_amt", row.FrcrEvluPflsAmt),
				ProfitRate:     p.float("evlu_pfls_rt", row.EvluPflsRt),
			}
			if p.err != nil {
				return Page[types.OverseasHolding]{}, invalidPayload(http.MethodGet, EndpointOverseasBalance, p.err)
			}
			if h.Quantity == 0 {
				continue
			}
			items = append(items, h)
		}
		return Page[types.OverseasHolding]{
			Items: items,
			Next:  types.Cursor{FK: out.CtxAreaFK200, NK: out.CtxAreaNK200},
			More:  resp.HasMore(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []types.OverseasHolding{}
	}
	return types.NewOverseasBalance(currency, holdings), nil
}
