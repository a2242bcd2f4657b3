package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderIntent 调用方构造的下单意图，只被消费一次
type OrderIntent struct {
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Quantity  int64     `json:"quantity"`
	Price     int64     `json:"price"` // 0 = 市价
	OrderType OrderType `json:"order_type"`
}

// Normalize 校验字段并补全订单类型。
// 未指定类型时按价格推断：0 为市价，否则限价。指定了类型则价格必须与类型匹配。
func (o OrderIntent) Normalize() (OrderIntent, error) {
	o.Symbol = strings.TrimSpace(o.Symbol)
	if o.Symbol == "" {
		return o, fmt.Errorf("order intent: symbol is required")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return o, fmt.Errorf("order intent: invalid side %q", o.Side)
	}
	if o.Quantity <= 0 {
		return o, fmt.Errorf("order intent: quantity must be positive, got %d", o.Quantity)
	}
	if o.Price < 0 {
		return o, fmt.Errorf("order intent: negative price %d", o.Price)
	}
	switch {
	case o.OrderType == "" && o.Price == 0:
		o.OrderType = OrderTypeMarket
	case o.OrderType == "":
		o.OrderType = OrderTypeLimit
	}
	if _, ok := o.OrderType.DivisionCode(); !ok {
		return o, fmt.Errorf("order intent: unknown order type %q", o.OrderType)
	}
	// ORD_UNPR 只对限价 / 条件限价有意义，其余类型必须为 0
	if o.OrderType.RequiresPrice() != (o.Price > 0) {
		if o.Price > 0 {
			return o, fmt.Errorf("order intent: %s order must not carry a price, got %d", o.OrderType, o.Price)
		}
		return o, fmt.Errorf("order intent: %s order requires a positive price", o.OrderType)
	}
	return o, nil
}

// OrderHandle 下单成功后的句柄，撤单时用它定位订单
type OrderHandle struct {
	OrderID   string    `json:"order_id"`
	BranchNo  string    `json:"branch_no"` // KRX_FWDG_ORD_ORGNO
	OrderedAt string    `json:"ordered_at"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Quantity  int64     `json:"quantity"`
	Price     int64     `json:"price"`
	OrderType OrderType `json:"order_type"`
}

// OpenOrderRecord 未成交（可撤销）订单，仅在一次列表调用中存在
type OpenOrderRecord struct {
	OrderID           string `json:"order_id"`
	BranchNo          string `json:"branch_no"`
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Side              Side   `json:"side"`
	OrderedQuantity   int64  `json:"ordered_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	Price             int64  `json:"price"`
}

// OverseasOrderIntent 海外下单意图，只支持限价
type OverseasOrderIntent struct {
	Exchange Exchange        `json:"exchange"`
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OverseasOrderHandle 海外订单句柄
type OverseasOrderHandle struct {
	OrderID   string          `json:"order_id"`
	BranchNo  string          `json:"branch_no"`
	OrderedAt string          `json:"ordered_at"`
	Exchange  Exchange        `json:"exchange"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRef 撤单所需的最小信息
type OrderRef struct {
	OrderID  string `json:"order_id"`
	BranchNo string `json:"branch_no"`
}

// Ref 由下单句柄得到撤单引用
func (h OrderHandle) Ref() OrderRef {
	return OrderRef{OrderID: h.OrderID, BranchNo: h.BranchNo}
}

// Ref 由未成交订单得到撤单引用
func (r OpenOrderRecord) Ref() OrderRef {
	return OrderRef{OrderID: r.OrderID, BranchNo: r.BranchNo}
}
