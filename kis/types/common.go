package types

import (
	"fmt"
	"strings"
)

// Environment 交易环境（实盘 / 模拟盘）
type Environment string

const (
	EnvReal    Environment = "real"
	EnvVirtual Environment = "virtual"
)

// ParseEnvironment 解析环境字符串，空字符串按模拟盘处理
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "virtual", "paper", "vts":
		return EnvVirtual, nil
	case "real", "live", "prod":
		return EnvReal, nil
	}
	return "", fmt.Errorf("unknown environment %q", s)
}

func (e Environment) IsReal() bool { return e == EnvReal }

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide 解析买卖方向
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return SideBuy, nil
	case "sell", "s":
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// SideFromCode 把 sll_buy_dvsn_cd 转成 Side（01=卖出, 02=买入）
func SideFromCode(code string) Side {
	if code == "01" {
		return SideSell
	}
	return SideBuy
}

// OrderType 国内订单类型
type OrderType string

const (
	OrderTypeLimit            OrderType = "limit"
	OrderTypeMarket           OrderType = "market"
	OrderTypeConditionalLimit OrderType = "conditional_limit"
	OrderTypeBestLimit        OrderType = "best_limit"
	OrderTypePriorityLimit    OrderType = "priority_limit"
)

// orderDivisionCodes ORD_DVSN 映射
var orderDivisionCodes = map[OrderType]string{
	OrderTypeLimit:            "00",
	OrderTypeMarket:           "01",
	OrderTypeConditionalLimit: "02",
	OrderTypeBestLimit:        "03",
	OrderTypePriorityLimit:    "04",
}

// DivisionCode 返回 ORD_DVSN；未知类型返回 false
func (t OrderType) DivisionCode() (string, bool) {
	code, ok := orderDivisionCodes[t]
	return code, ok
}

// RequiresPrice 限价与条件限价需要 ORD_UNPR；市价、最有利、最优先必须为 0
func (t OrderType) RequiresPrice() bool {
	return t == OrderTypeLimit || t == OrderTypeConditionalLimit
}

// ParseOrderType 解析订单类型，空字符串视为限价
func ParseOrderType(s string) (OrderType, error) {
	t := OrderType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return OrderTypeLimit, nil
	}
	if _, ok := orderDivisionCodes[t]; !ok {
		return "", fmt.Errorf("unknown order type %q", s)
	}
	return t, nil
}

// Exchange 海外交易所。报价接口和下单接口使用不同的代码体系。
type Exchange string

const (
	ExchangeNasdaq Exchange = "NASD"
	ExchangeNYSE   Exchange = "NYSE"
	ExchangeAmex   Exchange = "AMEX"
)

var exchangeQuoteCodes = map[Exchange]string{
	ExchangeNasdaq: "NAS",
	ExchangeNYSE:   "NYS",
	ExchangeAmex:   "AMS",
}

// ParseExchange 接受下单代码（NASD）或报价代码（NAS）
func ParseExchange(s string) (Exchange, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for ex, q := range exchangeQuoteCodes {
		if up == string(ex) || up == q {
			return ex, nil
		}
	}
	return "", fmt.Errorf("unknown exchange %q", s)
}

// QuoteCode 报价接口使用的 EXCD
func (e Exchange) QuoteCode() string {
	return exchangeQuoteCodes[e]
}
