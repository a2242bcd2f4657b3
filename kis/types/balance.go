package types

import (
	"github.com/shopspring/decimal"
)

// Holding 国内持仓
type Holding struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Quantity       int64   `json:"quantity"`
	AvgPrice       float64 `json:"avg_price"`
	PurchaseAmount int64   `json:"purchase_amount"`
	EvalAmount     int64   `json:"eval_amount"`
	Profit         int64   `json:"profit"`
	ProfitRate     float64 `json:"profit_rate"`
}

// Balance 国内账户余额。Profit/ProfitRate 由持仓汇总得出，不取服务端汇总字段。
type Balance struct {
	Deposit    int64     `json:"deposit"`
	TotalAsset int64     `json:"total_asset"`
	Profit     int64     `json:"profit"`
	ProfitRate float64   `json:"profit_rate"`
	Holdings   []Holding `json:"holdings"`
}

// NewBalance 根据持仓计算组合层面的损益
func NewBalance(deposit, totalAsset int64, holdings []Holding) *Balance {
	var profit, purchase int64
	for _, h := range holdings {
		profit += h.Profit
		purchase += h.PurchaseAmount
	}
	return &Balance{
		Deposit:    deposit,
		TotalAsset: totalAsset,
		Profit:     profit,
		ProfitRate: profitRate(decimal.NewFromInt(profit), decimal.NewFromInt(purchase)),
		Holdings:   holdings,
	}
}

// OverseasHolding 海外持仓，金额为外币
type OverseasHolding struct {
	Exchange       Exchange        `json:"exchange"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Quantity       int64           `json:"quantity"`
	AvgPrice       decimal.Decimal `json:"avg_price"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	EvalAmount     decimal.Decimal `json:"eval_amount"`
	Profit         decimal.Decimal `json:"profit"`
	ProfitRate     float64         `json:"profit_rate"`
}

// OverseasBalance 海外账户余额
type OverseasBalance struct {
	Currency   string            `json:"currency"`
	EvalAmount decimal.Decimal   `json:"eval_amount"`
	Profit     decimal.Decimal   `json:"profit"`
	ProfitRate float64           `json:"profit_rate"`
	Holdings   []OverseasHolding `json:"holdings"`
}

// NewOverseasBalance 汇总海外持仓
func NewOverseasBalance(currency string, holdings []OverseasHolding) *OverseasBalance {
	eval, profit, purchase := decimal.Zero, decimal.Zero, decimal.Zero
	for _, h := range holdings {
		eval = eval.Add(h.EvalAmount)
		profit = profit.Add(h.Profit)
		purchase = purchase.Add(h.PurchaseAmount)
	}
	return &OverseasBalance{
		Currency:   currency,
		EvalAmount: eval,
		Profit:     profit,
		ProfitRate: profitRate(profit, purchase),
		Holdings:   holdings,
	}
}

// profitRate profit / purchase * 100，保留两位小数；买入金额为 0 时返回 0
func profitRate(profit, purchase decimal.Decimal) float64 {
	if purchase.IsZero() {
		return 0
	}
	rate, _ := profit.Div(purchase).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return rate
}
