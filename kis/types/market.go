package types

import (
	"github.com/shopspring/decimal"
)

// Quote 国内现价
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  int64   `json:"price"`  // 现价（韩元）
	Volume int64   `json:"volume"` // 累计成交量
	Change float64 `json:"change"` // 涨跌幅（%）
}

// OverseasQuote 海外现价，价格带小数
type OverseasQuote struct {
	Exchange Exchange        `json:"exchange"`
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Volume   int64           `json:"volume"`
	Change   float64         `json:"change"`
}
