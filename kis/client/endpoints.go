package client

import "github.com/betbot/systock/kis/types"

// 服务器地址
const (
	BaseURLReal    = "https://openapi.koreainvestment.com:9443"
	BaseURLVirtual = "https://openapivts.koreainvestment.com:29443"
)

// API 端点常量
const (
	// 认证
	EndpointToken    = "/oauth2/tokenP"
	EndpointApproval = "/oauth2/Approval"
	EndpointHashKey  = "/uapi/hashkey"

	// 国内股票
	EndpointInquirePrice   = "/uapi/domestic-stock/v1/quotations/inquire-price"
	EndpointOrderCash      = "/uapi/domestic-stock/v1/trading/order-cash"
	EndpointOrderRvseCncl  = "/uapi/domestic-stock/v1/trading/order-rvsecncl"
	EndpointInquireBalance = "/uapi/domestic-stock/v1/trading/inquire-balance"
	EndpointOpenOrders     = "/uapi/domestic-stock/v1/trading/inquire-psbl-rvsecncl"

	// 海外股票
	EndpointOverseasPrice   = "/uapi/overseas-price/v1/quotations/price"
	EndpointOverseasOrder   = "/uapi/overseas-stock/v1/trading/order"
	EndpointOverseasBalance = "/uapi/overseas-stock/v1/trading/inquire-balance"
)

// BaseURLFor 根据环境选择服务器
func BaseURLFor(env types.Environment) string {
	if env.IsReal() {
		return BaseURLReal
	}
	return BaseURLVirtual
}

// trPair 实盘 / 模拟盘 两个 tr_id
type trPair struct {
	real    string
	virtual string
}

func (p trPair) pick(env types.Environment) string {
	if env.IsReal() {
		return p.real
	}
	return p.virtual
}

// tr_id
const (
	TrIDInquirePrice  = "FHKST01010100"
	TrIDOverseasPrice = "HHDFS00000300"
)

var (
	trOrderBuy        = trPair{real: "TTTC0802U", virtual: "VTTC0802U"}
	trOrderSell       = trPair{real: "TTTC0801U", virtual: "VTTC0801U"}
	trOrderCancel     = trPair{real: "TTTC0803U", virtual: "VTTC0803U"}
	trInquireBalance  = trPair{real: "TTTC8434R", virtual: "VTTC8434R"}
	trOpenOrders      = trPair{real: "TTTC8036R", virtual: "VTTC8036R"}
	trOverseasBuy     = trPair{real: "TTTT1002U", virtual: "VTTT1002U"}
	trOverseasSell    = trPair{real: "TTTT1006U", virtual: "VTTT1001U"}
	trOverseasBalance = trPair{real: "TTTS3012R", virtual: "VTTS3012R"}
)

// orderTrID 按买卖方向和环境选择下单 tr_id
func orderTrID(side types.Side, env types.Environment) string {
	if side == types.SideBuy {
		return trOrderBuy.pick(env)
	}
	return trOrderSell.pick(env)
}

func overseasOrderTrID(side types.Side, env types.Environment) string {
	if side == types.SideBuy {
		return trOverseasBuy.pick(env)
	}
	return trOverseasSell.pick(env)
}
