package client

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// CancelAll 撤销某只股票的全部未成交订单，symbol 为空时撤销所有股票。
//
// 列表查询失败直接返回错误。单笔撤单失败只记录日志并继续，
// 返回值只包含服务端确认撤销的订单号，顺序与列表一致。
func (c *Client) CancelAll(ctx context.Context, symbol string) ([]string, error) {
	orders, err := c.OpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	cancelled := make([]string, 0, len(orders))
	attempted := 0
	for _, order := range orders {
		if symbol != "" && order.Symbol != symbol {
			continue
		}
		if attempted > 0 {
			if err := c.sleep(ctx, c.cancelDelay); err != nil {
				return cancelled, err
			}
		}
		attempted++

		if err := c.CancelOrder(ctx, order.Ref()); err != nil {
			fields := logrus.Fields{"order_id": order.OrderID, "symbol": order.Symbol}
			if apiErr, ok := types.AsApiError(err); ok {
				fields["msg_cd"] = apiErr.Code
			}
			logger.WithFields(fields).WithError(err).Warn("撤单失败，跳过")
			continue
		}
		cancelled = append(cancelled, order.OrderID)
	}

	logger.WithFields(logrus.Fields{
		"symbol":    symbol,
		"attempted": attempted,
		"cancelled": len(cancelled),
	}).Info("批量撤单完成")
	return cancelled, nil
}
