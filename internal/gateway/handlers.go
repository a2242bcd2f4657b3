package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

type orderRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	Side      string `json:"side" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	Price     int64  `json:"price" binding:"gte=0"`
	OrderType string `json:"order_type"`
}

type overseasOrderRequest struct {
	Exchange string          `json:"exchange" binding:"required"`
	Symbol   string          `json:"symbol" binding:"required"`
	Side     string          `json:"side" binding:"required"`
	Quantity int64           `json:"quantity" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

// cancelAllRequest 撤销全部股票的订单必须显式带 all=true
type cancelAllRequest struct {
	Symbol string `json:"symbol"`
	All    bool   `json:"all"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func badRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, "bad_request", err.Error())
}

func (s *Server) handleQuote(c *gin.Context) {
	q, err := s.broker.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, q)
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	side, err := types.ParseSide(req.Side)
	if err != nil {
		badRequest(c, err)
		return
	}
	intent := types.OrderIntent{
		Symbol:   req.Symbol,
		Side:     side,
		Quantity: req.Quantity,
		Price:    req.Price,
	}
	if req.OrderType != "" {
		if intent.OrderType, err = types.ParseOrderType(req.OrderType); err != nil {
			badRequest(c, err)
			return
		}
	}

	handle, err := s.broker.PlaceOrder(c.Request.Context(), intent)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.WithField("subject", c.GetString(ctxSubject)).Infof("[gateway] 下单 %s %s x%d", handle.OrderID, handle.Symbol, handle.Quantity)
	respond(c, http.StatusCreated, handle)
}

func (s *Server) handleBalance(c *gin.Context) {
	b, err := s.broker.Balance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}

func (s *Server) handleOpenOrders(c *gin.Context) {
	orders, err := s.broker.OpenOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []types.OpenOrderRecord{}
	}
	respond(c, http.StatusOK, orders)
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	ref := types.OrderRef{
		OrderID:  c.Param("orderID"),
		BranchNo: c.Query("branch_no"),
	}
	if ref.BranchNo == "" {
		abort(c, http.StatusBadRequest, "bad_request", "branch_no is required")
		return
	}
	if err := s.broker.CancelOrder(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, ref)
}

func (s *Server) handleCancelAll(c *gin.Context) {
	var req cancelAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Symbol = strings.TrimSpace(req.Symbol)
	switch {
	case req.Symbol == "" && !req.All:
		abort(c, http.StatusBadRequest, "bad_request", `symbol is required; send "all": true to cancel every open order`)
		return
	case req.Symbol != "" && req.All:
		abort(c, http.StatusBadRequest, "bad_request", `symbol and "all" are mutually exclusive`)
		return
	}

	ids, err := s.broker.CancelAll(c.Request.Context(), req.Symbol)
	if ids == nil {
		ids = []string{}
	}
	if err != nil {
		// 中断时已撤销的订单也要返回
		logger.Warnf("[gateway] cancel-all 中断: canceled=%d err=%v", len(ids), err)
		status, code, message := classify(err)
		c.AbortWithStatusJSON(status, gin.H{
			"error": newErrorBody(c, code, message),
			"data":  gin.H{"canceled": ids},
		})
		return
	}
	respond(c, http.StatusOK, gin.H{"canceled": ids})
}

func (s *Server) handleOverseasQuote(c *gin.Context) {
	exchange, err := types.ParseExchange(c.Param("exchange"))
	if err != nil {
		badRequest(c, err)
		return
	}
	q, err := s.broker.OverseasQuote(c.Request.Context(), exchange, c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, q)
}

func (s *Server) handlePlaceOverseasOrder(c *gin.Context) {
	var req overseasOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	side, err := types.ParseSide(req.Side)
	if err != nil {
		badRequest(c, err)
		return
	}
	handle, err := s.broker.PlaceOverseasOrder(c.Request.Context(), types.OverseasOrderIntent{
		Exchange: types.Exchange(req.Exchange),
		Symbol:   req.Symbol,
		Side:     side,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, handle)
}

func (s *Server) handleOverseasBalance(c *gin.Context) {
	var exchange types.Exchange
	if raw := c.Query("exchange"); raw != "" {
		e, err := types.ParseExchange(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		exchange = e
	}
	b, err := s.broker.OverseasBalance(c.Request.Context(), exchange, strings.ToUpper(c.Query("currency")))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}
