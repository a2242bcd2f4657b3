// Package gateway 通过 REST 暴露一个 ports.Broker，供内网的其它服务调用。
package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/betbot/systock/internal/ports"
)

type Config struct {
	JWTSecret string
	Now       func() time.Time // 测试注入
}

type Server struct {
	cfg    Config
	broker ports.Broker
}

func New(broker ports.Broker, cfg Config) (*Server, error) {
	if broker == nil {
		return nil, errors.New("broker is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{cfg: cfg, broker: broker}, nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api", s.jwtAuth())

	api.GET("/quotes/:symbol", s.handleQuote)
	api.GET("/balance", s.handleBalance)

	orders := api.Group("/orders")
	orders.POST("", s.handlePlaceOrder)
	orders.GET("/open", s.handleOpenOrders)
	orders.DELETE("/:orderID", s.handleCancelOrder)
	orders.POST("/cancel-all", s.handleCancelAll)

	overseas := api.Group("/overseas")
	overseas.GET("/quotes/:exchange/:symbol", s.handleOverseasQuote)
	overseas.POST("/orders", s.handlePlaceOverseasOrder)
	overseas.GET("/balance", s.handleOverseasBalance)

	return r
}
