package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// statusClientClosed 调用方先断开（nginx 约定）
const statusClientClosed = 499

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorBody(c *gin.Context, code, message string) errorBody {
	return errorBody{Code: code, Message: message, RequestID: c.GetString(ctxRequestID)}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": newErrorBody(c, code, message)})
}

// classify 按错误类别映射 HTTP 状态；券商的 msg_cd 原样透出
func classify(err error) (int, string, string) {
	var (
		cfgErr  *types.ConfigError
		authErr *types.AuthError
		netErr  *types.NetworkError
	)
	if apiErr, found := types.AsApiError(err); found {
		return http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message
	}
	switch {
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "upstream_auth", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", err.Error()
	case errors.Is(err, context.Canceled):
		return statusClientClosed, "canceled", err.Error()
	case errors.As(err, &netErr):
		return http.StatusBadGateway, "upstream_unavailable", err.Error()
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "config", err.Error()
	}
	return http.StatusBadRequest, "bad_request", err.Error()
}

func writeError(c *gin.Context, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.WithField("request_id", c.GetString(ctxRequestID)).Warnf("[gateway] %v", err)
	}
	abort(c, status, code, message)
}
