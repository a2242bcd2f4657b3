package types

import (
	"errors"
	"fmt"
)

// ConfigError 缺少或非法的必要配置，不可重试
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s %s", e.Field, e.Reason)
}

// AuthError token 发放被拒绝
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("auth error (status %d): %s", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError 传输层失败：网络异常、非 2xx、响应体无法解析。调用方可以自行重试。
type NetworkError struct {
	Method     string
	Path       string
	StatusCode int // 0 表示请求没有拿到响应
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("network error %s %s: %v", e.Method, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("network error %s %s: HTTP %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ApiError 业务拒绝：HTTP 200 但 rt_cd != "0"。Code 原样保留 msg_cd。
type ApiError struct {
	ResultCode string // rt_cd
	Code       string // msg_cd
	Message    string // msg1
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api error [%s] %s", e.Code, e.Message)
}

// AsApiError 便捷判断
func AsApiError(err error) (*ApiError, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRetryable 只有传输层错误值得调用方重试
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
