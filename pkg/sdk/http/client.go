package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Client resty 封装。不做任何自动重试：重试策略由调用方决定。
type Client struct {
	client *resty.Client
}

// NewClient 创建客户端；resty 会自动读取 HTTP_PROXY / HTTPS_PROXY
func NewClient(host string, timeout time.Duration) *Client {
	host = strings.TrimSuffix(host, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetRetryCount(0)

	return &Client{client: client}
}

// BaseURL 返回主机地址
func (c *Client) BaseURL() string {
	return c.client.BaseURL
}

// RequestOptions 单次请求参数
type RequestOptions struct {
	Headers map[string]string
	Params  map[string]string
	Body    []byte // 原样发送，调用方负责序列化（hashkey 需要对同一份字节签名）
}

// newRequest 仅设置本次请求的默认 Header（不要再改 client 级 Header）
func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	r.SetHeader("User-Agent", "systock-go")
	return r
}

// DoRequest 发送请求并返回原始响应；只有拿不到响应时才返回 error
func (c *Client) DoRequest(ctx context.Context, method, endpoint string, opt *RequestOptions) (*resty.Response, error) {
	rc := c.newRequest(ctx)
	if opt != nil {
		for k, v := range opt.Headers {
			rc.SetHeader(k, v)
		}
		if len(opt.Params) > 0 {
			rc.SetQueryParams(opt.Params)
		}
		if opt.Body != nil {
			rc.SetHeader("Content-Type", "application/json; charset=utf-8")
			rc.SetBody(opt.Body)
		}
	}

	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPut:
		resp, err := rc.Execute(strings.ToUpper(method), endpoint)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s", method, endpoint)
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}
}

// StatusError 非 2xx 响应转换为错误，2xx 返回 nil
func StatusError(resp *resty.Response) error {
	if resp == nil || resp.IsSuccess() {
		return nil
	}
	return errors.Errorf("http non-2xx: %d %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
}
