package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
	sdkhttp "github.com/betbot/systock/pkg/sdk/http"
)

// 服务端报告 token 过期 / 无效时的 msg_cd
var tokenRejectedCodes = map[string]bool{
	"EGW00121": true,
	"EGW00123": true,
}

// Request 一次业务调用
type Request struct {
	Method string
	Path   string
	TrID   string
	Params map[string]string
	Body   any    // 非 nil 时序列化为 JSON；POST 会附加 hashkey
	TrCont string // 续页时填 "N"
}

// Response 已通过 rt_cd 校验的响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	TrCont     string
}

// HasMore 服务端是否还有下一页
func (r *Response) HasMore() bool {
	return r != nil && types.HasMore(r.TrCont)
}

// Dispatcher 负责鉴权头、hashkey 以及结果分类
type Dispatcher struct {
	session *Session
	http    *sdkhttp.Client
}

// NewDispatcher 创建调度器
func NewDispatcher(session *Session, httpClient *sdkhttp.Client) *Dispatcher {
	return &Dispatcher{session: session, http: httpClient}
}

func (d *Dispatcher) headers(token, trID, trCont string) map[string]string {
	cred := d.session.Credential()
	h := map[string]string{
		"authorization": "Bearer " + token,
		"appkey":        cred.AppKey,
		"appsecret":     cred.AppSecret,
		"tr_id":         trID,
		"custtype":      "P",
		"content-type":  "application/json; charset=utf-8",
	}
	if trCont != "" {
		h["tr_cont"] = trCont
	}
	return h
}

// Execute 发送请求。out 非 nil 时把响应体解析进去。
//
// 请求体无法序列化属于调用方的编程错误，在取 token 之前直接返回（pkg/errors 包装，不属于下列类别）。
// 其余错误只有三类：*types.AuthError（拿不到 token）、
// *types.NetworkError（传输失败、非 2xx、响应体无法解析）、*types.ApiError（rt_cd != "0"）。
func (d *Dispatcher) Execute(ctx context.Context, req *Request, out any) (*Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s body", req.Path)
		}
		body = b
	}

	token, err := d.session.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	opt := &sdkhttp.RequestOptions{
		Headers: d.headers(token, req.TrID, req.TrCont),
		Params:  req.Params,
		Body:    body,
	}
	if body != nil && req.Method != http.MethodGet {
		hash, err := d.hashKey(ctx, body)
		if err != nil {
			return nil, err
		}
		opt.Headers["hashkey"] = hash
	}

	log := logger.WithFields(logrus.Fields{"tr_id": req.TrID, "path": req.Path})
	log.Debugf("%s %s", req.Method, req.Path)

	resp, err := d.http.DoRequest(ctx, req.Method, req.Path, opt)
	if err != nil {
		return nil, &types.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}

	raw := resp.Body()
	if !resp.IsSuccess() {
		d.checkTokenRejected(raw)
		log.WithField("status", resp.StatusCode()).Warn("非 2xx 响应")
		return nil, &types.NetworkError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(raw)),
			Err:        sdkhttp.StatusError(resp),
		}
	}

	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, d.malformed(req, resp.StatusCode(), raw, err)
	}
	if !env.Succeeded() {
		if tokenRejectedCodes[env.MsgCd] {
			d.session.Invalidate()
		}
		log.WithFields(logrus.Fields{"msg_cd": env.MsgCd, "msg1": env.Msg1}).Warn("业务失败")
		return nil, &types.ApiError{ResultCode: env.RtCd, Code: env.MsgCd, Message: env.Msg1}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, d.malformed(req, resp.StatusCode(), raw, err)
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       raw,
		TrCont:     strings.TrimSpace(resp.Header().Get("tr_cont")),
	}, nil
}

func (d *Dispatcher) malformed(req *Request, status int, raw []byte, err error) error {
	return &types.NetworkError{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: status,
		Body:       strings.TrimSpace(string(raw)),
		Err:        errors.Wrap(err, "decode response"),
	}
}

// checkTokenRejected 非 2xx 的响应体里也可能带 msg_cd
func (d *Dispatcher) checkTokenRejected(raw []byte) {
	var env types.Envelope
	if json.Unmarshal(raw, &env) == nil && tokenRejectedCodes[env.MsgCd] {
		d.session.Invalidate()
	}
}

// hashKey 对请求体字节求 hashkey。必须对实际发送的同一份字节调用。
func (d *Dispatcher) hashKey(ctx context.Context, body []byte) (string, error) {
	cred := d.session.Credential()
	resp, err := d.http.DoRequest(ctx, http.MethodPost, EndpointHashKey, &sdkhttp.RequestOptions{
		Headers: map[string]string{
			"appkey":    cred.AppKey,
			"appsecret": cred.AppSecret,
		},
		Body: body,
	})
	if err != nil {
		return "", &types.NetworkError{Method: http.MethodPost, Path: EndpointHashKey, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &types.NetworkError{
			Method:     http.MethodPost,
			Path:       EndpointHashKey,
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(resp.Body())),
			Err:        sdkhttp.StatusError(resp),
		}
	}
	var out types.HashKeyResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.Hash == "" {
		if err == nil {
			err = errors.New("empty HASH")
		}
		return "", &types.NetworkError{
			Method:     http.MethodPost,
			Path:       EndpointHashKey,
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(resp.Body())),
			Err:        err,
		}
	}
	return out.Hash, nil
}
