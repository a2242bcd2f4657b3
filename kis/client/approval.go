package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/ratelimit"
	sdkhttp "github.com/betbot/systock/pkg/sdk/http"
)

// ApprovalKey 申请实时行情 websocket 的 approval_key。
// 与 access token 分开限流，不缓存：每次连接前调用一次。
func (c *Client) ApprovalKey(ctx context.Context) (string, error) {
	if err := c.limits.Wait(ctx, ratelimit.KeyApprovalIssue); err != nil {
		return "", errors.Wrap(err, "wait approval limiter")
	}

	body, err := json.Marshal(types.ApprovalRequest{
		GrantType: "client_credentials",
		AppKey:    c.cred.AppKey,
		SecretKey: c.cred.AppSecret,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal approval request")
	}

	resp, err := c.http.DoRequest(ctx, http.MethodPost, EndpointApproval, &sdkhttp.RequestOptions{Body: body})
	if err != nil {
		return "", &types.NetworkError{Method: http.MethodPost, Path: EndpointApproval, Err: err}
	}
	raw := strings.TrimSpace(string(resp.Body()))
	if !resp.IsSuccess() {
		return "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: sdkhttp.StatusError(resp)}
	}

	var out types.ApprovalResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: errors.Wrap(err, "decode approval response")}
	}
	if out.ApprovalKey == "" {
		return "", &types.AuthError{StatusCode: resp.StatusCode(), Body: raw, Err: errors.New("empty approval_key")}
	}
	return out.ApprovalKey, nil
}
