package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PingPongTrID 服务端心跳；客户端需原样回写
const PingPongTrID = "PINGPONG"

// 常用实时 tr_id
const (
	TrIDDomesticTrade  = "H0STCNT0" // 国内成交价
	TrIDDomesticAsking = "H0STASP0" // 国内十档行情
	TrIDOverseasTrade  = "HDFSCNT0" // 海外成交价（延迟）
)

// Frame 一帧原始数据。不解析字段含义，只拆出 tr_id 和按 '^' 分隔的值。
type Frame struct {
	Raw       []byte
	Control   bool // JSON 控制帧（订阅应答 / 心跳）
	Encrypted bool
	TrID      string
	Count     int      // 数据帧中的记录数
	Fields    []string // 数据帧的值，Count 条记录首尾相接
	Header    ControlHeader
	Body      ControlBody
}

// ControlHeader JSON 控制帧头
type ControlHeader struct {
	TrID     string `json:"tr_id"`
	TrKey    string `json:"tr_key"`
	Encrypt  string `json:"encrypt"`
	Datetime string `json:"datetime"`
}

// ControlBody JSON 控制帧体
type ControlBody struct {
	RtCd   string        `json:"rt_cd"`
	MsgCd  string        `json:"msg_cd"`
	Msg1   string        `json:"msg1"`
	Output ControlOutput `json:"output"`
}

// ControlOutput 订阅成功时返回的解密参数（仅加密频道）
type ControlOutput struct {
	IV  string `json:"iv"`
	Key string `json:"key"`
}

// IsPingPong 是否心跳帧
func (f Frame) IsPingPong() bool {
	return f.Control && f.Header.TrID == PingPongTrID
}

// ParseFrame 数据帧格式：<加密标志>|<tr_id>|<记录数>|<值^值^...>；其它都按 JSON 控制帧处理
func ParseFrame(raw []byte) (Frame, error) {
	f := Frame{Raw: raw}
	if len(raw) == 0 {
		return f, fmt.Errorf("empty frame")
	}

	if raw[0] == '0' || raw[0] == '1' {
		parts := strings.SplitN(string(raw), "|", 4)
		if len(parts) != 4 {
			return f, fmt.Errorf("malformed data frame: %d sections", len(parts))
		}
		count, err := strconv.Atoi(parts[2])
		if err != nil {
			return f, fmt.Errorf("malformed data frame count %q: %w", parts[2], err)
		}
		f.Encrypted = parts[0] == "1"
		f.TrID = parts[1]
		f.Count = count
		if !f.Encrypted {
			f.Fields = strings.Split(parts[3], "^")
		}
		return f, nil
	}

	var msg struct {
		Header ControlHeader `json:"header"`
		Body   ControlBody   `json:"body"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return f, fmt.Errorf("malformed control frame: %w", err)
	}
	f.Control = true
	f.TrID = msg.Header.TrID
	f.Header = msg.Header
	f.Body = msg.Body
	return f, nil
}

type subscribeHeader struct {
	ApprovalKey string `json:"approval_key"`
	CustType    string `json:"custtype"`
	TrType      string `json:"tr_type"` // 1 订阅, 2 退订
	ContentType string `json:"content-type"`
}

type subscribeInput struct {
	TrID  string `json:"tr_id"`
	TrKey string `json:"tr_key"`
}

type subscribeBody struct {
	Input subscribeInput `json:"input"`
}

// subscribeRequest 订阅 / 退订请求
type subscribeRequest struct {
	Header subscribeHeader `json:"header"`
	Body   subscribeBody   `json:"body"`
}

func newSubscribeRequest(approvalKey, trType, trID, trKey string) subscribeRequest {
	return subscribeRequest{
		Header: subscribeHeader{
			ApprovalKey: approvalKey,
			CustType:    "P",
			TrType:      trType,
			ContentType: "utf-8",
		},
		Body: subscribeBody{Input: subscribeInput{TrID: trID, TrKey: trKey}},
	}
}
