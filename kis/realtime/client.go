// Package realtime KIS 实时行情 websocket 的薄封装：申请 approval key、订阅、转发原始帧。
// 不做重连，也不维护订阅状态机；连接断开后由调用方决定是否重新 Connect。
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
)

// 服务器地址
const (
	URLReal    = "ws://ops.koreainvestment.com:21000"
	URLVirtual = "ws://ops.koreainvestment.com:31000"
)

const (
	defaultHandshakeTimeout  = 10 * time.Second
	defaultMessageBufferSize = 256
	defaultErrorBufferSize   = 8
)

// URLFor 根据环境选择服务器
func URLFor(env types.Environment) string {
	if env.IsReal() {
		return URLReal
	}
	return URLVirtual
}

// ApprovalSource 提供 approval key，一般是 *client.Client
type ApprovalSource interface {
	ApprovalKey(ctx context.Context) (string, error)
}

// Config 连接配置
type Config struct {
	URL               string
	HandshakeTimeout  time.Duration
	MessageBufferSize int
}

// Client 实时行情连接
type Client struct {
	config    Config
	approvals ApprovalSource

	connMu      sync.Mutex
	conn        *websocket.Conn
	approvalKey string

	frames    chan Frame
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient 创建客户端，Connect 之前不会发起任何网络请求
func NewClient(approvals ApprovalSource, cfg Config) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.MessageBufferSize <= 0 {
		cfg.MessageBufferSize = defaultMessageBufferSize
	}
	return &Client{
		config:    cfg,
		approvals: approvals,
		frames:    make(chan Frame, cfg.MessageBufferSize),
		errs:      make(chan error, defaultErrorBufferSize),
		done:      make(chan struct{}),
	}
}

// Connect 申请 approval key 并建立连接，随后在后台读取
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		return fmt.Errorf("realtime: already connected")
	}
	if c.config.URL == "" {
		return fmt.Errorf("realtime: url is required")
	}

	key, err := c.approvals.ApprovalKey(ctx)
	if err != nil {
		return fmt.Errorf("realtime: approval key: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("realtime: dial %s: %w", c.config.URL, err)
	}
	c.conn = conn
	c.approvalKey = key

	logger.WithField("url", c.config.URL).Info("[realtime] 已连接")
	go c.readLoop(conn)
	return nil
}

// Subscribe 订阅一个 tr_id / 代码
func (c *Client) Subscribe(trID, trKey string) error {
	return c.send("1", trID, trKey)
}

// Unsubscribe 退订
func (c *Client) Unsubscribe(trID, trKey string) error {
	return c.send("2", trID, trKey)
}

func (c *Client) send(trType, trID, trKey string) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("realtime: not connected")
	}
	if err := c.conn.WriteJSON(newSubscribeRequest(c.approvalKey, trType, trID, trKey)); err != nil {
		return fmt.Errorf("realtime: send %s %s: %w", trID, trKey, err)
	}
	logger.WithFields(logrus.Fields{"tr_id": trID, "tr_key": trKey, "tr_type": trType}).Debug("[realtime] 订阅请求已发送")
	return nil
}

// Frames 数据帧与控制帧（心跳除外）。连接结束后关闭。
func (c *Client) Frames() <-chan Frame {
	return c.frames
}

// Errors 读取错误与无法解析的帧
func (c *Client) Errors() <-chan error {
	return c.errs
}

// Close 关闭连接，可重复调用
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.connMu.Lock()
		defer c.connMu.Unlock()
		if c.conn == nil {
			return
		}
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
	})
	return err
}

func (c *Client) reportError(err error) {
	select {
	case c.errs <- err:
	default:
		logger.Warnf("[realtime] 错误通道已满，丢弃: %v", err)
	}
}

// readLoop 按到达顺序转发帧；心跳原样回写
func (c *Client) readLoop(conn *websocket.Conn) {
	defer close(c.frames)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.reportError(fmt.Errorf("realtime: read: %w", err))
				}
			}
			return
		}

		frame, err := ParseFrame(raw)
		if err != nil {
			c.reportError(err)
			continue
		}

		if frame.IsPingPong() {
			c.connMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, raw)
			c.connMu.Unlock()
			if err != nil {
				c.reportError(fmt.Errorf("realtime: pong: %w", err))
			}
			continue
		}

		if frame.Control && frame.Body.RtCd != "" && frame.Body.RtCd != "0" {
			logger.WithFields(logrus.Fields{
				"tr_id":  frame.TrID,
				"tr_key": frame.Header.TrKey,
				"msg_cd": frame.Body.MsgCd,
			}).Warnf("[realtime] 订阅被拒绝: %s", frame.Body.Msg1)
		}

		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}
