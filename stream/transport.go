package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dashstream/utils/log"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// Conn : 연결 관리자가 쓰는 transport 최소 인터페이스
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer : url로 새 연결을 연다
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer : gorilla/websocket 기반 Dialer
// PongWait 안에 pong(또는 프레임)이 없으면 read가 실패하고 재접속 경로로 넘어간다
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	PongWait         time.Duration
}

func NewWebsocketDialer(handshakeTimeout time.Duration) *WebsocketDialer {
	return &WebsocketDialer{HandshakeTimeout: handshakeTimeout, PongWait: pongWait}
}

func (d *WebsocketDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial fail (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial fail: %w", err)
	}

	wait := d.PongWait
	if wait <= 0 {
		wait = pongWait
	}
	wc := &wsConn{Conn: conn, wait: wait, done: make(chan struct{})}
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	go wc.keepalive()
	return wc, nil
}

type wsConn struct {
	*websocket.Conn
	wait time.Duration
	done chan struct{}
	once sync.Once
}

// ReadMessage : 서버가 보낸 프레임도 살아있다는 신호로 본다
func (c *wsConn) ReadMessage() (int, []byte, error) {
	mt, p, err := c.Conn.ReadMessage()
	if err == nil {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.wait))
	}
	return mt, p, err
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.Conn.Close()
}

func (c *wsConn) keepalive() {
	ticker := time.NewTicker(c.wait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debugf("[DashWS] ping failed: %v", err)
				return
			}
		}
	}
}

// BuildURL : {base}/{userID}?deployment_id=...&token=...
// token이 비어 있으면 붙이지 않는다
func BuildURL(base, userID, deploymentID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse ws base url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("ws base url scheme must be ws or wss, got %q", u.Scheme)
	}
	u = u.JoinPath(userID)
	q := u.Query()
	q.Set("deployment_id", deploymentID)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
