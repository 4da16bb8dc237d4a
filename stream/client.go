// Package stream : 대시보드 웹소켓 연결 관리자
//
// 상태 전이
//
//	disconnected --Connect--> connecting --open--> connected --close--> disconnected --(enabled, delay)--> connecting ...
//	connected --error--> error (라벨만 바뀜, 뒤따르는 close가 재접속을 만든다)
//	* --Disconnect--> disconnected (Connect 전까지 유지)
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dashstream/auth"
	"dashstream/message"
	"dashstream/model"
	"dashstream/utils/log"
)

// Listener : 연결 이벤트 수신자. 모든 콜백은 한 번에 하나씩, 발생 순서대로 호출된다
type Listener interface {
	OnOpen()
	OnMessage(scope Scope, msg message.Message)
	OnState(state model.ConnectionState)
}

// Scope : 메시지를 받은 연결의 user/deployment
type Scope struct {
	UserID       string
	DeploymentID string
}

const DefaultReconnectDelay = 3 * time.Second

type Options struct {
	BaseURL        string
	UserID         string
	DeploymentID   string
	ReconnectDelay time.Duration
}

type ClientOption func(*Client)

// WithClock : 테스트용 시계 주입
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// Client : (userID, deploymentID) 범위의 연결을 최대 하나만 유지한다
type Client struct {
	dialer   Dialer
	tokens   auth.TokenProvider
	listener Listener
	now      func() time.Time
	dispatch dispatcher

	mu         sync.Mutex
	opts       Options
	enabled    bool
	gen        uint64 // 연결 세대. 이전 세대의 콜백/타이머는 무시
	state      model.ConnectionState
	conn       Conn
	timer      *time.Timer
	cancelDial context.CancelFunc
}

func NewClient(opts Options, dialer Dialer, tokens auth.TokenProvider, listener Listener, clientOpts ...ClientOption) *Client {
	c := &Client{
		dialer:   dialer,
		tokens:   tokens,
		listener: listener,
		now:      time.Now,
		opts:     opts,
		enabled:  true,
		state:    model.ConnectionState{Status: model.StatusDisconnected},
	}
	if c.opts.ReconnectDelay <= 0 {
		c.opts.ReconnectDelay = DefaultReconnectDelay
	}
	for _, opt := range clientOpts {
		opt(c)
	}
	return c
}

// SetScope : 다음 Connect부터 적용된다
func (c *Client) SetScope(userID, deploymentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.UserID = userID
	c.opts.DeploymentID = deploymentID
}

// SetEnabled : false면 대기 중인 재접속을 취소한다 (열린 연결은 Disconnect로 닫는다)
func (c *Client) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.stopTimerLocked()
	}
}

func (c *Client) State() model.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect : 기존 연결/타이머를 정리하고 새로 접속한다. 바로 반환하며 결과는 상태로 관찰
func (c *Client) Connect() {
	c.mu.Lock()
	if !c.enabled || c.opts.UserID == "" || c.opts.DeploymentID == "" {
		enabled, opts := c.enabled, c.opts
		c.mu.Unlock()
		log.Debugf("[DashWS] connect skipped (enabled=%v, scope=%q/%q)", enabled, opts.UserID, opts.DeploymentID)
		return
	}
	c.connectLocked()
	c.mu.Unlock()

	c.emitState()
}

// Disconnect : 재접속 타이머 해제 + 연결 종료. 여러 번 호출해도 안전
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.teardownLocked()
	changed := c.state.Status != model.StatusDisconnected
	c.state.Status = model.StatusDisconnected
	c.mu.Unlock()

	if changed {
		log.Infof("[DashWS] disconnected")
		c.emitState()
	}
}

func (c *Client) connectLocked() {
	c.teardownLocked()
	gen := c.gen
	opts := c.opts

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.state.Status = model.StatusConnecting

	go c.run(ctx, gen, opts)
}

// teardownLocked : 세대를 올려서 이전 소켓/타이머 콜백을 무효화
func (c *Client) teardownLocked() {
	c.gen++
	c.stopTimerLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// run : 토큰 조회 => URL => dial => read loop (세대 하나당 고루틴 하나)
func (c *Client) run(ctx context.Context, gen uint64, opts Options) {
	token := ""
	if c.tokens != nil {
		t, err := c.tokens.Token(ctx)
		if err != nil {
			log.Warnf("[DashWS] token lookup failed, connecting without token: %v", err)
		}
		token = auth.Usable(t, c.now())
	}

	rawURL, err := BuildURL(opts.BaseURL, opts.UserID, opts.DeploymentID, token)
	if err != nil {
		c.onError(gen, err)
		c.onClose(gen)
		return
	}

	conn, err := c.dialer.Dial(ctx, rawURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.onError(gen, err)
		c.onClose(gen)
		return
	}

	if !c.onOpen(gen, conn) {
		_ = conn.Close()
		return
	}
	log.Infof("[DashWS] connected user=%s deployment=%s", opts.UserID, opts.DeploymentID)
	c.readLoop(gen, conn, Scope{UserID: opts.UserID, DeploymentID: opts.DeploymentID})
}

func (c *Client) onOpen(gen uint64, conn Conn) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.state.Status = model.StatusConnected
	c.state.LastConnectedAt = c.now()
	c.state.ReconnectAttempts = 0
	c.state.LastError = ""
	c.mu.Unlock()

	c.dispatch.Do(func() {
		if c.current(gen) && c.listener != nil {
			c.listener.OnOpen()
		}
	})
	c.emitState()
	return true
}

func (c *Client) readLoop(gen uint64, conn Conn, scope Scope) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !c.current(gen) {
				// Disconnect/재접속으로 우리가 닫은 소켓
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.onError(gen, err)
			}
			c.onClose(gen)
			return
		}

		msg, err := message.Decode(frame)
		if err != nil {
			log.Warnf("[DashWS] drop frame: %v", err)
			continue
		}

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.state.LastMessageAt = c.now()
		c.mu.Unlock()

		c.dispatch.Do(func() {
			if c.current(gen) && c.listener != nil {
				c.listener.OnMessage(scope, msg)
			}
		})
	}
}

func (c *Client) onError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state.Status = model.StatusError
	c.state.LastError = err.Error()
	c.mu.Unlock()

	log.Errorf("[DashWS] %v", err)
	c.emitState()
}

// onClose : enabled면 고정 지연 후 재접속 (backoff/최대 횟수 없음)
func (c *Client) onClose(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state.Status = model.StatusDisconnected
	if c.enabled {
		c.state.ReconnectAttempts++
		attempt := c.state.ReconnectAttempts
		delay := c.opts.ReconnectDelay
		c.timer = time.AfterFunc(delay, func() { c.reconnect(gen) })
		log.Infof("[DashWS] closed, reconnect #%d in %v", attempt, delay)
	}
	c.mu.Unlock()

	c.emitState()
}

func (c *Client) reconnect(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.enabled {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.connectLocked()
	c.mu.Unlock()

	c.emitState()
}

// emitState : 큐에서 실행될 때의 최신 상태를 넘긴다
func (c *Client) emitState() {
	if c.listener == nil {
		return
	}
	c.dispatch.Do(func() {
		c.listener.OnState(c.State())
	})
}
