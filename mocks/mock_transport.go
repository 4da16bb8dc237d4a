package mocks

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"dashstream/stream"
)

// MockDialer : stream.Dialer를 흉내낸다
//   - Dial 호출 주소를 기록
//   - Err가 있으면 dial 실패, 없으면 새 MockConn 반환
type MockDialer struct {
	mu    sync.Mutex
	Err   error
	urls  []string
	conns []*MockConn

	dialed chan *MockConn
}

func NewMockDialer() *MockDialer {
	return &MockDialer{dialed: make(chan *MockConn, 64)}
}

func (d *MockDialer) Dial(ctx context.Context, url string) (stream.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	if d.Err != nil {
		return nil, d.Err
	}
	conn := NewMockConn()
	d.conns = append(d.conns, conn)
	select {
	case d.dialed <- conn:
	default:
	}
	return conn, nil
}

func (d *MockDialer) SetErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Err = err
}

func (d *MockDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *MockDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// LastConn : 마지막으로 성공한 연결 (없으면 nil)
func (d *MockDialer) LastConn() *MockConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *MockDialer) Conns() []*MockConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockConn(nil), d.conns...)
}

// MockConn : 서버 쪽에서 Send/Drop 으로 프레임과 종료를 흉내낸다
type MockConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	readErr error
	byPeer  bool
}

func NewMockConn() *MockConn {
	return &MockConn{
		frames: make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

// Send : 서버 => 클라이언트 프레임
func (c *MockConn) Send(frame string) {
	select {
	case <-c.closed:
	case c.frames <- []byte(frame):
	}
}

// Drop : 서버가 연결을 끊는다. err == nil 이면 비정상 종료(1006)
func (c *MockConn) Drop(err error) {
	if err == nil {
		err = &websocket.CloseError{Code: websocket.CloseAbnormalClosure, Text: "unexpected EOF"}
	}
	c.mu.Lock()
	c.readErr = err
	c.byPeer = true
	c.mu.Unlock()
	c.once.Do(func() { close(c.closed) })
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	if c.readErr == nil {
		c.readErr = websocket.ErrCloseSent
	}
	c.mu.Unlock()
	c.once.Do(func() { close(c.closed) })
	return nil
}

// ClosedByClient : 클라이언트가 Close를 호출해서 닫혔는지
func (c *MockConn) ClosedByClient() bool {
	select {
	case <-c.closed:
	default:
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.byPeer
}

func (c *MockConn) ReadMessage() (int, []byte, error) {
	// 이미 받은 프레임이 있으면 종료보다 먼저 전달
	select {
	case f := <-c.frames:
		return websocket.TextMessage, f, nil
	default:
	}
	select {
	case f := <-c.frames:
		return websocket.TextMessage, f, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		return 0, nil, c.readErr
	}
}
