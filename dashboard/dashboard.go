// Package dashboard : UI 레이어가 유일하게 보는 표면
//
// stream.Client(연결) + store.Store(상태)를 묶고, 범위(user/deployment/enabled)가
// 바뀌면 기존 연결을 내리고 새 범위로 다시 올린다
package dashboard

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"dashstream/auth"
	"dashstream/config"
	"dashstream/message"
	"dashstream/model"
	"dashstream/store"
	"dashstream/stream"
	"dashstream/utils/log"
)

// Options : 대시보드 입력. Max* 가 0이면 config 값 사용
type Options struct {
	UserID        string
	DeploymentID  string
	Enabled       bool
	MaxCandles    int
	MaxSignals    int
	MaxIndicators int
}

// View : 특정 시점의 읽기 전용 출력
type View struct {
	Status           model.ConnectionState     `json:"status"`
	IsConnected      bool                      `json:"is_connected"`
	Latency          time.Duration             `json:"latency"`
	HasLatency       bool                      `json:"has_latency"`
	Candles          []model.Candle            `json:"candles"`
	Indicators       map[string]float64        `json:"indicators"`
	IndicatorHistory []model.IndicatorSnapshot `json:"indicator_history"`
	Position         *model.Position           `json:"position"`
	Signals          []model.Signal            `json:"signals"`
	Error            *model.DashboardError     `json:"error"`
	DeploymentID     string                    `json:"deployment_id"`
	Revision         uint64                    `json:"revision"`
}

type Dashboard struct {
	client *stream.Client
	store  *store.Store
	cfg    *config.Config

	mu     sync.Mutex
	opts   Options
	epoch  uint64 // 현재 범위의 store epoch
	closed bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(View)

	unsubscribeStore func()
}

type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock : 지연시간/타임스탬프 계산용 시계 주입 (테스트)
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// New : dialer가 nil이면 gorilla websocket dialer를 쓴다
func New(cfg *config.Config, tokens auth.TokenProvider, dialer stream.Dialer, opts Options, options ...Option) *Dashboard {
	st := settings{now: time.Now}
	for _, o := range options {
		o(&st)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if dialer == nil {
		dialer = stream.NewWebsocketDialer(cfg.HandshakeTimeout)
	}

	d := &Dashboard{
		cfg:  cfg,
		opts: opts,
		subs: map[int]func(View){},
	}
	d.store = store.New(opts.DeploymentID, d.limits(opts), store.WithClock(st.now))
	d.epoch = d.store.Epoch()
	d.client = stream.NewClient(stream.Options{
		BaseURL:        cfg.WSBaseURL,
		UserID:         opts.UserID,
		DeploymentID:   opts.DeploymentID,
		ReconnectDelay: cfg.ReconnectDelay,
	}, dialer, tokens, d, stream.WithClock(st.now))
	d.client.SetEnabled(opts.Enabled)

	d.unsubscribeStore = d.store.Subscribe(func(store.Snapshot) { d.publish() })
	return d
}

func (d *Dashboard) limits(opts Options) store.Limits {
	return store.Limits{
		MaxCandles:    lo.Ternary(opts.MaxCandles > 0, opts.MaxCandles, d.cfg.MaxCandles),
		MaxSignals:    lo.Ternary(opts.MaxSignals > 0, opts.MaxSignals, d.cfg.MaxSignals),
		MaxIndicators: lo.Ternary(opts.MaxIndicators > 0, opts.MaxIndicators, d.cfg.MaxIndicators),
	}
}

// Connect : disabled 이거나 범위가 비어 있으면 아무것도 안 한다
func (d *Dashboard) Connect() {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	d.client.Connect()
}

func (d *Dashboard) Disconnect() {
	d.client.Disconnect()
}

// Update : enabled/user/deployment 중 하나라도 바뀌면 연결을 다시 세운다
// deployment/user가 바뀌면 이전 범위의 데이터도 비운다
func (d *Dashboard) Update(opts Options) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	prev := d.opts
	d.opts = opts
	d.mu.Unlock()

	d.store.SetLimits(d.limits(opts))

	scopeChanged := prev.UserID != opts.UserID || prev.DeploymentID != opts.DeploymentID
	if !scopeChanged && prev.Enabled == opts.Enabled {
		return
	}
	log.Infof("[Dashboard] scope %s/%s enabled=%v => %s/%s enabled=%v",
		prev.UserID, prev.DeploymentID, prev.Enabled, opts.UserID, opts.DeploymentID, opts.Enabled)

	d.client.SetEnabled(opts.Enabled)
	d.client.Disconnect()
	if scopeChanged {
		epoch := d.store.Reset(opts.DeploymentID)
		d.mu.Lock()
		d.epoch = epoch
		d.mu.Unlock()
	}
	d.client.SetScope(opts.UserID, opts.DeploymentID)
	if opts.Enabled {
		d.client.Connect()
	}
}

func (d *Dashboard) Options() Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opts
}

// Close : 재접속 타이머 해제 + 소켓 종료. 이후 Connect/Update는 무시
func (d *Dashboard) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.client.SetEnabled(false)
	d.client.Disconnect()
	d.unsubscribeStore()

	d.subMu.Lock()
	d.subs = map[int]func(View){}
	d.subMu.Unlock()
}

func (d *Dashboard) Snapshot() View {
	return buildView(d.client.State(), d.store.Snapshot())
}

// Subscribe : 상태/데이터가 바뀔 때마다 최신 View로 fn 호출
func (d *Dashboard) Subscribe(fn func(View)) func() {
	d.subMu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	d.subMu.Unlock()

	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

func (d *Dashboard) publish() {
	d.subMu.Lock()
	fns := lo.Values(d.subs)
	d.subMu.Unlock()
	if len(fns) == 0 {
		return
	}

	view := d.Snapshot()
	for _, fn := range fns {
		fn(view)
	}
}

// stream.Listener

// OnOpen : 재접속이 실제로 성공한 시점에만 에러 배너를 지운다
func (d *Dashboard) OnOpen() {
	d.store.ClearError()
}

// OnMessage : 현재 범위의 연결에서 온 메시지만 반영
// 범위가 바뀌는 중에 도착한 이전 연결의 프레임은 scope 또는 epoch 검사에서 걸러진다
func (d *Dashboard) OnMessage(scope stream.Scope, msg message.Message) {
	d.mu.Lock()
	current := stream.Scope{UserID: d.opts.UserID, DeploymentID: d.opts.DeploymentID}
	epoch := d.epoch
	d.mu.Unlock()

	if scope != current {
		log.Debugf("[Dashboard] drop %s from %s/%s (scope %s/%s)",
			msg.Type(), scope.UserID, scope.DeploymentID, current.UserID, current.DeploymentID)
		return
	}
	d.store.ApplyAt(epoch, msg)
}

func (d *Dashboard) OnState(model.ConnectionState) {
	d.publish()
}

func buildView(state model.ConnectionState, snap store.Snapshot) View {
	return View{
		Status:           state,
		IsConnected:      state.IsConnected(),
		Latency:          snap.Latency,
		HasLatency:       snap.HasLatency,
		Candles:          snap.Candles,
		Indicators:       snap.Indicators,
		IndicatorHistory: snap.IndicatorHistory,
		Position:         snap.Position,
		Signals:          snap.Signals,
		Error:            snap.Error,
		DeploymentID:     snap.DeploymentID,
		Revision:         snap.Revision,
	}
}
