// Package store : 디코딩된 메시지를 bounded 상태로 접는다
package store

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"dashstream/message"
	"dashstream/model"
	"dashstream/utils/log"
)

const (
	DefaultMaxCandles = 500
	DefaultMaxSignals = 50
)

// Limits : 각 시리즈 최대 길이. 0 이하면 기본값
type Limits struct {
	MaxCandles    int
	MaxSignals    int
	MaxIndicators int // 0 이면 MaxCandles와 같음
}

func (l Limits) normalized() Limits {
	if l.MaxCandles <= 0 {
		l.MaxCandles = DefaultMaxCandles
	}
	if l.MaxSignals <= 0 {
		l.MaxSignals = DefaultMaxSignals
	}
	if l.MaxIndicators <= 0 {
		l.MaxIndicators = l.MaxCandles
	}
	return l
}

// Snapshot : 읽기 전용 복사본 (구독자가 수정해도 Store에 영향 없음)
type Snapshot struct {
	DeploymentID     string
	Revision         uint64
	Candles          []model.Candle
	Indicators       map[string]float64
	IndicatorHistory []model.IndicatorSnapshot
	Position         *model.Position
	Signals          []model.Signal
	Error            *model.DashboardError
	Latency          time.Duration
	HasLatency       bool
}

type Listener func(snap Snapshot)

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store : 한 deployment 범위의 대시보드 상태
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	limits Limits

	deploymentID string
	epoch        uint64
	revision     uint64
	candles      []model.Candle
	indicators   map[string]float64
	history      []model.IndicatorSnapshot
	position     *model.Position
	signals      []model.Signal
	lastError    *model.DashboardError
	latency      time.Duration
	hasLatency   bool

	listenerMu sync.Mutex
	nextID     int
	listeners  map[int]Listener
}

func New(deploymentID string, limits Limits, opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		limits:       limits.normalized(),
		deploymentID: deploymentID,
		indicators:   map[string]float64{},
		listeners:    map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply : msg를 상태에 반영. deployment가 다르면 무시하고 false
func (s *Store) Apply(msg message.Message) bool {
	if msg == nil {
		return false
	}
	s.mu.Lock()
	return s.applyLocked(msg)
}

// ApplyAt : Apply와 같지만 epoch 이후 Reset이 있었으면 버린다
// (epoch는 Epoch/Reset 반환값)
func (s *Store) ApplyAt(epoch uint64, msg message.Message) bool {
	if msg == nil {
		return false
	}
	s.mu.Lock()
	if current := s.epoch; epoch != current {
		s.mu.Unlock()
		log.Debugf("[Store] drop %s from epoch %d (now %d)", msg.Type(), epoch, current)
		return false
	}
	return s.applyLocked(msg)
}

// applyLocked : s.mu를 잡은 채로 들어와서 풀고 나간다
func (s *Store) applyLocked(msg message.Message) bool {
	if scope := s.deploymentID; msg.DeploymentID() != scope {
		s.mu.Unlock()
		log.Debugf("[Store] drop %s for deployment %q (scope %q)", msg.Type(), msg.DeploymentID(), scope)
		return false
	}

	switch m := msg.(type) {
	case message.CandleUpdate:
		s.candles = model.MergeByTime(s.candles, m.Candle, s.limits.MaxCandles)
	case message.IndicatorUpdate:
		s.history = model.MergeByTime(s.history, m.Snapshot, s.limits.MaxIndicators)
		s.indicators = lo.Assign(m.Snapshot.Values)
	case message.PositionUpdate:
		s.position = clonePosition(m.Position)
	case message.SignalEvent:
		s.signals = model.PrependBounded(s.signals, m.Signal, s.limits.MaxSignals)
	case message.ErrorNotice:
		e := m.Error
		if e.ReceivedAt.IsZero() {
			e.ReceivedAt = s.now()
		}
		s.lastError = &e
	default:
		s.mu.Unlock()
		return false
	}

	// 가장 최근 샘플만 유지 (평균 없음)
	if ts, ok := msg.Timestamp(); ok {
		s.latency = s.now().Sub(ts)
		s.hasLatency = true
	}
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// ClearError : 배너 해제 (재접속 open 시점에 호출)
func (s *Store) ClearError() {
	s.mu.Lock()
	if s.lastError == nil {
		s.mu.Unlock()
		return
	}
	s.lastError = nil
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Reset : 새 deployment 범위로 바꾸고 모든 시리즈를 비운다. 새 epoch 반환
func (s *Store) Reset(deploymentID string) uint64 {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.deploymentID = deploymentID
	s.candles = nil
	s.indicators = map[string]float64{}
	s.history = nil
	s.position = nil
	s.signals = nil
	s.lastError = nil
	s.latency = 0
	s.hasLatency = false
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Infof("[Store] reset for deployment %q", deploymentID)
	s.notify(snap)
	return epoch
}

// Epoch : 마지막 Reset 세대
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// SetLimits : 다음 삽입부터 적용되고, 이미 넘친 시리즈는 바로 잘라낸다
func (s *Store) SetLimits(limits Limits) {
	s.mu.Lock()
	s.limits = limits.normalized()
	s.candles = model.TrimOldest(s.candles, s.limits.MaxCandles)
	s.history = model.TrimOldest(s.history, s.limits.MaxIndicators)
	if len(s.signals) > s.limits.MaxSignals {
		s.signals = s.signals[:s.limits.MaxSignals]
	}
	s.mu.Unlock()
}

func (s *Store) Limits() Limits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

func (s *Store) DeploymentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deploymentID
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		DeploymentID:     s.deploymentID,
		Revision:         s.revision,
		Candles:          slices.Clone(s.candles),
		Indicators:       lo.Assign(s.indicators),
		IndicatorHistory: lo.Map(s.history, func(h model.IndicatorSnapshot, _ int) model.IndicatorSnapshot {
			return model.IndicatorSnapshot{T: h.T, Values: lo.Assign(h.Values)}
		}),
		Position:   clonePosition(s.position),
		Signals:    slices.Clone(s.signals),
		Latency:    s.latency,
		HasLatency: s.hasLatency,
	}
	if s.lastError != nil {
		e := *s.lastError
		snap.Error = &e
	}
	return snap
}

// Subscribe : 상태가 바뀔 때마다 fn 호출. 반환된 함수로 해제
func (s *Store) Subscribe(fn Listener) func() {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.listenerMu.Lock()
	fns := lo.Values(s.listeners)
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func clonePosition(p *model.Position) *model.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
