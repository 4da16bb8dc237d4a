package message

import (
	"time"

	"dashstream/model"
)

// Type : envelope의 "type" 판별자
type Type string

const (
	TypeCandle     Type = "dashboard.candle"
	TypeIndicators Type = "dashboard.indicators"
	TypePosition   Type = "dashboard.position"
	TypeSignal     Type = "dashboard.signal"
	TypeError      Type = "dashboard.error"
)

// Message : 디코딩된 스트림 메시지 (닫힌 집합)
type Message interface {
	Type() Type
	DeploymentID() string
	// Timestamp : 서버 송신 시각. 없으면 ok=false
	Timestamp() (time.Time, bool)
}

// Envelope : 모든 메시지 공통 헤더
type Envelope struct {
	Kind       Type
	Deployment string
	SentAt     time.Time
}

func (e Envelope) Type() Type           { return e.Kind }
func (e Envelope) DeploymentID() string { return e.Deployment }

func (e Envelope) Timestamp() (time.Time, bool) {
	return e.SentAt, !e.SentAt.IsZero()
}

type CandleUpdate struct {
	Envelope
	Candle model.Candle
}

type IndicatorUpdate struct {
	Envelope
	Snapshot model.IndicatorSnapshot
}

// PositionUpdate : Position == nil 이면 포지션 없음(flat)
type PositionUpdate struct {
	Envelope
	Position *model.Position
}

type SignalEvent struct {
	Envelope
	Signal model.Signal
}

type ErrorNotice struct {
	Envelope
	Error model.DashboardError
}
