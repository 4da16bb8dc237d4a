package model

type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Position : 배포(deployment)의 현재 포지션. 포지션이 없으면 nil로 다룬다
type Position struct {
	Symbol        string       `json:"symbol"`
	Side          PositionSide `json:"side"`
	Size          float64      `json:"size"`
	EntryPrice    float64      `json:"entry_price"`
	MarkPrice     float64      `json:"mark_price,omitempty"`
	UnrealizedPnL float64      `json:"unrealized_pnl,omitempty"`
	OpenedAt      int64        `json:"opened_at,omitempty"`
}
