package model

import (
	"fmt"
	"time"
)

// Signal : 전략 엔진이 내보낸 진입/청산 등 이벤트
type Signal struct {
	ID     string                 `json:"id,omitempty"`
	T      int64                  `json:"t"`
	Action string                 `json:"action"`
	Symbol string                 `json:"symbol,omitempty"`
	Price  float64                `json:"price,omitempty"`
	Reason string                 `json:"reason,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// Key : 중복 판별용 키. id가 없으면 (시각, 동작, 심볼) 조합
func (s Signal) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("%d-%s-%s", s.T, s.Action, s.Symbol)
}

func (s Signal) Time() time.Time {
	return time.UnixMilli(s.T)
}

// DashboardError : 스트림이 보고한 마지막 애플리케이션 에러
type DashboardError struct {
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

func (e DashboardError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}
