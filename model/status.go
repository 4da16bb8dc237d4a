package model

import "time"

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// ConnectionState : 연결 관리자만 변경하고 facade는 읽기만 한다
type ConnectionState struct {
	Status            ConnectionStatus `json:"status"`
	LastConnectedAt   time.Time        `json:"last_connected_at,omitempty"`
	LastMessageAt     time.Time        `json:"last_message_at,omitempty"`
	ReconnectAttempts int              `json:"reconnect_attempts"`
	LastError         string           `json:"last_error,omitempty"`
}

func (s ConnectionState) IsConnected() bool {
	return s.Status == StatusConnected
}
