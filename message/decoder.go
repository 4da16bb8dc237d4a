// Package message : 스트림 프레임 => 타입이 있는 메시지
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"dashstream/model"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrMissingType = errors.New("frame has no type")
	ErrUnknownType = errors.New("unknown message type")
)

type rawEnvelope struct {
	Type         Type            `json:"type"`
	DeploymentID string          `json:"deployment_id"`
	Timestamp    FlexTime        `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
}

type rawCandle struct {
	T      *int64  `json:"t"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type rawIndicators struct {
	T      *int64             `json:"t"`
	Values map[string]float64 `json:"values"`
}

type rawPosition struct {
	Position json.RawMessage `json:"position"`
}

type rawError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Error      string   `json:"error"`
	ReceivedAt FlexTime `json:"received_at"`
}

// Decode : 프레임 하나를 메시지로 변환
// 종류별 필드는 "data" 객체가 있으면 거기서, 없으면 최상위에서 읽는다
func Decode(frame []byte) (Message, error) {
	var env rawEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}

	body := []byte(env.Data)
	if len(body) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		body = frame
	}
	header := Envelope{
		Kind:       env.Type,
		Deployment: env.DeploymentID,
		SentAt:     env.Timestamp.Time,
	}

	switch env.Type {
	case TypeCandle:
		return decodeCandle(header, body)
	case TypeIndicators:
		return decodeIndicators(header, body)
	case TypePosition:
		return decodePosition(header, body)
	case TypeSignal:
		return decodeSignal(header, body)
	case TypeError:
		return decodeError(header, body)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, env.Type)
	}
}

func decodeCandle(header Envelope, body []byte) (Message, error) {
	var raw rawCandle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: candle: %v", ErrMalformed, err)
	}
	if raw.T == nil {
		return nil, fmt.Errorf("%w: candle without t", ErrMalformed)
	}
	return CandleUpdate{
		Envelope: header,
		Candle: model.Candle{
			T:      *raw.T,
			Open:   raw.Open,
			High:   raw.High,
			Low:    raw.Low,
			Close:  raw.Close,
			Volume: raw.Volume,
		},
	}, nil
}

func decodeIndicators(header Envelope, body []byte) (Message, error) {
	var raw rawIndicators
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: indicators: %v", ErrMalformed, err)
	}
	if raw.T == nil {
		return nil, fmt.Errorf("%w: indicators without t", ErrMalformed)
	}
	if raw.Values == nil {
		raw.Values = map[string]float64{}
	}
	return IndicatorUpdate{
		Envelope: header,
		Snapshot: model.IndicatorSnapshot{T: *raw.T, Values: raw.Values},
	}, nil
}

func decodePosition(header Envelope, body []byte) (Message, error) {
	var wrapper rawPosition
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: position: %v", ErrMalformed, err)
	}

	payload := []byte(wrapper.Position)
	if len(payload) == 0 {
		// "position" 키가 없으면 body 자체를 포지션으로 본다
		payload = body
	}
	if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return PositionUpdate{Envelope: header}, nil
	}

	var pos model.Position
	if err := json.Unmarshal(payload, &pos); err != nil {
		return nil, fmt.Errorf("%w: position: %v", ErrMalformed, err)
	}
	if pos.Symbol == "" && pos.Size == 0 {
		return PositionUpdate{Envelope: header}, nil
	}
	return PositionUpdate{Envelope: header, Position: &pos}, nil
}

func decodeSignal(header Envelope, body []byte) (Message, error) {
	var sig model.Signal
	if err := json.Unmarshal(body, &sig); err != nil {
		return nil, fmt.Errorf("%w: signal: %v", ErrMalformed, err)
	}
	if sig.T == 0 && !header.SentAt.IsZero() {
		sig.T = header.SentAt.UnixMilli()
	}
	return SignalEvent{Envelope: header, Signal: sig}, nil
}

func decodeError(header Envelope, body []byte) (Message, error) {
	var raw rawError
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: error: %v", ErrMalformed, err)
	}
	msg := raw.Message
	if msg == "" {
		msg = raw.Error
	}
	if msg == "" {
		msg = "unknown stream error"
	}
	return ErrorNotice{
		Envelope: header,
		// received_at이 없으면 Store가 반영 시각으로 채운다
		Error: model.DashboardError{Code: raw.Code, Message: msg, ReceivedAt: raw.ReceivedAt.Time},
	}, nil
}
