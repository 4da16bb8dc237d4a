package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecode_Candle(t *testing.T) {
	frame := []byte(`{"type":"dashboard.candle","deployment_id":"dep-1","timestamp":1700000000500,
		"data":{"t":1700000000000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}}`)

	msg, err := Decode(frame)
	require.NoError(t, err)

	candle, ok := msg.(CandleUpdate)
	require.True(t, ok)
	require.Equal(t, TypeCandle, candle.Type())
	require.Equal(t, "dep-1", candle.DeploymentID())
	require.Equal(t, int64(1700000000000), candle.Candle.T)
	require.Equal(t, 1.5, candle.Candle.Close)
	require.Equal(t, 10.0, candle.Candle.Volume)

	ts, ok := candle.Timestamp()
	require.True(t, ok)
	require.Equal(t, int64(1700000000500), ts.UnixMilli())
}

func TestDecode_TopLevelFields(t *testing.T) {
	frame := []byte(`{"type":"dashboard.candle","deployment_id":"dep-1","t":100,"open":1,"high":1,"low":1,"close":1,"volume":0}`)

	msg, err := Decode(frame)
	require.NoError(t, err)
	require.Equal(t, int64(100), msg.(CandleUpdate).Candle.T)

	_, ok := msg.Timestamp()
	require.False(t, ok)
}

func TestDecode_Indicators(t *testing.T) {
	frame := []byte(`{"type":"dashboard.indicators","deployment_id":"dep-1","data":{"t":100,"values":{"ema8":10.5,"rsi":61}}}`)

	msg, err := Decode(frame)
	require.NoError(t, err)

	update := msg.(IndicatorUpdate)
	require.Equal(t, int64(100), update.Snapshot.T)
	require.Equal(t, map[string]float64{"ema8": 10.5, "rsi": 61}, update.Snapshot.Values)
}

func TestDecode_Position(t *testing.T) {
	frame := []byte(`{"type":"dashboard.position","deployment_id":"dep-1",
		"data":{"position":{"symbol":"BTCUSDT","side":"long","size":0.5,"entry_price":42000}}}`)

	msg, err := Decode(frame)
	require.NoError(t, err)

	update := msg.(PositionUpdate)
	require.NotNil(t, update.Position)
	require.Equal(t, "BTCUSDT", update.Position.Symbol)
	require.Equal(t, 42000.0, update.Position.EntryPrice)

	flat, err := Decode([]byte(`{"type":"dashboard.position","deployment_id":"dep-1","data":{"position":null}}`))
	require.NoError(t, err)
	require.Nil(t, flat.(PositionUpdate).Position)

	// position 래퍼 없이 data에 바로 필드가 오는 경우
	bare, err := Decode([]byte(`{"type":"dashboard.position","deployment_id":"dep-1","data":{"symbol":"ETHUSDT","side":"short","size":2}}`))
	require.NoError(t, err)
	require.Equal(t, "ETHUSDT", bare.(PositionUpdate).Position.Symbol)
}

func TestDecode_Signal(t *testing.T) {
	frame := []byte(`{"type":"dashboard.signal","deployment_id":"dep-1","timestamp":"2024-01-02T03:04:05Z",
		"data":{"id":"sig-1","action":"buy","symbol":"BTCUSDT","price":42000,"reason":"ema cross"}}`)

	msg, err := Decode(frame)
	require.NoError(t, err)

	sig := msg.(SignalEvent).Signal
	require.Equal(t, "sig-1", sig.ID)
	require.Equal(t, "buy", sig.Action)
	// t가 없으면 envelope timestamp로 채운다
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(), sig.T)
}

func TestDecode_Error(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"dashboard.error","deployment_id":"dep-1","data":{"code":"ENGINE_DOWN","message":"engine restarting"}}`))
	require.NoError(t, err)

	notice := msg.(ErrorNotice)
	require.Equal(t, "ENGINE_DOWN", notice.Error.Code)
	require.Equal(t, "ENGINE_DOWN: engine restarting", notice.Error.Error())

	msg, err = Decode([]byte(`{"type":"dashboard.error","deployment_id":"dep-1","error":"boom"}`))
	require.NoError(t, err)
	require.Equal(t, "boom", msg.(ErrorNotice).Error.Message)
	require.True(t, msg.(ErrorNotice).Error.ReceivedAt.IsZero())
}

func TestDecode_ErrorReceivedAt(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"dashboard.error","deployment_id":"dep-1","data":{"message":"x","received_at":1700000000000}}`))
	require.NoError(t, err)
	require.Equal(t, int64(1700000000000), msg.(ErrorNotice).Error.ReceivedAt.UnixMilli())

	msg, err = Decode([]byte(`{"type":"dashboard.error","deployment_id":"dep-1","data":{"message":"x","received_at":"2024-01-02T03:04:05Z"}}`))
	require.NoError(t, err)
	require.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(msg.(ErrorNotice).Error.ReceivedAt))
}

func TestDecode_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  error
	}{
		{"invalid json", `{"type":`, ErrMalformed},
		{"not an object", `[1,2,3]`, ErrMalformed},
		{"missing type", `{"deployment_id":"dep-1"}`, ErrMissingType},
		{"unknown type", `{"type":"dashboard.orderbook","deployment_id":"dep-1"}`, ErrUnknownType},
		{"candle without t", `{"type":"dashboard.candle","data":{"open":1}}`, ErrMalformed},
		{"bad candle field", `{"type":"dashboard.candle","data":{"t":"soon"}}`, ErrMalformed},
		{"bad timestamp", `{"type":"dashboard.candle","timestamp":"yesterday","data":{"t":1}}`, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.frame))
			require.ErrorIs(t, err, tc.want)
			require.Nil(t, msg)
		})
	}
}

func TestFlexTime(t *testing.T) {
	var f FlexTime
	require.NoError(t, f.UnmarshalJSON([]byte(`1700000000`)))
	require.Equal(t, int64(1700000000000), f.UnixMilli())

	require.NoError(t, f.UnmarshalJSON([]byte(`"1700000000123"`)))
	require.Equal(t, int64(1700000000123), f.UnixMilli())

	f = FlexTime{}
	require.NoError(t, f.UnmarshalJSON([]byte(`null`)))
	require.True(t, f.IsZero())
}
