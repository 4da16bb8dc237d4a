package chartview

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"dashstream/dashboard"
	"dashstream/model"
)

func TestIndicatorNames_FirstSeenOrder(t *testing.T) {
	history := []model.IndicatorSnapshot{
		{T: 1, Values: map[string]float64{"rsi": 50, "ema": 1}},
		{T: 2, Values: map[string]float64{"macd": 0.1, "ema": 2}},
		{T: 3, Values: map[string]float64{"rsi": 55}},
	}
	require.Equal(t, []string{"ema", "rsi", "macd"}, IndicatorNames(history))
	require.Empty(t, IndicatorNames(nil))
}

func TestRender(t *testing.T) {
	view := dashboard.View{
		DeploymentID: "dep-1",
		Status:       model.ConnectionState{Status: model.StatusConnected},
		Candles: []model.Candle{
			{T: 1700000000000, Open: 1, High: 3, Low: 1, Close: 2},
			{T: 1700000060000, Open: 2, High: 4, Low: 2, Close: 3},
		},
		IndicatorHistory: []model.IndicatorSnapshot{
			{T: 1700000060000, Values: map[string]float64{"ema8": 2.5}},
		},
		Signals: []model.Signal{{ID: "s1", T: 1700000060000, Action: "buy", Price: 3}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, view))
	html := buf.String()
	require.Contains(t, html, "Dashboard dep-1")
	require.Contains(t, html, "ema8")
	require.Contains(t, html, "Signals")
	require.Contains(t, html, "status=connected")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, dashboard.View{}))
	require.Contains(t, buf.String(), "Candle Chart")
}

func TestLineData_AlignedToCandles(t *testing.T) {
	candles := []model.Candle{{T: 10}, {T: 20}, {T: 30}}
	history := []model.IndicatorSnapshot{
		{T: 20, Values: map[string]float64{"ema8": 2}},
		{T: 30, Values: map[string]float64{"ema8": 3, "rsi": 55}},
	}

	data := lineData(model.Column(model.AlignTo(candles, history), "ema8"))
	require.Len(t, data, 3)
	require.Nil(t, data[0].Value)
	require.Equal(t, 2.0, data[1].Value)
	require.Equal(t, 3.0, data[2].Value)

	rsi := lineData(model.Column(model.AlignTo(candles, history), "rsi"))
	require.Nil(t, rsi[1].Value)
	require.Equal(t, 55.0, rsi[2].Value)
}
