package model

import "time"

// Candle : 구독 중인 심볼/타임프레임의 OHLCV 봉
// T 는 봉 시각(epoch ms)이며 시리즈의 자연키
type Candle struct {
	T      int64   `json:"t"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (c Candle) Key() int64 {
	return c.T
}

// Time : T(epoch ms) => time.Time
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.T)
}
