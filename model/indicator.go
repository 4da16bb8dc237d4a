package model

// IndicatorSnapshot : 특정 봉 시각(T)의 지표 이름 => 값
type IndicatorSnapshot struct {
	T      int64              `json:"t"`
	Values map[string]float64 `json:"values"`
}

func (s IndicatorSnapshot) Key() int64 {
	return s.T
}

// Column : 히스토리에서 name 지표만 뽑아 차트용 시리즈로 만든다
// 해당 시점에 값이 없으면 ok=false 인 자리로 표시된다
func Column(history []IndicatorSnapshot, name string) (Series[float64], []bool) {
	values := make(Series[float64], len(history))
	present := make([]bool, len(history))
	for i, snap := range history {
		v, ok := snap.Values[name]
		values[i] = v
		present[i] = ok
	}
	return values, present
}

// AlignTo : 봉마다 같은 T의 스냅샷 하나씩 (없으면 빈 스냅샷)
func AlignTo(candles []Candle, history []IndicatorSnapshot) []IndicatorSnapshot {
	byT := make(map[int64]map[string]float64, len(history))
	for _, snap := range history {
		byT[snap.T] = snap.Values
	}
	aligned := make([]IndicatorSnapshot, len(candles))
	for i, c := range candles {
		aligned[i] = IndicatorSnapshot{T: c.T, Values: byT[c.T]}
	}
	return aligned
}
