package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// epoch 값이 이보다 작으면 초 단위로 본다 (1e11 ms ~ 1973년)
const secondsThreshold = 1e11

// FlexTime : epoch(ms 또는 s) 숫자나 RFC3339 문자열을 모두 받는 시각
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.Time = fromEpoch(n)
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		f.Time = t
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", b, err)
	}
	f.Time = fromEpoch(n)
	return nil
}

func fromEpoch(n float64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n < secondsThreshold {
		return time.UnixMilli(int64(n * 1000))
	}
	return time.UnixMilli(int64(n))
}
