package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dashstream/dashboard"
)

func TestViewFeed_DeliversInOrder(t *testing.T) {
	f := NewViewFeed(8)

	var mu sync.Mutex
	var got []uint64
	f.Subscribe("recorder", func(v dashboard.View) {
		mu.Lock()
		got = append(got, v.Revision)
		mu.Unlock()
	})
	f.Start()
	defer f.Stop()

	for i := uint64(1); i <= 5; i++ {
		f.Publish(dashboard.View{Revision: i})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, got)
}

func TestViewFeed_SlowConsumerDropsOldest(t *testing.T) {
	f := NewViewFeed(2)
	release := make(chan struct{})
	var mu sync.Mutex
	var got []uint64

	f.Subscribe("slow", func(v dashboard.View) {
		<-release
		mu.Lock()
		got = append(got, v.Revision)
		mu.Unlock()
	})

	// Start 전에는 아무도 읽지 않으므로 버퍼 2개만 남는다
	for i := uint64(1); i <= 10; i++ {
		f.Publish(dashboard.View{Revision: i})
	}
	f.Start()
	close(release)
	defer f.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []uint64{9, 10}, got)
}

func TestViewFeed_LateSubscriberAndStop(t *testing.T) {
	f := NewViewFeed(0)
	f.Start()

	done := make(chan uint64, 1)
	f.Subscribe("late", func(v dashboard.View) { done <- v.Revision })
	f.Publish(dashboard.View{Revision: 7})
	require.Equal(t, uint64(7), <-done)

	f.Stop()
	// Stop 이후 Publish는 무시
	f.Publish(dashboard.View{Revision: 8})
	select {
	case v := <-done:
		t.Fatalf("unexpected delivery %d", v)
	case <-time.After(20 * time.Millisecond):
	}
}
