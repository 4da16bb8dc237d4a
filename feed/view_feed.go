package feed

import (
	"context"
	"sync"

	"dashstream/dashboard"
	"dashstream/utils/log"
)

const DefaultBufferSize = 16

type ViewFeedConsumer func(view dashboard.View)

type viewSubscription struct {
	name     string
	consumer ViewFeedConsumer
	data     chan dashboard.View
	dropped  int
}

// ViewFeedSubscription : 대시보드 View를 구독자별 버퍼 채널로 전달
// 느린 구독자가 스트림을 막지 않도록 버퍼가 차면 가장 오래된 View를 버린다
type ViewFeedSubscription struct {
	bufferSize    int
	subscriptions []*viewSubscription

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// 전체적인 흐름 : New -> Subscribe -> Start -> Publish -> Stop

func NewViewFeed(bufferSize int) *ViewFeedSubscription {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewFeedSubscription{
		bufferSize: bufferSize,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Subscribe : Start 이후에 등록한 구독자는 바로 고루틴이 뜬다
func (f *ViewFeedSubscription) Subscribe(name string, consumer ViewFeedConsumer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &viewSubscription{
		name:     name,
		consumer: consumer,
		data:     make(chan dashboard.View, f.bufferSize),
	}
	f.subscriptions = append(f.subscriptions, sub)
	if f.started {
		f.run(sub)
	}
}

// Publish : 절대 블록하지 않는다
func (f *ViewFeedSubscription) Publish(view dashboard.View) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ctx.Err() != nil {
		return
	}
	for _, sub := range f.subscriptions {
		for {
			select {
			case sub.data <- view:
			default:
				// 버퍼 가득 => 가장 오래된 것 하나 버리고 재시도
				select {
				case <-sub.data:
					sub.dropped++
					if sub.dropped%100 == 1 {
						log.Warnf("[ViewFeed] %s is slow, dropped %d views", sub.name, sub.dropped)
					}
				default:
				}
				continue
			}
			break
		}
	}
}

func (f *ViewFeedSubscription) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return
	}
	f.started = true
	for _, sub := range f.subscriptions {
		f.run(sub)
	}
}

func (f *ViewFeedSubscription) run(sub *viewSubscription) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-f.ctx.Done():
				return
			case view := <-sub.data:
				sub.consumer(view)
			}
		}
	}()
}

// Stop : 진행 중인 consumer 호출이 끝날 때까지 기다린다
func (f *ViewFeedSubscription) Stop() {
	f.cancel()
	f.wg.Wait()
}
