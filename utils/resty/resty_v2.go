package resty

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient : 외부 REST 협력자(토큰 발급, 알림)를 호출하는 최소 인터페이스
type RestyClient interface {
	MakeRequest(ctx context.Context, body any, header map[string]string) ReadyRestyReq
}

type ReadyRestyReq interface {
	Get(url string, queryParams ...QueryParam) (*resty.Response, error)
	Post(url string, queryParams ...QueryParam) (*resty.Response, error)
}

type QueryParam struct {
	Key   string
	Value any
}

// NewDefaultRestyClient : retry 0, timeout 기본 10초
func NewDefaultRestyClient(timeout ...time.Duration) RestyClient {
	return NewDefaultRestyClientWithRetryCount(0, timeout...)
}

func NewDefaultRestyClientWithRetryCount(retryCount int, timeout ...time.Duration) RestyClient {
	client := &defaultRestyClient{}
	client.setupClient(retryCount, timeout...)
	return client
}

func NewMockRestyClient(mockFuncs []MockFunc) RestyClient {
	mocks := make(map[string]map[string]MockFunc)
	for _, mockFunc := range mockFuncs {
		if _, ok := mocks[mockFunc.Method]; !ok {
			mocks[mockFunc.Method] = make(map[string]MockFunc)
		}
		mocks[mockFunc.Method][mockFunc.Path] = mockFunc
	}
	return &mockRestyClient{mocks: mocks}
}
