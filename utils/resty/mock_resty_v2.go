package resty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var ErrMockNotFound = errors.New("mock not found for the requested method and url")

// MockFunc : Method + Path 로 등록되는 가짜 응답
type MockFunc struct {
	Method     string
	Path       string
	ResultBody func(header map[string]string, requestBody any, param ...QueryParam) (MockFuncResponse, error)
}

type MockFuncResponse struct {
	StatusCode int
	Header     http.Header
	Body       any
}

type mockRestyClient struct {
	mocks map[string]map[string]MockFunc
}

type mockReadyRestyReq struct {
	mocks  map[string]map[string]MockFunc
	body   any
	header map[string]string
}

func (client *mockRestyClient) MakeRequest(ctx context.Context, body any, header map[string]string) ReadyRestyReq {
	return &mockReadyRestyReq{mocks: client.mocks, header: header, body: body}
}

func (m *mockReadyRestyReq) Get(url string, queryParams ...QueryParam) (*resty.Response, error) {
	return m.call(http.MethodGet, url, queryParams...)
}

func (m *mockReadyRestyReq) Post(url string, queryParams ...QueryParam) (*resty.Response, error) {
	return m.call(http.MethodPost, url, queryParams...)
}

func (m *mockReadyRestyReq) call(method, url string, queryParams ...QueryParam) (*resty.Response, error) {
	mockFunc, ok := m.mocks[method][url]
	if !ok {
		return nil, ErrMockNotFound
	}
	resultBody, givenError := mockFunc.ResultBody(m.header, m.body, queryParams...)
	resultResponse, createErr := CreateMockResponse(resultBody, givenError)
	if createErr != nil {
		return nil, createErr
	}
	return resultResponse, givenError
}

func CreateMockResponse(given MockFuncResponse, givenError error) (*resty.Response, error) {
	request := &resty.Request{}
	request.Error = givenError

	byteGivenBody, marshalErr := json.Marshal(given.Body)
	if marshalErr != nil {
		return nil, marshalErr
	}

	statusCode := given.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rawResponse := &http.Response{
		Status:     http.StatusText(statusCode),
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader(byteGivenBody)),
		Header:     given.Header,
	}
	restyResp := &resty.Response{
		RawResponse: rawResponse,
		Request:     request,
	}
	restyResp.SetBody(byteGivenBody)
	return restyResp, nil
}
