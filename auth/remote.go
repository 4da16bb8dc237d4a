package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dashstream/utils/resty"
)

var ErrTokenEndpoint = errors.New("token endpoint failed")

// RemoteTokenProvider : 백엔드 토큰 발급 엔드포인트(GET)에서 토큰을 받아온다
// 응답 형식 {"token": "..."} 또는 {"access_token": "..."}
type RemoteTokenProvider struct {
	url    string
	apiKey string
	client resty.RestyClient
}

func NewRemoteTokenProvider(url, apiKey string, client resty.RestyClient) *RemoteTokenProvider {
	return &RemoteTokenProvider{url: url, apiKey: apiKey, client: client}
}

func (p *RemoteTokenProvider) Token(ctx context.Context) (string, error) {
	header := map[string]string{}
	if p.apiKey != "" {
		header["Authorization"] = "Bearer " + p.apiKey
	}

	resp, err := p.client.MakeRequest(ctx, nil, header).Get(p.url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenEndpoint, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusNotFound {
		// 로그인 안 된 상태 => 토큰 없음
		return "", nil
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d, %s", ErrTokenEndpoint, resp.StatusCode(), resp.String())
	}

	var body struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: parse: %v", ErrTokenEndpoint, err)
	}
	if body.Token != "" {
		return body.Token, nil
	}
	return body.AccessToken, nil
}
