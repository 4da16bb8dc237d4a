package webserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dashstream/dashboard"
	"dashstream/model"
)

type staticSource struct {
	view dashboard.View
}

func (s staticSource) Snapshot() dashboard.View {
	return s.view
}

func sampleView() dashboard.View {
	return dashboard.View{
		DeploymentID: "dep-1",
		Status: model.ConnectionState{
			Status:          model.StatusConnected,
			LastConnectedAt: time.UnixMilli(1700000000000),
		},
		IsConnected: true,
		Latency:     120 * time.Millisecond,
		HasLatency:  true,
		Candles: []model.Candle{
			{T: 1, Close: 10},
			{T: 2, Close: 11},
			{T: 3, Close: 12},
		},
		Signals: []model.Signal{{ID: "s1", Action: "buy"}},
		Error:   &model.DashboardError{Code: "E1", Message: "halted"},
	}
}

func get(t *testing.T, ws *WebServer, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := ws.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestStatusHandler(t *testing.T) {
	ws := NewWebServer(staticSource{view: sampleView()})
	resp, body := get(t, ws, "/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	require.Equal(t, "connected", status.Status)
	require.True(t, status.IsConnected)
	require.NotNil(t, status.LatencyMs)
	require.Equal(t, int64(120), *status.LatencyMs)
	require.Equal(t, int64(1700000000000), status.LastConnectedAt)
	require.Equal(t, 3, status.Candles)
	require.Equal(t, 12.0, status.LastClose)
	require.Equal(t, "E1: halted", status.Error)
}

func TestStatusHandler_NoLatency(t *testing.T) {
	ws := NewWebServer(staticSource{view: dashboard.View{Status: model.ConnectionState{Status: model.StatusDisconnected}}})
	_, body := get(t, ws, "/api/status")
	require.Contains(t, string(body), `"latency_ms":null`)
}

func TestSnapshotHandler(t *testing.T) {
	ws := NewWebServer(staticSource{view: sampleView()})

	resp, body := get(t, ws, "/api/snapshot?candles=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view dashboard.View
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Candles, 2)
	require.Equal(t, int64(2), view.Candles[0].T)
	require.Equal(t, "dep-1", view.DeploymentID)

	resp, body = get(t, ws, "/api/snapshot?candles=abc")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "invalid candles parameter")
}

func TestChartHandler(t *testing.T) {
	ws := NewWebServer(staticSource{view: sampleView()})
	resp, body := get(t, ws, "/chart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	require.Contains(t, string(body), "Candle Chart")
}

func TestNotFound(t *testing.T) {
	ws := NewWebServer(staticSource{})
	resp, body := get(t, ws, "/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, string(body), `"code":"404"`)
}

func TestPublish(t *testing.T) {
	ws := NewWebServer(staticSource{})
	ch := ws.addClient()

	ws.Publish(sampleView())
	select {
	case msg := <-ch:
		require.Contains(t, string(msg), `"status":"connected"`)
	case <-time.After(time.Second):
		t.Fatal("no sse payload")
	}

	ws.removeClient(ch)
	// 해제된 클라이언트에는 보내지 않는다
	ws.Publish(sampleView())
	_, open := <-ch
	require.False(t, open)
}

// clientWriter : fail 이후 모든 write가 실패하는 SSE 클라이언트
type clientWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	failed bool
}

func (c *clientWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return 0, errors.New("broken pipe")
	}
	return c.buf.Write(p)
}

func (c *clientWriter) fail() {
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
}

func (c *clientWriter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (ws *WebServer) clientCount() int {
	ws.sseMu.Lock()
	defer ws.sseMu.Unlock()
	return len(ws.sseClients)
}

func TestWriteSSE_PingDetectsDeadClient(t *testing.T) {
	ws := NewWebServer(staticSource{})
	client := &clientWriter{}
	ch := ws.addClient()
	ping := make(chan time.Time)
	done := make(chan struct{})

	go func() {
		ws.writeSSE(bufio.NewWriter(client), []byte(`{"status":"connecting"}`), ch, ping)
		close(done)
	}()

	ping <- time.Now()
	require.Eventually(t, func() bool {
		return strings.Contains(client.String(), ": ping\n\n")
	}, time.Second, 5*time.Millisecond)
	require.True(t, strings.HasPrefix(client.String(), `data: {"status":"connecting"}`))
	require.Equal(t, 1, ws.clientCount())

	// 변경 없는 상태에서 클라이언트가 끊겨도 다음 ping에서 정리
	client.fail()
	ping <- time.Now()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer did not stop after client went away")
	}
	require.Zero(t, ws.clientCount())
}
