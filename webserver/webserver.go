package webserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"dashstream/chartview"
	"dashstream/dashboard"
	"dashstream/interfaces"
	fiberhelpers "dashstream/utils/fiberhelper"
	"dashstream/utils/fiberhelper/middleware"
	"dashstream/utils/fiberhelper/response"
	"dashstream/utils/log"
)

const (
	sseBuffer = 50
	ssePing   = 15 * time.Second
)

// WebServer : 대시보드 미리보기 (상태/스냅샷 JSON, 차트, SSE)
type WebServer struct {
	source interfaces.ViewSource
	app    *fiber.App

	sseClients map[chan []byte]bool
	sseMu      sync.Mutex
}

// StatusResponse : /api/status
type StatusResponse struct {
	Status            string  `json:"status"`
	IsConnected       bool    `json:"is_connected"`
	ReconnectAttempts int     `json:"reconnect_attempts"`
	LastError         string  `json:"last_error,omitempty"`
	LastConnectedAt   int64   `json:"last_connected_at,omitempty"`
	LastMessageAt     int64   `json:"last_message_at,omitempty"`
	LatencyMs         *int64  `json:"latency_ms"`
	DeploymentID      string  `json:"deployment_id"`
	Candles           int     `json:"candles"`
	Signals           int     `json:"signals"`
	LastClose         float64 `json:"last_close,omitempty"`
	Error             string  `json:"error,omitempty"`
}

func NewWebServer(source interfaces.ViewSource) *WebServer {
	ws := &WebServer{
		source:     source,
		sseClients: make(map[chan []byte]bool),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          fiberhelpers.DefaultErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(fiberhelpers.NewRecover())
	app.Use(middleware.LogMiddleware("/api/status", "/sse"))

	app.Get("/", ws.indexHandler)
	app.Get("/api/status", ws.statusHandler)
	app.Get("/api/snapshot", ws.snapshotHandler)
	app.Get("/chart", ws.chartHandler)
	app.Get("/sse", ws.sseHandler)

	ws.app = app
	return ws
}

func (ws *WebServer) App() *fiber.App {
	return ws.app
}

// Start : 백그라운드 구동. 에러는 채널로
func (ws *WebServer) Start(addr string) <-chan error {
	log.Infof("[WebServer] Listening on %s (open /chart)", addr)
	return fiberhelpers.ListenAsync(ws.app, addr)
}

func (ws *WebServer) Shutdown() error {
	ws.sseMu.Lock()
	for ch := range ws.sseClients {
		delete(ws.sseClients, ch)
		close(ch)
	}
	ws.sseMu.Unlock()
	return ws.app.Shutdown()
}

func (ws *WebServer) indexHandler(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(`<html><body>
<h2>Dashboard Stream</h2>
<p><a href="/chart">Chart</a> | <a href="/api/status">Status</a> | <a href="/api/snapshot">Snapshot</a></p>
</body></html>`)
}

func (ws *WebServer) statusHandler(c *fiber.Ctx) error {
	return response.Ext{Ctx: c}.Ok(NewStatusResponse(ws.source.Snapshot()))
}

func NewStatusResponse(view dashboard.View) StatusResponse {
	res := StatusResponse{
		Status:            string(view.Status.Status),
		IsConnected:       view.IsConnected,
		ReconnectAttempts: view.Status.ReconnectAttempts,
		LastError:         view.Status.LastError,
		DeploymentID:      view.DeploymentID,
		Candles:           len(view.Candles),
		Signals:           len(view.Signals),
	}
	if !view.Status.LastConnectedAt.IsZero() {
		res.LastConnectedAt = view.Status.LastConnectedAt.UnixMilli()
	}
	if !view.Status.LastMessageAt.IsZero() {
		res.LastMessageAt = view.Status.LastMessageAt.UnixMilli()
	}
	if view.HasLatency {
		ms := view.Latency.Milliseconds()
		res.LatencyMs = &ms
	}
	if n := len(view.Candles); n > 0 {
		res.LastClose = view.Candles[n-1].Close
	}
	if view.Error != nil {
		res.Error = view.Error.Error()
	}
	return res
}

// snapshotHandler : ?candles=N 이면 최근 N개 봉만
func (ws *WebServer) snapshotHandler(c *fiber.Ctx) error {
	view := ws.source.Snapshot()
	if raw := c.Query("candles"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.Ext{Ctx: c}.Error(fmt.Errorf("invalid candles parameter %q", raw))
		}
		if len(view.Candles) > n {
			view.Candles = view.Candles[len(view.Candles)-n:]
		}
	}
	return response.Ext{Ctx: c}.Ok(view)
}

func (ws *WebServer) chartHandler(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := chartview.Render(&buf, ws.source.Snapshot()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// Publish : 새 View => 모든 SSE 클라이언트 (느린 클라이언트는 건너뜀)
func (ws *WebServer) Publish(view dashboard.View) {
	payload, err := json.Marshal(NewStatusResponse(view))
	if err != nil {
		log.Errorf("[WebServer] marshal status: %v", err)
		return
	}

	ws.sseMu.Lock()
	defer ws.sseMu.Unlock()
	for ch := range ws.sseClients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (ws *WebServer) addClient() chan []byte {
	ch := make(chan []byte, sseBuffer)
	ws.sseMu.Lock()
	ws.sseClients[ch] = true
	ws.sseMu.Unlock()
	return ch
}

func (ws *WebServer) removeClient(ch chan []byte) {
	ws.sseMu.Lock()
	defer ws.sseMu.Unlock()
	if ws.sseClients[ch] {
		delete(ws.sseClients, ch)
		close(ch)
	}
}

// sseHandler : /sse, 연결 직후 현재 상태 한 번 + 이후 변경마다
func (ws *WebServer) sseHandler(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	initial, _ := json.Marshal(NewStatusResponse(ws.source.Snapshot()))
	ch := ws.addClient()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(ssePing)
		defer ticker.Stop()
		ws.writeSSE(w, initial, ch, ticker.C)
	}))
	return nil
}

// writeSSE : flush 실패(클라이언트 끊김)하면 반환하고 구독 해제
// 변경이 없어도 ping 주석을 보내서 끊긴 클라이언트를 빨리 정리한다
func (ws *WebServer) writeSSE(w *bufio.Writer, initial []byte, ch chan []byte, ping <-chan time.Time) {
	defer ws.removeClient(ch)

	fmt.Fprintf(w, "data: %s\n\n", initial)
	if err := w.Flush(); err != nil {
		return
	}
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
		case <-ping:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
