// Package monitor : 대시보드 스트림 + 미리보기 서버 + 알림을 묶어서 구동
package monitor

import (
	"fmt"

	"dashstream/auth"
	"dashstream/config"
	"dashstream/consumer"
	"dashstream/dashboard"
	"dashstream/feed"
	"dashstream/interfaces"
	"dashstream/notification"
	"dashstream/stream"
	"dashstream/utils/log"
	"dashstream/utils/resty"
	"dashstream/webserver"
)

// Monitor : 전체 흐름
//
//	stream.Client => store.Store => dashboard.View => feed => (webserver SSE, telegram)
type Monitor struct {
	cfg       *config.Config
	dashboard *dashboard.Dashboard
	viewFeed  *feed.ViewFeedSubscription
	web       *webserver.WebServer
	notifier  interfaces.Notifier

	unsubscribe func()
	serverErr   <-chan error
}

type Option func(*monitorOptions)

type monitorOptions struct {
	dialer   stream.Dialer
	tokens   auth.TokenProvider
	notifier interfaces.Notifier
}

// WithDialer : transport 교체 (테스트)
func WithDialer(dialer stream.Dialer) Option {
	return func(o *monitorOptions) { o.dialer = dialer }
}

func WithTokenProvider(tokens auth.TokenProvider) Option {
	return func(o *monitorOptions) { o.tokens = tokens }
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(o *monitorOptions) { o.notifier = notifier }
}

// NewMonitor : cfg는 Load/Validate 된 상태여야 한다
func NewMonitor(cfg *config.Config, options ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create monitor: %w", err)
	}

	o := monitorOptions{}
	for _, opt := range options {
		opt(&o)
	}
	if o.tokens == nil {
		o.tokens = TokenProviderFromConfig(cfg)
	}
	if o.notifier == nil && cfg.TelegramEnabled() {
		o.notifier = notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}

	dash := dashboard.New(cfg, o.tokens, o.dialer, dashboard.Options{
		UserID:       cfg.UserID,
		DeploymentID: cfg.DeploymentID,
		Enabled:      true,
	})

	return &Monitor{
		cfg:       cfg,
		dashboard: dash,
		viewFeed:  feed.NewViewFeed(feed.DefaultBufferSize),
		web:       webserver.NewWebServer(dash),
		notifier:  o.notifier,
	}, nil
}

// TokenProviderFromConfig : AUTH_URL(원격 발급) > AUTH_TOKEN(고정) > 토큰 없음
func TokenProviderFromConfig(cfg *config.Config) auth.TokenProvider {
	switch {
	case cfg.AuthURL != "":
		return auth.NewRemoteTokenProvider(cfg.AuthURL, cfg.AuthAPIKey, resty.NewDefaultRestyClient(cfg.HandshakeTimeout))
	case cfg.AuthToken != "":
		return auth.StaticToken(cfg.AuthToken)
	default:
		return nil
	}
}

func (m *Monitor) Dashboard() *dashboard.Dashboard {
	return m.dashboard
}

func (m *Monitor) WebServer() *webserver.WebServer {
	return m.web
}

// Start
//   - feed 구독 (webserver SSE, 알림)
//   - 미리보기 서버 구동 (HTTPAddr가 비어 있으면 생략)
//   - 대시보드 연결
func (m *Monitor) Start() {
	log.Infof("Monitor starting... user=%s deployment=%s", m.cfg.UserID, m.cfg.DeploymentID)

	m.viewFeed.Subscribe("webserver", m.web.Publish)
	if m.notifier != nil {
		m.viewFeed.Subscribe("notification", consumer.NewNotificationConsumer(m.notifier).OnView)
	}
	m.viewFeed.Start()
	m.unsubscribe = m.dashboard.Subscribe(m.viewFeed.Publish)

	if m.cfg.HTTPAddr != "" {
		m.serverErr = m.web.Start(m.cfg.HTTPAddr)
	}

	m.dashboard.Connect()
	log.Infof("Monitor started.")
}

// ServerErr : 미리보기 서버가 죽으면 값이 온다 (서버 없으면 nil)
func (m *Monitor) ServerErr() <-chan error {
	return m.serverErr
}

// Stop : 연결 종료 => feed 정지 => 서버 종료
func (m *Monitor) Stop() {
	log.Infof("Monitor stopping...")

	m.dashboard.Close()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.viewFeed.Stop()

	if m.serverErr != nil {
		if err := m.web.Shutdown(); err != nil {
			log.Errorf("webserver shutdown: %v", err)
		}
	}
	log.Infof("Monitor stopped.")
}
