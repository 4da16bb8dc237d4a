// Package config : 프로세스 시작 시 한 번 Load 해서 생성자로 넘기는 설정 객체
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"dashstream/utils/log"
)

const envPrefix = "DASHSTREAM_"

const (
	DefaultReconnectDelay   = 3 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultMaxCandles       = 500
	DefaultMaxSignals       = 50
	DefaultHTTPAddr         = ":8080"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Stream
	WSBaseURL        string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration

	// Bounds
	MaxCandles    int
	MaxSignals    int
	MaxIndicators int

	// Scope
	UserID       string
	DeploymentID string

	// Auth
	AuthToken  string
	AuthURL    string
	AuthAPIKey string

	// Logging / debug
	LogLevel string
	Debug    bool

	// Preview server, notifications
	HTTPAddr         string
	TelegramBotToken string
	TelegramChatID   string
}

// Default : 환경변수 없이 쓸 수 있는 기본값
func Default() *Config {
	return &Config{
		ReconnectDelay:   DefaultReconnectDelay,
		HandshakeTimeout: DefaultHandshakeTimeout,
		MaxCandles:       DefaultMaxCandles,
		MaxSignals:       DefaultMaxSignals,
		MaxIndicators:    DefaultMaxCandles,
		LogLevel:         "info",
		HTTPAddr:         DefaultHTTPAddr,
	}
}

// Load : .env(있으면) + 환경변수 => Config
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debugf("[Config] .env not loaded (%v), using process environment", err)
	}

	cfg := Default()
	cfg.WSBaseURL = getString("WS_BASE_URL", "")
	cfg.UserID = getString("USER_ID", "")
	cfg.DeploymentID = getString("DEPLOYMENT_ID", "")
	cfg.AuthToken = getString("AUTH_TOKEN", "")
	cfg.AuthURL = getString("AUTH_URL", "")
	cfg.AuthAPIKey = getString("AUTH_API_KEY", "")
	cfg.LogLevel = getString("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = getString("HTTP_ADDR", cfg.HTTPAddr)
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	var err error
	if cfg.ReconnectDelay, err = getDuration("RECONNECT_DELAY", cfg.ReconnectDelay); err != nil {
		return nil, err
	}
	if cfg.HandshakeTimeout, err = getDuration("HANDSHAKE_TIMEOUT", cfg.HandshakeTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxCandles, err = getInt("MAX_CANDLES", cfg.MaxCandles); err != nil {
		return nil, err
	}
	if cfg.MaxSignals, err = getInt("MAX_SIGNALS", cfg.MaxSignals); err != nil {
		return nil, err
	}
	if cfg.MaxIndicators, err = getInt("MAX_INDICATORS", cfg.MaxCandles); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate : 필수값/범위 검사
func (c *Config) Validate() error {
	if c.WSBaseURL == "" {
		return fmt.Errorf("%w: %sWS_BASE_URL is required", ErrInvalidConfig, envPrefix)
	}
	u, err := url.Parse(c.WSBaseURL)
	if err != nil {
		return fmt.Errorf("%w: ws base url: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: ws base url scheme must be ws or wss, got %q", ErrInvalidConfig, u.Scheme)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: reconnect delay must be greater than 0", ErrInvalidConfig)
	}
	if c.MaxCandles <= 0 || c.MaxSignals <= 0 || c.MaxIndicators <= 0 {
		return fmt.Errorf("%w: series bounds must be greater than 0", ErrInvalidConfig)
	}
	return nil
}

// SetLogLevel : 로그 레벨 변경 후 로거에 즉시 반영
func (c *Config) SetLogLevel(level string) {
	c.LogLevel = level
	c.ApplyLogging()
}

// SetDebug : 디버그 모드 토글
func (c *Config) SetDebug(debug bool) {
	c.Debug = debug
	c.ApplyLogging()
}

func (c *Config) ApplyLogging() {
	log.Configure(c.LogLevel, c.Debug)
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := getString(key, "")
	if raw == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	// 단위 없는 숫자는 밀리초
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, envPrefix, key, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func getInt(key string, def int) (int, error) {
	raw := getString(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, envPrefix, key, raw)
	}
	return v, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := getString(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, envPrefix, key, raw)
	}
	return v, nil
}
