package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dashstream/model"
	"dashstream/utils/log"
	"dashstream/utils/resty"
)

const telegramAPI = "https://api.telegram.org"

var ErrTelegram = errors.New("telegram send failed")

type TelegramNotifier struct {
	BotToken string
	ChatID   string

	baseURL string
	client  resty.RestyClient
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return NewTelegramNotifierWithClient(botToken, chatID, resty.NewDefaultRestyClientWithRetryCount(2, 5*time.Second))
}

// NewTelegramNotifierWithClient : 테스트에서 mock resty client 주입용
func NewTelegramNotifierWithClient(botToken, chatID string, client resty.RestyClient) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		baseURL:  telegramAPI,
		client:   client,
	}
}

func (t *TelegramNotifier) sendURL() string {
	return fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.BotToken)
}

func (t *TelegramNotifier) SendNotification(message string) error {
	body := map[string]string{
		"chat_id": t.ChatID,
		"text":    message,
	}
	resp, err := t.client.MakeRequest(context.Background(), body, nil).Post(t.sendURL())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTelegram, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: status %d, %s", ErrTelegram, resp.StatusCode(), resp.String())
	}
	return nil
}

// SignalNotifier : 새 매매 신호 알림
func (t *TelegramNotifier) SignalNotifier(deploymentID string, signal model.Signal) {
	message := FormatSignal(deploymentID, signal)
	if err := t.SendNotification(message); err != nil {
		log.Errorf("[Telegram] 신호 알림 전송 실패: %v", err)
	}
}

// ErrorNotifier : 스트림 에러 배너 알림
func (t *TelegramNotifier) ErrorNotifier(deploymentID string, dashErr model.DashboardError) {
	message := FormatError(deploymentID, dashErr)
	if err := t.SendNotification(message); err != nil {
		log.Errorf("[Telegram] 에러 알림 전송 실패: %v", err)
	}
}

func FormatSignal(deploymentID string, signal model.Signal) string {
	var action string
	switch strings.ToLower(signal.Action) {
	case "buy", "long", "entry":
		action = "매수"
	case "sell", "short", "exit", "close":
		action = "매도"
	default:
		action = signal.Action
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "신호 발생:\n배포: %s\n동작: %s", deploymentID, action)
	if signal.Symbol != "" {
		fmt.Fprintf(&sb, "\n종목: %s", signal.Symbol)
	}
	if signal.Price != 0 {
		fmt.Fprintf(&sb, "\n가격: %.2f", signal.Price)
	}
	if signal.Reason != "" {
		fmt.Fprintf(&sb, "\n사유: %s", signal.Reason)
	}
	return sb.String()
}

func FormatError(deploymentID string, dashErr model.DashboardError) string {
	return fmt.Sprintf("스트림 에러:\n배포: %s\n오류: %s", deploymentID, dashErr.Error())
}
