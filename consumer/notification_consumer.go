package consumer

import (
	"fmt"
	"sync"

	"dashstream/dashboard"
	"dashstream/interfaces"
	"dashstream/model"
	"dashstream/notification"
	"dashstream/utils/log"
)

// NotificationConsumer : View 스트림에서 새 신호/새 에러만 골라 알림을 보낸다
// 같은 View가 여러 번 와도(상태 변경 등) 마지막으로 본 키 이후만 전송
type NotificationConsumer struct {
	notifier interfaces.Notifier

	mu            sync.Mutex
	deploymentID  string
	lastSignalKey string
	lastErrorKey  string
}

func NewNotificationConsumer(notifier interfaces.Notifier) *NotificationConsumer {
	return &NotificationConsumer{notifier: notifier}
}

func (c *NotificationConsumer) OnView(view dashboard.View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if view.DeploymentID != c.deploymentID {
		// 범위가 바뀌면 이전 deployment 기준 키는 의미 없음
		c.deploymentID = view.DeploymentID
		c.lastSignalKey = ""
		c.lastErrorKey = ""
	}

	fresh := newSignals(view.Signals, c.lastSignalKey)
	if len(view.Signals) > 0 {
		c.lastSignalKey = view.Signals[0].Key()
	}
	// 오래된 것부터
	for i := len(fresh) - 1; i >= 0; i-- {
		c.send(notification.FormatSignal(view.DeploymentID, fresh[i]))
	}

	if view.Error != nil {
		key := fmt.Sprintf("%d|%s", view.Error.ReceivedAt.UnixNano(), view.Error.Error())
		if key != c.lastErrorKey {
			c.lastErrorKey = key
			c.send(notification.FormatError(view.DeploymentID, *view.Error))
		}
	}
}

// newSignals : newest-first 목록에서 lastKey 앞쪽만
func newSignals(signals []model.Signal, lastKey string) []model.Signal {
	for i, s := range signals {
		if s.Key() == lastKey {
			return signals[:i]
		}
	}
	return signals
}

func (c *NotificationConsumer) send(message string) {
	if err := c.notifier.SendNotification(message); err != nil {
		log.Errorf("[NotificationConsumer] send failed: %v", err)
	}
}
