package consumer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dashstream/dashboard"
	"dashstream/mocks"
	"dashstream/model"
)

func sig(id string) model.Signal {
	return model.Signal{ID: id, Action: "buy", Symbol: "BTCUSDT"}
}

func TestNotificationConsumer_SignalsOncePerKey(t *testing.T) {
	notifier := &mocks.MockNotifier{}
	c := NewNotificationConsumer(notifier)

	c.OnView(dashboard.View{DeploymentID: "A"})
	require.Empty(t, notifier.Messages())

	c.OnView(dashboard.View{DeploymentID: "A", Signals: []model.Signal{sig("s1")}})
	c.OnView(dashboard.View{DeploymentID: "A", Signals: []model.Signal{sig("s1")}})
	require.Len(t, notifier.Messages(), 1)

	// 두 개가 한 번에 쌓인 경우 오래된 것부터
	signals := []model.Signal{
		{ID: "s3", Action: "sell"},
		{ID: "s2", Action: "buy", Reason: "second"},
		sig("s1"),
	}
	c.OnView(dashboard.View{DeploymentID: "A", Signals: signals})
	msgs := notifier.Messages()
	require.Len(t, msgs, 3)
	require.Contains(t, msgs[1], "second")
	require.Contains(t, msgs[2], "매도")
}

func TestNotificationConsumer_ScopeChangeResets(t *testing.T) {
	notifier := &mocks.MockNotifier{}
	c := NewNotificationConsumer(notifier)

	c.OnView(dashboard.View{DeploymentID: "A", Signals: []model.Signal{sig("s1")}})
	c.OnView(dashboard.View{DeploymentID: "B", Signals: []model.Signal{sig("s1")}})
	msgs := notifier.Messages()
	require.Len(t, msgs, 2)
	require.Contains(t, msgs[1], "배포: B")
}

func TestNotificationConsumer_Errors(t *testing.T) {
	notifier := &mocks.MockNotifier{Err: errors.New("telegram down")}
	c := NewNotificationConsumer(notifier)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dashErr := &model.DashboardError{Message: "halted", ReceivedAt: at}

	c.OnView(dashboard.View{DeploymentID: "A", Error: dashErr})
	c.OnView(dashboard.View{DeploymentID: "A", Error: dashErr})
	require.Len(t, notifier.Messages(), 1)

	c.OnView(dashboard.View{DeploymentID: "A"})
	c.OnView(dashboard.View{DeploymentID: "A", Error: &model.DashboardError{Message: "halted", ReceivedAt: at.Add(time.Second)}})
	require.Len(t, notifier.Messages(), 2)
}
