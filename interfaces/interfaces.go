package interfaces

import "dashstream/dashboard"

type Notifier interface {
	SendNotification(message string) error
}

// ViewSource : 최신 대시보드 View 제공자 (dashboard.Dashboard)
type ViewSource interface {
	Snapshot() dashboard.View
}
