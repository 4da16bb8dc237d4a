package mocks

import "sync"

// MockNotifier : 전송된 메시지를 기록만 한다
type MockNotifier struct {
	mu       sync.Mutex
	Err      error
	messages []string
}

func (m *MockNotifier) SendNotification(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return m.Err
}

func (m *MockNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}
