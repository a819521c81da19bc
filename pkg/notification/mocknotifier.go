package notification

// MockNotifier records notices instead of delivering them. Used in tests and
// as the fallback channel when SMTP is not configured.
type MockNotifier struct {
	SentNotifications []NotificationData
}

func (m *MockNotifier) Send(notice NoticeType, notification NotificationData, tmpl NoticeTemplate) error {
	m.SentNotifications = append(m.SentNotifications, notification)
	return nil
}
