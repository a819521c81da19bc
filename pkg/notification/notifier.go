package notification

// NotificationSystem represents a delivery channel (e.g., email).
type NotificationSystem string

// NoticeType identifies a kind of security notice sent to account holders.
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	TwoFactorEnabledNotice  NoticeType = "two_factor_enabled"
	TwoFactorDisabledNotice NoticeType = "two_factor_disabled"
	PasswordChangedNotice   NoticeType = "password_changed"
)

// NoticeTemplate holds the rendered bodies for a notice
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// NotificationData carries the recipient and template data for one notice
type NotificationData struct {
	To   string
	Data map[string]string
}

// Notifier delivers a notice over one channel
type Notifier interface {
	Send(notice NoticeType, notification NotificationData, tmpl NoticeTemplate) error
}
