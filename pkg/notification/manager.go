package notification

import (
	"fmt"
)

// NotificationManager routes notices to registered channels using
// per-notice templates.
type NotificationManager struct {
	notifiers map[NotificationSystem]Notifier
	registry  map[NoticeType]map[NotificationSystem]NoticeTemplate
}

// NewNotificationManager creates and returns a new NotificationManager
// preloaded with the default notice templates.
func NewNotificationManager() *NotificationManager {
	nm := &NotificationManager{
		notifiers: make(map[NotificationSystem]Notifier),
		registry:  make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}
	registerDefaultTemplates(nm)
	return nm
}

// RegisterNotifier registers a notifier for a delivery channel
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.notifiers[system] = notifier
}

// RegisterNotice adds or replaces the template for a notice on a channel
func (nm *NotificationManager) RegisterNotice(notice NoticeType, system NotificationSystem, tmpl NoticeTemplate) error {
	if notice == "" || system == "" {
		return fmt.Errorf("invalid input: notice type and system cannot be empty")
	}

	if _, exists := nm.registry[notice]; !exists {
		nm.registry[notice] = make(map[NotificationSystem]NoticeTemplate)
	}
	nm.registry[notice][system] = tmpl
	return nil
}

// Send delivers the notice over every channel that has both a template and
// a registered notifier.
func (nm *NotificationManager) Send(notice NoticeType, notification NotificationData) error {
	systemTemplates, exists := nm.registry[notice]
	if !exists {
		return fmt.Errorf("no templates registered for notice type: %s", notice)
	}

	sent := false
	for system, tmpl := range systemTemplates {
		notifier, ok := nm.notifiers[system]
		if !ok {
			continue
		}
		if err := notifier.Send(notice, notification, tmpl); err != nil {
			return fmt.Errorf("failed to send %s notice via %s: %w", notice, system, err)
		}
		sent = true
	}

	if !sent {
		return fmt.Errorf("no notifier registered for notice type: %s", notice)
	}
	return nil
}

func registerDefaultTemplates(nm *NotificationManager) {
	nm.RegisterNotice(TwoFactorEnabledNotice, EmailSystem, NoticeTemplate{
		Subject: "Two-factor authentication enabled",
		Text:    "Hi {{.Username}},\n\nTwo-factor authentication was just enabled on your Trak Library account. If this wasn't you, please reset your password immediately.",
	})
	nm.RegisterNotice(TwoFactorDisabledNotice, EmailSystem, NoticeTemplate{
		Subject: "Two-factor authentication disabled",
		Text:    "Hi {{.Username}},\n\nTwo-factor authentication was just disabled on your Trak Library account. If this wasn't you, please reset your password immediately.",
	})
	nm.RegisterNotice(PasswordChangedNotice, EmailSystem, NoticeTemplate{
		Subject: "Your password was changed",
		Text:    "Hi {{.Username}},\n\nThe password on your Trak Library account was just changed. If this wasn't you, please contact support.",
	})
}
