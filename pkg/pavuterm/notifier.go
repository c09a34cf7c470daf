package pavuterm

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Notifier provides a generic interface for sending desktop notifications
type Notifier interface {
	Notify(title string, message string)
}

// DesktopNotifier sends notifications through the desktop's notification service. It is
// switched on and off by the desktop_notifications setting.
type DesktopNotifier struct {
	logger  *zap.SugaredLogger
	enabled atomic.Bool
	notify  func(title, message string) error
}

func NewDesktopNotifier(logger *zap.SugaredLogger) (*DesktopNotifier, error) {
	logger = logger.Named("notifier")

	tn := &DesktopNotifier{
		logger: logger,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}

	logger.Debug("Created desktop notifier instance")

	return tn, nil
}

func (tn *DesktopNotifier) SetEnabled(enabled bool) {
	tn.enabled.Store(enabled)
}

// Notify sends a notification, or only logs it while notifications are disabled
func (tn *DesktopNotifier) Notify(title string, message string) {
	if !tn.enabled.Load() {
		tn.logger.Debugw("Notifications disabled, not sending", "title", title, "message", message)
		return
	}

	tn.logger.Infow("Sending desktop notification", "title", title, "message", message)

	if err := tn.notify(title, message); err != nil {
		tn.logger.Errorw("Failed to send desktop notification", "error", err)
	}
}
