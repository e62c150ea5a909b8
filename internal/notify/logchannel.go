package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/security"
)

// LogChannel writes reminders to the log. Used when no transport is configured.
type LogChannel struct {
	name   string
	logger *zap.Logger
}

func NewLogChannel(name string, logger *zap.Logger) *LogChannel {
	return &LogChannel{name: name, logger: logger}
}

func (l *LogChannel) Name() string { return l.name }

func (l *LogChannel) Send(_ context.Context, contact string, msg Message) error {
	l.logger.Info("Reminder (log only)",
		zap.String("channel", l.name),
		zap.String("contact", security.MaskContact(contact)),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
