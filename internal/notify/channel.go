// Package notify delivers dose reminders over email and chat.
package notify

import (
	"context"
	"fmt"

	"github.com/gmsas95/medtrack/internal/medication"
)

const reminderSubject = "Medicine Reminder 💊"

// Message is a rendered reminder.
type Message struct {
	Subject string
	Body    string
}

// Channel sends a message to a contact address on one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, contact string, msg Message) error
}

// FormatReminder renders the reminder text for one dose of s.
func FormatReminder(s *medication.Schedule) Message {
	return Message{
		Subject: reminderSubject,
		Body:    fmt.Sprintf("Hello! It's time to take your medicine: %s (%s).", s.MedicineName, s.Dosage),
	}
}

// runWithContext runs send and returns early when ctx ends first. The send
// itself keeps running until its transport gives up.
func runWithContext(ctx context.Context, send func() error) error {
	done := make(chan error, 1)
	go func() { done <- send() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
