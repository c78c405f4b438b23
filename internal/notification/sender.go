// Package notification delivers best-effort email for domain events. It sits
// outside the transactional core: a failed send never rolls anything back.
package notification

import (
	"context"
	"time"

	"crm_pipeline_backend/platform/logger"
)

// Sender is the delivery interface. Implementations are responsible for
// transport only; subscribers decide who gets notified about what.
type Sender interface {
	SendMeetingReminder(ctx context.Context, toEmail, title string, startsAt time.Time) error
	SendContactAssigned(ctx context.Context, toEmail, contactName string) error
}

// NoopSender is used when email is disabled. It logs what would have been sent.
type NoopSender struct {
	log *logger.Logger
}

// NewNoopSender creates a sender that only logs.
func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) SendMeetingReminder(ctx context.Context, toEmail, title string, startsAt time.Time) error {
	if s.log != nil {
		s.log.Info("email disabled, skipping meeting reminder", "to", toEmail, "title", title)
	}
	return nil
}

func (s *NoopSender) SendContactAssigned(ctx context.Context, toEmail, contactName string) error {
	if s.log != nil {
		s.log.Info("email disabled, skipping assignment notification", "to", toEmail, "contact", contactName)
	}
	return nil
}
