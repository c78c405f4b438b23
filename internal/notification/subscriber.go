package notification

import (
	"context"

	"crm_pipeline_backend/internal/contacts/domain"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/config"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// ContactReader resolves the contact a notification is about.
type ContactReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error)
}

// Subscribers routes domain events to the sender. Delivery failures are
// logged, never propagated into the publishing transaction.
type Subscribers struct {
	sender     Sender
	contacts   ContactReader
	notifyAddr string
	log        *logger.Logger
}

// NewSubscribers creates the notification event subscribers.
func NewSubscribers(sender Sender, contacts ContactReader, cfg config.EmailConfig, log *logger.Logger) *Subscribers {
	return &Subscribers{
		sender:     sender,
		contacts:   contacts,
		notifyAddr: cfg.GetEmailNotifyAddress(),
		log:        log,
	}
}

// Register subscribes to the events the notification module cares about.
func (s *Subscribers) Register(bus events.Bus) {
	bus.Subscribe(events.ContactAssigned{}.EventName(), events.HandlerFunc(s.onContactAssigned))
	bus.Subscribe(events.MeetingReminderDue{}.EventName(), events.HandlerFunc(s.onMeetingReminderDue))
}

func (s *Subscribers) onContactAssigned(ctx context.Context, event events.Event) error {
	assigned, ok := event.(events.ContactAssigned)
	if !ok || s.notifyAddr == "" {
		return nil
	}

	contact, err := s.contacts.GetByID(ctx, assigned.ContactID)
	if err != nil {
		s.log.Error("assignment notification: contact lookup failed", "contact_id", assigned.ContactID, "error", err)
		return nil
	}

	if err := s.sender.SendContactAssigned(ctx, s.notifyAddr, contact.FullName()); err != nil {
		s.log.Error("assignment notification failed", "contact_id", assigned.ContactID, "error", err)
	}
	return nil
}

func (s *Subscribers) onMeetingReminderDue(ctx context.Context, event events.Event) error {
	due, ok := event.(events.MeetingReminderDue)
	if !ok {
		return nil
	}

	recipients := make([]string, 0, 2)
	if s.notifyAddr != "" {
		recipients = append(recipients, s.notifyAddr)
	}
	if due.ContactID != nil {
		contact, err := s.contacts.GetByID(ctx, *due.ContactID)
		if err != nil {
			s.log.Error("meeting reminder: contact lookup failed", "contact_id", *due.ContactID, "error", err)
		} else if contact.Email != "" {
			recipients = append(recipients, contact.Email)
		}
	}

	for _, to := range recipients {
		if err := s.sender.SendMeetingReminder(ctx, to, due.Title, due.StartsAt); err != nil {
			s.log.Error("meeting reminder delivery failed", "to", to, "source_id", due.SourceID, "error", err)
		}
	}
	return nil
}
