package scheduler

import (
	"context"
	"time"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/logger"
)

// RegisterSubscribers wires reminder enqueueing to MeetingScheduled events:
// every meeting with a future start gets a reminder task at start minus the
// configured lead time. Re-scheduling publishes again; the newest task wins
// because the handler re-reads nothing and reminder delivery is best-effort.
func RegisterSubscribers(bus events.Bus, client ReminderScheduler, leadTime time.Duration, log *logger.Logger) {
	if bus == nil || client == nil {
		return
	}

	bus.Subscribe(events.MeetingScheduled{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			meeting, ok := event.(events.MeetingScheduled)
			if !ok {
				return nil
			}

			runAt := meeting.StartsAt.Add(-leadTime)
			if runAt.Before(time.Now()) {
				runAt = time.Now()
			}

			payload := MeetingReminderPayload{
				SourceID: meeting.SourceID.String(),
				OwnerID:  meeting.OwnerID.String(),
				Title:    meeting.Title,
				StartsAt: meeting.StartsAt,
			}
			if meeting.ContactID != nil {
				payload.ContactID = meeting.ContactID.String()
			}

			if err := client.ScheduleMeetingReminder(ctx, payload, runAt); err != nil {
				if log != nil {
					log.Error("failed to schedule meeting reminder", "source_id", payload.SourceID, "error", err)
				}
				return err
			}
			return nil
		},
	))
}
