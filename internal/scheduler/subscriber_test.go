package scheduler

import (
	"context"
	"testing"
	"time"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeScheduler struct {
	payloads []MeetingReminderPayload
	runAts   []time.Time
	err      error
}

func (f *fakeScheduler) ScheduleMeetingReminder(ctx context.Context, payload MeetingReminderPayload, runAt time.Time) error {
	f.payloads = append(f.payloads, payload)
	f.runAts = append(f.runAts, runAt)
	return f.err
}

func TestRegisterSubscribers_SchedulesAtLeadTimeBeforeStart(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("test"))
	client := &fakeScheduler{}
	RegisterSubscribers(bus, client, time.Hour, logger.New("test"))

	contactID := uuid.New()
	meeting := events.MeetingScheduled{
		BaseEvent: events.NewBaseEvent(),
		SourceID:  uuid.New(),
		ContactID: &contactID,
		OwnerID:   uuid.New(),
		Title:     "Demo call",
		StartsAt:  time.Now().Add(24 * time.Hour),
	}
	if err := bus.PublishSync(context.Background(), meeting); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(client.payloads) != 1 {
		t.Fatalf("expected one scheduled reminder, got %d", len(client.payloads))
	}

	payload := client.payloads[0]
	if payload.SourceID != meeting.SourceID.String() {
		t.Fatalf("expected source %s, got %s", meeting.SourceID, payload.SourceID)
	}
	if payload.ContactID != contactID.String() {
		t.Fatalf("expected contact %s, got %s", contactID, payload.ContactID)
	}
	if !payload.StartsAt.Equal(meeting.StartsAt) {
		t.Fatalf("expected start %v, got %v", meeting.StartsAt, payload.StartsAt)
	}

	wantRunAt := meeting.StartsAt.Add(-time.Hour)
	if !client.runAts[0].Equal(wantRunAt) {
		t.Fatalf("expected reminder at %v, got %v", wantRunAt, client.runAts[0])
	}
}

func TestRegisterSubscribers_ImminentMeetingClampsToNow(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("test"))
	client := &fakeScheduler{}
	RegisterSubscribers(bus, client, time.Hour, logger.New("test"))

	before := time.Now()
	meeting := events.MeetingScheduled{
		BaseEvent: events.NewBaseEvent(),
		SourceID:  uuid.New(),
		OwnerID:   uuid.New(),
		Title:     "Starting soon",
		StartsAt:  time.Now().Add(10 * time.Minute),
	}
	if err := bus.PublishSync(context.Background(), meeting); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(client.runAts) != 1 {
		t.Fatalf("expected one scheduled reminder, got %d", len(client.runAts))
	}
	if client.runAts[0].Before(before) {
		t.Fatalf("expected run-at clamped to now, got %v", client.runAts[0])
	}
	if client.runAts[0].After(meeting.StartsAt) {
		t.Fatalf("run-at %v is after the meeting start", client.runAts[0])
	}

	if client.payloads[0].ContactID != "" {
		t.Fatalf("expected empty contact id, got %q", client.payloads[0].ContactID)
	}
}
