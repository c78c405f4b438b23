package service

import (
	"context"
	"testing"
	"time"

	"crm_pipeline_backend/internal/calendar/repository"
	"crm_pipeline_backend/internal/calendar/transport"
	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	updateFn func(ctx context.Context, id, ownerID uuid.UUID, params repository.UpdateEventParams) (repository.Event, error)
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateEventParams) (repository.Event, error) {
	return repository.Event{
		ID:        uuid.New(),
		OwnerID:   params.OwnerID,
		ContactID: params.ContactID,
		Title:     params.Title,
		StartsAt:  params.StartsAt,
		EndsAt:    params.EndsAt,
	}, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Event, error) {
	return repository.Event{ID: id}, nil
}

func (f *fakeRepo) Update(ctx context.Context, id, ownerID uuid.UUID, params repository.UpdateEventParams) (repository.Event, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, ownerID, params)
	}
	event := repository.Event{ID: id, OwnerID: ownerID, Title: "existing"}
	if params.StartsAt != nil {
		event.StartsAt = *params.StartsAt
	}
	return event, nil
}

func (f *fakeRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]repository.Event, error) {
	return nil, nil
}

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) Subscribe(eventName string, handler events.Handler) {}

func TestCreate_FutureEventPublishesMeetingScheduled(t *testing.T) {
	bus := &fakeBus{}
	svc := New(&fakeRepo{}, bus)

	ownerID := uuid.New()
	contactID := uuid.New()
	startsAt := time.Now().Add(24 * time.Hour)

	got, err := svc.Create(context.Background(), ownerID, transport.CreateEventRequest{
		Title:     "Demo call",
		ContactID: contactID.String(),
		StartsAt:  startsAt,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	meeting, ok := bus.published[0].(events.MeetingScheduled)
	if !ok {
		t.Fatalf("expected MeetingScheduled, got %T", bus.published[0])
	}
	if meeting.SourceID != got.ID || meeting.OwnerID != ownerID {
		t.Fatalf("unexpected event payload: %+v", meeting)
	}
	if meeting.ContactID == nil || *meeting.ContactID != contactID {
		t.Fatalf("expected contact %s, got %v", contactID, meeting.ContactID)
	}
}

func TestCreate_PastEventPublishesNothing(t *testing.T) {
	bus := &fakeBus{}
	svc := New(&fakeRepo{}, bus)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateEventRequest{
		Title:    "Retro",
		StartsAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(bus.published) != 0 {
		t.Fatalf("expected no events for a past start, got %d", len(bus.published))
	}
}

func TestCreate_MalformedContactIDFailsValidation(t *testing.T) {
	svc := New(&fakeRepo{}, &fakeBus{})

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateEventRequest{
		Title:     "Demo",
		ContactID: "nope",
		StartsAt:  time.Now().Add(time.Hour),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdate_RescheduleRepublishes(t *testing.T) {
	bus := &fakeBus{}
	svc := New(&fakeRepo{}, bus)

	newStart := time.Now().Add(48 * time.Hour)
	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), transport.UpdateEventRequest{
		StartsAt: &newStart,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected a republished event, got %d", len(bus.published))
	}
	meeting := bus.published[0].(events.MeetingScheduled)
	if !meeting.StartsAt.Equal(newStart) {
		t.Fatalf("expected new start %v, got %v", newStart, meeting.StartsAt)
	}
}

func TestUpdate_TitleOnlyEditPublishesNothing(t *testing.T) {
	bus := &fakeBus{}
	svc := New(&fakeRepo{}, bus)

	title := "Renamed"
	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), transport.UpdateEventRequest{
		Title: &title,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(bus.published) != 0 {
		t.Fatalf("expected no events for a title edit, got %d", len(bus.published))
	}
}

func TestUpdate_UnknownEventMapsToNotFound(t *testing.T) {
	repo := &fakeRepo{
		updateFn: func(ctx context.Context, id, ownerID uuid.UUID, params repository.UpdateEventParams) (repository.Event, error) {
			return repository.Event{}, repository.ErrNotFound
		},
	}
	svc := New(repo, &fakeBus{})

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), transport.UpdateEventRequest{})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
