package scheduler

import (
	"context"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/config"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker runs the asynq server for the reminder queue. Task handlers only
// translate payloads into domain events; delivery lives in the notification
// subscribers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.RedisConfig, bus events.Bus, log *logger.Logger) (*Worker, error) {
	if !cfg.IsRedisEnabled() {
		return nil, errRedisNotConfigured
	}

	server := asynq.NewServer(redisClientOpt(cfg), asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	w := &Worker{server: server, mux: mux, bus: bus, log: log}

	mux.HandleFunc(TaskMeetingReminder, w.handleMeetingReminder)

	return w, nil
}

func (w *Worker) handleMeetingReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMeetingReminderPayload(task)
	if err != nil {
		return err
	}

	sourceID, err := uuid.Parse(payload.SourceID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return err
	}

	event := events.MeetingReminderDue{
		BaseEvent: events.NewBaseEvent(),
		SourceID:  sourceID,
		OwnerID:   ownerID,
		Title:     payload.Title,
		StartsAt:  payload.StartsAt,
	}
	if payload.ContactID != "" {
		contactID, err := uuid.Parse(payload.ContactID)
		if err != nil {
			return err
		}
		event.ContactID = &contactID
	}

	if w.bus == nil {
		return nil
	}
	return w.bus.PublishSync(ctx, event)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
