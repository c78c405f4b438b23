package scheduler

import (
	"context"
	"errors"
	"time"

	"crm_pipeline_backend/platform/config"

	"github.com/hibiken/asynq"
)

var errRedisNotConfigured = errors.New("redis not configured")

// ReminderScheduler is the enqueue surface consumed by the calendar and
// contacts modules.
type ReminderScheduler interface {
	ScheduleMeetingReminder(ctx context.Context, payload MeetingReminderPayload, runAt time.Time) error
}

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
	if !cfg.IsRedisEnabled() {
		return nil, errRedisNotConfigured
	}

	return &Client{
		client: asynq.NewClient(redisClientOpt(cfg)),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleMeetingReminder enqueues a reminder to fire at runAt. Tasks that
// are already due run immediately.
func (c *Client) ScheduleMeetingReminder(ctx context.Context, payload MeetingReminderPayload, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewMeetingReminderTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt))
	return err
}

func redisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
	}
}
