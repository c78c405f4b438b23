package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskMeetingReminder = "calendar.meeting_reminder"

type MeetingReminderPayload struct {
	SourceID  string    `json:"sourceId"`
	ContactID string    `json:"contactId,omitempty"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"startsAt"`
}

func NewMeetingReminderTask(payload MeetingReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMeetingReminder, data), nil
}

func ParseMeetingReminderPayload(task *asynq.Task) (MeetingReminderPayload, error) {
	var payload MeetingReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MeetingReminderPayload{}, err
	}
	return payload, nil
}
