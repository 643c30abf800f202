package telemetry

import "time"

type EventType string

const (
	EventTaskCreated   EventType = "task_created"
	EventTaskUpdated   EventType = "task_updated"
	EventTaskCompleted EventType = "task_completed"
	EventTaskReopened  EventType = "task_reopened"
	EventTaskDeleted   EventType = "task_deleted"
	EventTaskRecurred  EventType = "task_recurred"
	EventSubtaskAdded  EventType = "subtask_added"
	EventReminderFired EventType = "reminder_fired"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]any
