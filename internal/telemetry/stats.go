package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Since            string            `json:"since"`
	EventCounts      map[EventType]int `json:"eventCounts"`
	TasksCreated     int               `json:"tasksCreated"`
	TasksCompleted   int               `json:"tasksCompleted"`
	TasksReopened    int               `json:"tasksReopened"`
	TasksDeleted     int               `json:"tasksDeleted"`
	TasksRecurred    int               `json:"tasksRecurred"`
	SubtasksAdded    int               `json:"subtasksAdded"`
	RemindersFired   int               `json:"remindersFired"`
	CompletionRate   float64           `json:"completionRate"`
	CreatedByProject map[string]int    `json:"createdByProject"`
	CompletedByPrio  map[string]int    `json:"completedByPriority"`
}

// CalculateStats summarises lifecycle events recorded since the given time.
func CalculateStats(events []Event, since time.Time) Stats {
	stats := Stats{
		Since:            since.Format("2006-01-02"),
		EventCounts:      make(map[EventType]int),
		CreatedByProject: make(map[string]int),
		CompletedByPrio:  make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		_ = json.Unmarshal([]byte(event.Metadata), &metadata)

		switch event.Type {
		case EventTaskCreated:
			stats.TasksCreated++
			if p, ok := metadata["project"].(string); ok && p != "" {
				stats.CreatedByProject[p]++
			}
		case EventTaskCompleted:
			stats.TasksCompleted++
			if p, ok := metadata["priority"].(string); ok && p != "" {
				stats.CompletedByPrio[p]++
			}
		case EventTaskReopened:
			stats.TasksReopened++
		case EventTaskDeleted:
			stats.TasksDeleted++
		case EventTaskRecurred:
			stats.TasksRecurred++
		case EventSubtaskAdded:
			stats.SubtasksAdded++
		case EventReminderFired:
			stats.RemindersFired++
		}
	}

	if stats.TasksCreated > 0 {
		stats.CompletionRate = float64(stats.TasksCompleted) / float64(stats.TasksCreated)
	}
	return stats
}
