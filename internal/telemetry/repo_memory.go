package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Sharleen10/todolist/internal/clock"
)

// Recorder is the write side used by handlers and the client state.
type Recorder interface {
	RecordEvent(eventType EventType, metadata EventMetadata) error
}

// Repository stores telemetry events
type Repository interface {
	Recorder
	GetEvents(since time.Time, eventTypes []EventType) ([]Event, error)
	Clear() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordEvent(EventType, EventMetadata) error { return nil }

// MemoryRepository keeps events in process memory. It is bounded by
// maxEvents; the oldest events are dropped first.
type MemoryRepository struct {
	mu        sync.RWMutex
	events    []Event
	nextID    int
	maxEvents int
	clock     clock.Clock
}

const defaultMaxEvents = 10000

func NewMemoryRepository(c clock.Clock) *MemoryRepository {
	if c == nil {
		c = clock.RealClock{}
	}
	return &MemoryRepository{
		events:    make([]Event, 0),
		nextID:    1,
		maxEvents: defaultMaxEvents,
		clock:     c,
	}
}

func (r *MemoryRepository) RecordEvent(eventType EventType, metadata EventMetadata) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Event{
		ID:        r.nextID,
		Type:      eventType,
		Timestamp: r.clock.Now(),
		Metadata:  string(metadataJSON),
	})
	r.nextID++

	if over := len(r.events) - r.maxEvents; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	return nil
}

func (r *MemoryRepository) GetEvents(since time.Time, eventTypes []EventType) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeFilter := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		typeFilter[t] = true
	}

	result := make([]Event, 0)
	for _, event := range r.events {
		if event.Timestamp.Before(since) {
			continue
		}
		if len(eventTypes) > 0 && !typeFilter[event.Type] {
			continue
		}
		result = append(result, event)
	}
	return result, nil
}

func (r *MemoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make([]Event, 0)
	r.nextID = 1
	return nil
}
