package events

import (
	"sync"
)

// InMemoryEventStore keeps the audit trail of solve runs, one stream
// per plan ID.
type InMemoryEventStore struct {
	streams   map[string][]Event
	mutex     sync.RWMutex
	allEvents []Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:   make(map[string][]Event),
		allEvents: make([]Event, 0),
	}
}

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out, nil
}

func (s *InMemoryEventStore) ReadAllEvents() ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Event, len(s.allEvents))
	copy(out, s.allEvents)
	return out, nil
}
