package services

import (
	"log/slog"
	"sync"
	"time"
)

type EventType string

const EventTypeQuery EventType = "query"

type Event struct {
	Topic     string
	Type      EventType
	Data      string // category name, tool name or raw text
	Timestamp int64
}

func NewEvent(topic string, typ EventType, data string) Event {
	return Event{Topic: topic, Type: typ, Data: data, Timestamp: time.Now().UnixMilli()}
}

// EventBus fans agent activity out to in-process subscribers, keyed by topic.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel that receives events for a topic.
func (b *EventBus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent blocking publisher
	b.subs[topic] = append(b.subs[topic], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[topic]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[topic] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
	}

	return ch, unsub
}

// Publish sends an event to all subscribers of the topic.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers, ok := b.subs[e.Topic]
	if !ok {
		return
	}

	for _, ch := range subscribers {
		select {
		case ch <- e:
		default:
			// If channel is full, drop event to prevent blocking the agent
			b.logger.Warn("event bus channel full, dropping event", "topic", e.Topic)
		}
	}
}
