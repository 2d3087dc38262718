package messaging

import (
	"context"
	"sync"

	"postura/internal/ports"
)

// MemoryPublisher records events in process. It backs the "memory" events
// driver and test assertions.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []RecordedEvent
}

type RecordedEvent struct {
	Topic   string
	Payload any
}

var _ ports.EventPublisher = (*MemoryPublisher)(nil)

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, RecordedEvent{Topic: topic, Payload: payload})
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []RecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RecordedEvent, len(p.events))
	copy(out, p.events)
	return out
}
