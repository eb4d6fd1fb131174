// Package memory records published scan events in process memory. It backs
// development runs and tests where no Pub/Sub topic is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// PublishedMessage is one recorded publish call.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// Publisher accumulates every published event for later inspection.
type Publisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event and returns a sequence-numbered pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Payload: payload})
	return fmt.Sprintf("memory-%d", len(p.messages)), nil
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// Reset discards all recorded messages.
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}
