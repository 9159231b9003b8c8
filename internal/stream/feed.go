// Package stream fans dashboard events out to connected SSE clients so the
// UI can refresh without polling. One global feed; events are store mutations
// (task changes, dispatches, archive sweeps), not command output.
package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one dashboard occurrence.
type Event struct {
	Type      string `json:"type"`   // e.g. task_created, task_moved, dispatch, archive
	Entity    string `json:"entity"` // affected id (task id, agent id, ...)
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Client is one connected SSE subscriber.
type Client struct {
	ID     string
	Events chan Event
	Done   chan struct{}
}

// Feed broadcasts events to all subscribers and keeps a short replay buffer
// for late joiners.
type Feed struct {
	mu          sync.RWMutex
	clients     map[string]*Client
	buffer      []Event
	bufferLimit int
}

func NewFeed() *Feed {
	return &Feed{
		clients:     make(map[string]*Client),
		buffer:      make([]Event, 0, 50),
		bufferLimit: 50,
	}
}

// Subscribe registers a new client and replays the buffered events to it.
func (f *Feed) Subscribe() *Client {
	client := &Client{
		ID:     uuid.NewString(),
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ev := range f.buffer {
		select {
		case client.Events <- ev:
		default:
		}
	}
	f.clients[client.ID] = client
	return client
}

// Unsubscribe removes a client and signals its Done channel.
func (f *Feed) Unsubscribe(clientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[clientID]; ok {
		close(client.Done)
		delete(f.clients, clientID)
	}
}

// Publish records an event and sends it to every subscriber. Slow clients
// drop events rather than blocking the publisher.
func (f *Feed) Publish(eventType, entity, message string) {
	ev := Event{
		Type:      eventType,
		Entity:    entity,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.buffer) >= f.bufferLimit {
		f.buffer = f.buffer[1:]
	}
	f.buffer = append(f.buffer, ev)

	for _, client := range f.clients {
		select {
		case client.Events <- ev:
		default:
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}
