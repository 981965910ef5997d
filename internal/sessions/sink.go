package sessions

import (
	"errors"
	"sync"

	"github.com/ppds/orchdash/internal/models"
)

// Sink receives synthesized events. Delivery is best effort: the watcher
// logs a returned error and moves on.
type Sink interface {
	Publish(event *models.SessionEvent) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(event *models.SessionEvent) error

func (f SinkFunc) Publish(event *models.SessionEvent) error {
	return f(event)
}

// MultiSink publishes to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(event *models.SessionEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	ErrNoSubscribers     = errors.New("no subscribers listening for " + models.SessionEventName)
	ErrBroadcasterClosed = errors.New("session event broadcaster closed")
)

// Broadcaster fans events out to in-process subscribers. Each subscriber
// has a bounded queue; when it is full the oldest queued event is dropped,
// since a fresh snapshot query can always recover full state.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[uint64]chan *models.SessionEvent
	nextID  uint64
	buffer  int
	dropped uint64
	closed  bool
}

// NewBroadcaster creates a broadcaster with the given per-subscriber queue size.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 1
	}
	return &Broadcaster{
		subs:   make(map[uint64]chan *models.SessionEvent),
		buffer: buffer,
	}
}

// Subscribe registers a new listener. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan *models.SessionEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.SessionEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Broadcaster) Publish(event *models.SessionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBroadcasterClosed
	}
	if len(b.subs) == 0 {
		return ErrNoSubscribers
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
			continue
		default:
		}
		// queue full: make room by dropping the oldest entry
		select {
		case <-ch:
			b.dropped++
		default:
		}
		select {
		case ch <- event:
		default:
			b.dropped++
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many queued events were discarded for slow subscribers.
func (b *Broadcaster) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close closes every subscriber channel and rejects further publishes.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
