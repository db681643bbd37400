package core

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"
)

// DefaultEventBuffer is the per-subscriber buffer used when none is configured.
const DefaultEventBuffer = 100

// broker fans events out to subscribers without ever blocking the publisher.
// Events that do not fit in a subscriber's buffer are dropped and counted.
type broker struct {
	size int

	mu      sync.Mutex
	subs    map[chan Event]struct{}
	dropped uint64
	closed  bool
	done    chan struct{}
}

func newBroker(size int) *broker {
	if size <= 0 {
		size = DefaultEventBuffer
	}
	return &broker{
		size: size,
		subs: make(map[chan Event]struct{}),
		done: make(chan struct{}),
	}
}

func (b *broker) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.size)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			b.unsubscribe(ch)
		case <-b.done:
		}
		return nil
	})
	return ch
}

func (b *broker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped++
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

func (b *broker) stats() (subscribers int, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs), b.dropped
}
