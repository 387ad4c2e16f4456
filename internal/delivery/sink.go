// Package delivery implements the subscriber side shared by the bus adapters:
// a buffered channel that can be closed safely while producers are still sending.
package delivery

import (
	"context"
	"sync"

	"github.com/aretw0/checklist/pkg/ports"
)

// DefaultBuffer is the channel capacity used when none is given.
const DefaultBuffer = 64

// Sink is one subscription's outbound channel.
type Sink struct {
	out  chan ports.Message
	done chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewSink creates a sink. A non-positive buffer selects DefaultBuffer.
func NewSink(buffer int) *Sink {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Sink{
		out:  make(chan ports.Message, buffer),
		done: make(chan struct{}),
	}
}

// C returns the channel handed to the subscriber.
func (s *Sink) C() <-chan ports.Message {
	return s.out
}

// Done is closed once the sink starts closing.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Full reports whether the next Deliver would wait for the subscriber.
func (s *Sink) Full() bool {
	return len(s.out) == cap(s.out)
}

// Deliver hands msg to the subscriber, waiting while the buffer is full.
// It returns false when the sink was closed or ctx ended first.
func (s *Sink) Deliver(ctx context.Context, msg ports.Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- msg:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close ends the subscription. It is safe to call more than once.
func (s *Sink) Close() {
	s.once.Do(func() {
		// Unblock pending Deliver calls before taking the write lock.
		close(s.done)
		s.mu.Lock()
		s.closed = true
		close(s.out)
		s.mu.Unlock()
	})
}
