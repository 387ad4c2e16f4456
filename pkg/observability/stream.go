package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/domain"
)

// AllChecklists subscribes to the events of every checklist.
const AllChecklists = ""

// streamBuffer is the per-subscriber backlog before messages are dropped.
const streamBuffer = 16

// Stream fans lifecycle notifications out to live subscribers.
type Stream struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ChecklistID -> Set of Channels
	logger      *slog.Logger
}

// NewStream creates a stream. A nil logger discards its diagnostics.
func NewStream(logger *slog.Logger) *Stream {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stream{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe returns a channel of JSON encoded notifications for checklistID
// (or every checklist with AllChecklists) and the function that ends the subscription.
func (s *Stream) Subscribe(checklistID string) (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan string, streamBuffer)
	if _, ok := s.subscribers[checklistID]; !ok {
		s.subscribers[checklistID] = make(map[chan<- string]struct{})
	}
	s.subscribers[checklistID][ch] = struct{}{}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.subscribers[checklistID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(s.subscribers, checklistID)
			}
		}
	}
}

// Broadcast delivers msg to the subscribers of checklistID and of AllChecklists.
// Slow subscribers lose messages rather than stall the controller.
func (s *Stream) Broadcast(checklistID string, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := []string{checklistID}
	if checklistID != AllChecklists {
		keys = append(keys, AllChecklists)
	}
	for _, key := range keys {
		for ch := range s.subscribers[key] {
			select {
			case ch <- msg:
			default:
				s.logger.Warn("stream subscriber buffer full, dropping message", "checklist_id", checklistID)
			}
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every notification as JSON.
func (s *Stream) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart:   func(_ context.Context, e *domain.ChecklistEvent) { s.publish(e.ChecklistID, e) },
		OnReject:  func(_ context.Context, e *domain.ChecklistEvent) { s.publish(e.ChecklistID, e) },
		OnPrompt:  func(_ context.Context, e *domain.PromptEvent) { s.publish(e.ChecklistID, e) },
		OnResolve: func(_ context.Context, e *domain.ItemEvent) { s.publish(e.ChecklistID, e) },
		OnFinish:  func(_ context.Context, e *domain.FinishEvent) { s.publish(e.ChecklistID, e) },
	}
}

func (s *Stream) publish(checklistID string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("stream event encode failed", "err", err)
		return
	}
	s.Broadcast(checklistID, string(data))
}
