package mqtt

import (
	"sync"
	"time"

	"github.com/aretw0/checklist/pkg/hermes"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakeBroker is an in-process stand-in for a connected paho client.
type fakeBroker struct {
	mu           sync.Mutex
	routes       map[string]paho.MessageHandler
	published    []string
	disconnected bool
	publishErr   error
	subscribeErr error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{routes: make(map[string]paho.MessageHandler)}
}

func (f *fakeBroker) Connect() paho.Token { return doneToken(nil) }

func (f *fakeBroker) Disconnect(uint) {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
}

func (f *fakeBroker) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	f.mu.Lock()
	if f.publishErr != nil {
		f.mu.Unlock()
		return doneToken(f.publishErr)
	}
	f.published = append(f.published, topic)
	var handlers []paho.MessageHandler
	for filter, h := range f.routes {
		if hermes.MatchTopic(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	body, _ := payload.([]byte)
	for _, h := range handlers {
		h(nil, &fakeMessage{topic: topic, payload: body})
	}
	return doneToken(nil)
}

func (f *fakeBroker) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return doneToken(f.subscribeErr)
	}
	for filter := range filters {
		f.routes[filter] = callback
	}
	return doneToken(nil)
}

func (f *fakeBroker) Unsubscribe(topics ...string) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.routes, t)
	}
	return doneToken(nil)
}

func (f *fakeBroker) routeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.routes)
}

// dropRoutes simulates a broker that forgot the session.
func (f *fakeBroker) dropRoutes() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = make(map[string]paho.MessageHandler)
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
