package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/checklist/pkg/ports"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestSink_Deliver(t *testing.T) {
	s := NewSink(1)
	ok := s.Deliver(context.Background(), ports.Message{Topic: "a"})
	assert.True(t, ok)
	assert.Equal(t, "a", (<-s.C()).Topic)
}

func TestSink_Full(t *testing.T) {
	s := NewSink(1)
	assert.False(t, s.Full())
	s.Deliver(context.Background(), ports.Message{Topic: "a"})
	assert.True(t, s.Full())
	<-s.C()
	assert.False(t, s.Full())
}

func TestSink_CloseUnblocksProducer(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewSink(1)
	s.Deliver(context.Background(), ports.Message{Topic: "fill"})

	result := make(chan bool)
	go func() {
		result <- s.Deliver(context.Background(), ports.Message{Topic: "blocked"})
	}()

	time.Sleep(20 * time.Millisecond)
	s.Close()
	s.Close()

	assert.False(t, <-result)
	assert.False(t, s.Deliver(context.Background(), ports.Message{Topic: "late"}))
}

func TestSink_ContextCancel(t *testing.T) {
	s := NewSink(1)
	s.Deliver(context.Background(), ports.Message{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, s.Deliver(ctx, ports.Message{}))
}
