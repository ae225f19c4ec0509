package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "crpstore/pkg/platform/audit"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Append(_ context.Context, event audit.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) list() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

func TestPublisher_EmitStoresEvent(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(sink)

	err := pub.Emit(context.Background(), audit.Event{
		Subject: "alice",
		Action:  string(audit.EventCRPEnrolled),
	})
	require.NoError(t, err)

	events := sink.list()
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventCRPEnrolled), events[0].Action)
	assert.Equal(t, "alice", events[0].Subject)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(sink)

	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCRPEnrolled)}))
	after := time.Now()

	events := sink.list()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(sink)

	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "x", Timestamp: custom}))

	events := sink.list()
	require.Len(t, events, 1)
	assert.Equal(t, custom, events[0].Timestamp)
}

func TestPublisher_EmitReturnsError(t *testing.T) {
	sinkErr := errors.New("append failed")
	pub := NewPublisher(&recordingSink{err: sinkErr})

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCRPAuthFailed)})
	require.ErrorIs(t, err, sinkErr)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(sink, WithAsyncBuffer(8))

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCRPAuthenticated)}))
	}
	pub.Close()

	assert.Len(t, sink.list(), 5)
}

func TestPublisher_AsyncBufferFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	pub := NewPublisher(sink, WithAsyncBuffer(1))

	// The first event is picked up by the worker and blocks in Append, the
	// second fills the buffer, the third has nowhere to go.
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "a"}))
	require.Eventually(t, func() bool { return len(pub.events) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "b"}))

	err := pub.Emit(context.Background(), audit.Event{Action: "c"})
	require.Error(t, err)

	close(sink.block)
	pub.Close()
	assert.Len(t, sink.list(), 2)
}
