package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{Brokers: "  "}, nil)
	assert.Error(t, err)
}

func TestToRecord(t *testing.T) {
	rec := toRecord(&Message{
		Topic:   "crp.audit",
		Key:     []byte("alice"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"event": "crp_enrolled"},
	})
	assert.Equal(t, "crp.audit", rec.Topic)
	assert.Equal(t, []byte("alice"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event", rec.Headers[0].Key)
	assert.Equal(t, []byte("crp_enrolled"), rec.Headers[0].Value)
}

func TestClientOptions(t *testing.T) {
	assert.Len(t, clientOptions(Config{Brokers: "a:9092,b:9092"}), 4)
	assert.Len(t, clientOptions(Config{Brokers: "a:9092", Acks: "1", Retries: 3}), 6)
}

func TestClosedProducer(t *testing.T) {
	// kgo.NewClient does not dial until first use.
	p, err := New(Config{Brokers: "127.0.0.1:1"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Produce(context.Background(), &Message{Topic: "t"}), ErrClosed)
	assert.ErrorIs(t, p.Health(context.Background()), ErrClosed)
}
