//go:build integration

package containers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaContainer wraps a Redpanda broker started through the Kafka module.
type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   string
}

// NewKafkaContainer starts a broker and registers its teardown with t.
func NewKafkaContainer(t *testing.T) *KafkaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := kafka.Run(ctx,
		"redpandadata/redpanda:latest",
		kafka.WithClusterID("crp-test"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	})

	return &KafkaContainer{Container: container, Brokers: strings.Join(brokers, ",")}
}

// CreateTopic creates topic with a single partition.
func (k *KafkaContainer) CreateTopic(ctx context.Context, topic string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(strings.Split(k.Brokers, ",")...))
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = kadm.NewClient(client).CreateTopics(ctx, 1, 1, nil, topic)
	return err
}

// ReadOne consumes topic from the start and returns the first record within timeout.
func (k *KafkaContainer) ReadOne(ctx context.Context, topic string, timeout time.Duration) (*kgo.Record, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(k.Brokers, ",")...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		fetches := client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if records := fetches.Records(); len(records) > 0 {
			return records[0], nil
		}
	}
}
