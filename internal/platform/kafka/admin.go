// Package kafka holds broker administration shared by the producer and consumer.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"certledger/internal/platform/kafka/producer"
)

// Admin creates topics and answers readiness probes.
type Admin struct {
	client *kgo.Client
	adm    *kadm.Client
}

func NewAdmin(brokers string) (*Admin, error) {
	seeds := producer.SplitBrokers(brokers)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	client, err := kgo.NewClient(kgo.SeedBrokers(seeds...))
	if err != nil {
		return nil, fmt.Errorf("create kafka admin client: %w", err)
	}
	return &Admin{client: client, adm: kadm.NewClient(client)}, nil
}

// EnsureTopic creates topic if it does not exist yet.
func (a *Admin) EnsureTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16) error {
	resps, err := a.adm.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resps {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Health succeeds when the cluster answers a metadata request with at least one broker.
func (a *Admin) Health(ctx context.Context) error {
	brokers, err := a.adm.ListBrokers(ctx)
	if err != nil {
		return fmt.Errorf("no kafka brokers reachable: %w", err)
	}
	if len(brokers) == 0 {
		return fmt.Errorf("kafka cluster reported no brokers")
	}
	return nil
}

func (a *Admin) Close() {
	a.client.Close()
}
