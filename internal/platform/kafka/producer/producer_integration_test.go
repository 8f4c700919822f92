//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certledger/internal/eventlog"
	"certledger/internal/eventlog/publisher"
	eventstore "certledger/internal/eventlog/store"
	"certledger/internal/platform/config"
	"certledger/internal/platform/kafka/producer"
	"certledger/pkg/testutil"
	"certledger/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(config.KafkaConfig{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) TestHealthWithRunningBroker() {
	s.NoError(s.producer.Health(context.Background()))
}

// Published records carry the entry headers and, read back in offset order,
// still form a verifiable chain.
func (s *ProducerIntegrationSuite) TestPublishedLogVerifiesDownstream() {
	ctx := context.Background()
	topic := "certledger-test-" + time.Now().Format("20060102150405")
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic))

	log := eventstore.NewInMemory()
	addrs := testutil.TestAddresses
	_, err := log.Append(ctx, "tx-1", []eventlog.Event{
		eventlog.NewIssuerAdded(eventlog.IssuerAdded{Identity: addrs.IssuerA}),
	}, testutil.FixedNow)
	s.Require().NoError(err)
	_, err = log.Append(ctx, "tx-2", []eventlog.Event{
		eventlog.NewIssuerRemoved(eventlog.IssuerRemoved{Identity: addrs.IssuerA}),
	}, testutil.FixedNow.Add(time.Second))
	s.Require().NoError(err)

	worker := publisher.New(log, s.producer, publisher.WithTopic(topic))
	published, err := worker.PublishBatch(ctx)
	s.Require().NoError(err)
	s.Equal(2, published)

	records := s.kafka.ReadAll(ctx, topic, 2, 10*time.Second)
	s.Require().Len(records, 2)

	entries := make([]eventlog.Entry, 0, len(records))
	for _, r := range records {
		var e eventlog.Entry
		s.Require().NoError(json.Unmarshal(r.Value, &e))
		entries = append(entries, e)

		headers := map[string]string{}
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
		s.Equal(string(e.Type), headers["event_type"])
		s.Equal(e.TxID, headers["tx_id"])
		s.Equal(e.Hash, headers["hash"])
		s.Equal(e.AggregateID, string(r.Key))
	}
	s.NoError(eventlog.Verify(nil, entries))

	pending, err := log.CountUnpublished(ctx)
	s.Require().NoError(err)
	s.Zero(pending)
}
