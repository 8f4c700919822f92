package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/platform/config"
)

func TestRecordOrdersHeaders(t *testing.T) {
	rec := Record(&Message{
		Topic: "certledger.registry.events",
		Key:   []byte("certificate:1"),
		Value: []byte(`{"seq":1}`),
		Headers: map[string]string{
			"tx_id":      "tx-1",
			"event_type": "CertificateIssued",
			"seq":        "1",
			"hash":       "abc",
		},
	})

	keys := make([]string, 0, len(rec.Headers))
	for _, h := range rec.Headers {
		keys = append(keys, h.Key)
	}
	assert.Equal(t, []string{"event_type", "hash", "seq", "tx_id"}, keys)
	assert.Equal(t, "certificate:1", string(rec.Key))
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(""))
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(config.KafkaConfig{Brokers: " , "}, nil)
	require.Error(t, err)
}

func TestClosedProducerRefusesWork(t *testing.T) {
	p, err := New(config.KafkaConfig{Brokers: "localhost:1"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Produce(context.Background(), &Message{Value: []byte("x")}), ErrClosed)
	assert.ErrorIs(t, p.Health(context.Background()), ErrClosed)
}
