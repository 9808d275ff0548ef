//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"vinculacion/internal/platform/kafka"
	"vinculacion/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
}

func (s *ProducerSuite) TestPublishIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := kafka.NewProducer(ctx, s.broker.Brokers, "enrollment.completed.test")
	s.Require().NoError(err)
	s.Require().NotNil(producer)
	defer producer.Close()

	s.Require().NoError(producer.Publish(ctx, "42", []byte(`{"type":"enrollment.completed","id_preregistro":42}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Brokers...),
		kgo.ConsumeTopics("enrollment.completed.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("42", string(records[0].Key))
	s.JSONEq(`{"type":"enrollment.completed","id_preregistro":42}`, string(records[0].Value))
}

func (s *ProducerSuite) TestEnsureTopicIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := kafka.NewProducer(ctx, s.broker.Brokers, "enrollment.idempotent")
	s.Require().NoError(err)
	defer producer.Close()

	s.NoError(kafka.EnsureTopic(ctx, producer.Client(), "enrollment.idempotent", 1, 1))
}

func TestNewProducerWithoutBrokers(t *testing.T) {
	p, err := kafka.NewProducer(context.Background(), nil, "x")
	if err != nil || p != nil {
		t.Fatalf("expected nil producer without brokers, got %v, %v", p, err)
	}
}
