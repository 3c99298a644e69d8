//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/adapter/kafka"
	"github.com/couchcryptid/stargazer-events/internal/adapter/memory"
	"github.com/couchcryptid/stargazer-events/internal/config"
	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/events"
	"github.com/couchcryptid/stargazer-events/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventsTopic = "test-astronomical-events"

// TestPopulatePublishesBatch verifies a populated week reaches the events topic,
// one message per event, keyed by id.
func TestPopulatePublishesBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaEventsTopic: testEventsTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	clock := clockwork.NewRealClock()
	svc := events.NewService(memory.NewEventRepository(), domain.NewGenerator(clock), discardLogger(),
		observability.NewMetricsForTesting(), events.WithPublisher(writer), events.WithClock(clock))

	week, err := svc.Populate(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, week)

	want := make(map[string]domain.AstronomicalEvent, len(week))
	for _, e := range week {
		want[e.ID] = e
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testEventsTopic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for range week {
		msg, err := consumer.ReadMessage(ctx)
		require.NoError(t, err, "read from events topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}

		var got domain.AstronomicalEvent
		require.NoError(t, json.Unmarshal(msg.Value, &got))

		expected, ok := want[string(msg.Key)]
		require.True(t, ok, "unexpected key %s", msg.Key)
		assert.Equal(t, expected.Name, got.Name)
		assert.Equal(t, string(expected.Type), headers["event_type"])
		assert.NotEmpty(t, headers["generated_at"])
		delete(want, string(msg.Key))
	}
	assert.Empty(t, want)
}
