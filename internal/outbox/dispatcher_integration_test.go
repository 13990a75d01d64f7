//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/activitytracker/internal/platform/pgtest"
)

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	require.NotZero(t, seedOutbox(t, ctx, pool, importedMessage(0, "100")))

	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(pool, producer, registry, zerolog.Nop(), 10*time.Millisecond, 5)

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, "activity_imported", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 1)
	require.InDelta(t, beforeDelivered+1, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)

	// nothing left to claim
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1)
}

func TestDispatcherRoutesFailuresToDLQAndManagerRequeues(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	eventID := seedOutbox(t, ctx, pool, importedMessage(0, "200"))
	require.NotZero(t, eventID)

	dispatcher := NewDispatcher(pool, &stubProducer{err: errors.New("kafka write failed")}, &stubRegistry{id: 7}, zerolog.Nop(), 10*time.Millisecond, 5)

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("activity_imported"))

	require.NoError(t, dispatcher.processBatch(ctx))

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("activity_imported")), 0.0001)

	var reason string
	require.NoError(t, pool.QueryRow(ctx, `SELECT reason FROM outbox_dlq WHERE event_id = $1`, eventID).Scan(&reason))
	require.Contains(t, reason, "kafka write failed")

	manager := NewDLQManager(pool, 3, time.Second, zerolog.Nop())
	requeued, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, requeued)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Equal(t, 1, pending)

	healthy := &stubProducer{}
	replay := NewDispatcher(pool, healthy, &stubRegistry{id: 7}, zerolog.Nop(), 10*time.Millisecond, 5)
	require.NoError(t, replay.processBatch(ctx))
	require.Len(t, healthy.writes, 1)
}

func TestDLQManagerQuarantinesExhaustedEntries(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	msg := importedMessage(99, "300")
	require.NoError(t, NewDLQWriter(pool).Write(ctx, msg, "boom"))
	_, err := pool.Exec(ctx, `UPDATE outbox_dlq SET retry_count = 3`)
	require.NoError(t, err)

	requeued, err := NewDLQManager(pool, 3, time.Second, zerolog.Nop()).RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, requeued)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
}

func TestDispatcherUnknownSchemaMovesEventsToDLQ(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	msg := importedMessage(0, "400")
	msg.EventType = "activity.unknown"
	eventID := seedOutbox(t, ctx, pool, msg)

	producer := &stubProducer{}
	registry := &stubRegistry{id: 99}
	require.NoError(t, NewDispatcher(pool, producer, registry, zerolog.Nop(), 10*time.Millisecond, 5).processBatch(ctx))

	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)

	var reason string
	require.NoError(t, pool.QueryRow(ctx, `SELECT reason FROM outbox_dlq WHERE event_id = $1`, eventID).Scan(&reason))
	require.Contains(t, reason, "no schema for event_type=activity.unknown")
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func seedOutbox(t *testing.T, ctx context.Context, pool *pgxpool.Pool, msg Message) int64 {
	t.Helper()
	var eventID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7)
         RETURNING event_id`,
		msg.AggregateType, msg.AggregateID, msg.EventType, msg.Topic, msg.SchemaSubject, msg.PartitionKey, msg.Payload,
	).Scan(&eventID)
	require.NoError(t, err)
	return eventID
}
