package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/activitytracker/pkg/events"
)

func framed(schemaID int, payload string) []byte {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], uint32(schemaID))
	copy(value[5:], payload)
	return value
}

func importedRecord(offset int64, payload string) kafka.Message {
	return kafka.Message{
		Topic:     "activity_imported",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     framed(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.ActivityImportedType)},
			{Key: "schema_subject", Value: []byte("activity_imported-value")},
		},
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := `{"activity_id":"abc","external_id":"123"}`
	reader := &stubReader{messages: []kafka.Message{importedRecord(10, payload)}}
	handler := &stubHandler{}
	before := testutil.ToFloat64(processedCounter.WithLabelValues("activity_imported", events.ActivityImportedType))

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.ActivityImportedType, handler.last.EventType)
	require.Equal(t, "activity_imported-value", handler.last.SchemaSubject)
	require.Equal(t, 42, handler.last.SchemaID)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, payload, string(handler.last.Payload))
	require.InDelta(t, before+1, testutil.ToFloat64(processedCounter.WithLabelValues("activity_imported", events.ActivityImportedType)), 0.0001)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{importedRecord(20, `{"activity_id":"def"}`)}}
	handler := &stubHandler{err: errors.New("boom")}

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsUndecodableRecords(t *testing.T) {
	noHeader := importedRecord(1, `{}`)
	noHeader.Headers = nil
	short := importedRecord(2, `{}`)
	short.Value = []byte{0, 1}
	notJSON := importedRecord(3, `not json`)

	reader := &stubReader{messages: []kafka.Message{noHeader, short, notJSON}}
	handler := &stubHandler{}
	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_imported"))

	err := NewProcessor(reader, handler, zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.InDelta(t, before+3, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_imported")), 0.0001)
}

func TestProcessorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{messages: []kafka.Message{importedRecord(1, `{}`)}}
	err := NewProcessor(reader, &stubHandler{}, zerolog.Nop()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, reader.index)
}

func TestActivityIDOf(t *testing.T) {
	id, err := activityIDOf(Message{EventType: events.ActivityImportedType, Payload: []byte(`{"activity_id":"a-1"}`)})
	require.NoError(t, err)
	require.Equal(t, "a-1", *id)

	id, err = activityIDOf(Message{EventType: "other", Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.Nil(t, id)

	_, err = activityIDOf(Message{EventType: events.ActivityImportedType, Payload: []byte(`[]`)})
	require.Error(t, err)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(context.Context, ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
