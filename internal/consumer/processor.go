// Package consumer reads activity events back from Kafka and hands them to a Handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"example.com/activitytracker/internal/outbox"
)

// Reader is the subset of *kafka.Reader the processor uses.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is a decoded record published by the outbox dispatcher.
type Message struct {
	Topic         string
	Partition     int
	Offset        int64
	Timestamp     time.Time
	EventType     string
	SchemaSubject string
	SchemaID      int
	Payload       json.RawMessage
}

// Processor fetches, decodes and dispatches messages, committing offsets of
// handled records.
type Processor struct {
	reader  Reader
	handler Handler
	logger  zerolog.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(reader Reader, handler Handler, logger zerolog.Logger) *Processor {
	return &Processor{
		reader:  reader,
		handler: handler,
		logger:  logger.With().Str("component", "consumer").Logger(),
	}
}

// Run blocks until ctx is cancelled or the reader is closed.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Error().Err(err).Msg("fetch failed")
			continue
		}

		msg, err := decodeMessage(record)
		if err != nil {
			p.logger.Warn().Err(err).
				Str("topic", record.Topic).
				Int("partition", record.Partition).
				Int64("offset", record.Offset).
				Msg("dropping undecodable record")
			recordDecodeError(record.Topic)
			// commit so a poison record does not block the partition
			if commitErr := p.reader.CommitMessages(ctx, record); commitErr != nil {
				p.logger.Error().Err(commitErr).Msg("commit after decode failure")
			}
			continue
		}

		if err := p.handler.Handle(ctx, msg); err != nil {
			p.logger.Error().Err(err).Str("event_type", msg.EventType).Int64("offset", msg.Offset).Msg("handler failed")
			recordHandlerError(msg)
			continue
		}

		if err := p.reader.CommitMessages(ctx, record); err != nil {
			p.logger.Error().Err(err).Msg("commit failed")
			continue
		}
		recordProcessed(msg)
	}
}

func decodeMessage(record kafka.Message) (Message, error) {
	eventType, ok := headerValue(record, "event_type")
	if !ok {
		return Message{}, errors.New("missing event_type header")
	}
	schemaID, payload, err := outbox.DecodeWireFormat(record.Value)
	if err != nil {
		return Message{}, fmt.Errorf("decode value: %w", err)
	}
	if !json.Valid(payload) {
		return Message{}, errors.New("payload is not valid json")
	}
	subject, _ := headerValue(record, "schema_subject")

	return Message{
		Topic:         record.Topic,
		Partition:     record.Partition,
		Offset:        record.Offset,
		Timestamp:     record.Time,
		EventType:     eventType,
		SchemaSubject: subject,
		SchemaID:      schemaID,
		Payload:       append(json.RawMessage(nil), payload...),
	}, nil
}

func headerValue(record kafka.Message, key string) (string, bool) {
	for _, h := range record.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
