package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptKeyPrefix = "intake_transcript:"

// TranscriptStore keeps the intake conversation per patient in Redis so a
// patient can leave and resume on another device. Entries expire after the
// configured TTL.
type TranscriptStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

// NewTranscriptStore creates a transcript store. Returns nil when no redis
// client is configured; the service then runs stateless.
func NewTranscriptStore(redisClient *redis.Client, ttl time.Duration) *TranscriptStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TranscriptStore{
		redis:       redisClient,
		tracer:      otel.Tracer("psiclinic.internal.intake.transcript"),
		ttl:         ttl,
		maxMessages: 200,
	}
}

// Append adds one message to the patient's transcript and refreshes the TTL.
func (s *TranscriptStore) Append(ctx context.Context, patientID string, msg ChatMessage) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if patientID == "" {
		return errors.New("intake: transcript patientID required")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("intake: marshal transcript message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "intake.transcript.append")
	defer span.End()

	key := transcriptKey(patientID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: append transcript message: %w", err)
	}
	return nil
}

// List returns the patient's transcript, oldest first.
func (s *TranscriptStore) List(ctx context.Context, patientID string) ([]ChatMessage, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}

	ctx, span := s.tracer.Start(ctx, "intake.transcript.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, transcriptKey(patientID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: list transcript: %w", err)
	}

	out := make([]ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Clear deletes the patient's transcript, used for LGPD erasure.
func (s *TranscriptStore) Clear(ctx context.Context, patientID string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, transcriptKey(patientID)).Err(); err != nil {
		return fmt.Errorf("intake: clear transcript: %w", err)
	}
	return nil
}

func transcriptKey(patientID string) string {
	return transcriptKeyPrefix + patientID
}
