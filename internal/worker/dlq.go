package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that exhaust their attempts are parked in dlq:{queue} until someone
// looks at them. Nothing consumes these lists automatically.
const DLQPrefix = "dlq:"

// DeadLetter is one parked job. Undecodable envelopes keep their bytes in
// Raw since they cannot be embedded as JSON.
type DeadLetter struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Raw      string          `json:"raw,omitempty"`
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

type deadLetters struct {
	rdb *redis.Client
	now func() time.Time
}

func (d deadLetters) park(ctx context.Context, queue string, job Job, reason string) {
	d.push(ctx, DeadLetter{
		Queue:    queue,
		JobType:  job.Type,
		Payload:  job.Payload,
		Reason:   reason,
		Attempts: job.Attempts,
	})
}

func (d deadLetters) parkRaw(ctx context.Context, queue, raw, reason string) {
	d.push(ctx, DeadLetter{Queue: queue, Raw: raw, Reason: reason})
}

func (d deadLetters) push(ctx context.Context, entry DeadLetter) {
	entry.FailedAt = d.now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", entry.Queue).Msg("dlq: encode entry")
		return
	}
	if err := d.rdb.LPush(ctx, DLQPrefix+entry.Queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", entry.Queue).Msg("dlq: push entry")
		return
	}
	log.Warn().
		Str("queue", entry.Queue).
		Str("job_type", entry.JobType).
		Str("reason", entry.Reason).
		Int("attempts", entry.Attempts).
		Msg("job parked in dead letter queue")
}

// DLQLength is reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
