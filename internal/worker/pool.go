package worker

import (
	"context"
	"encoding/json"
	"time"

	"inventorypro/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueShiftReport = "jobs:shift_report"
	QueueEmail       = "jobs:email"

	JobShiftReport = "shift_report"
	JobEmail       = "email"

	// MaxAttempts is how often a job is tried before it lands in the DLQ.
	MaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueShiftReport queues the PDF report of a closed shift.
func (d *Dispatcher) EnqueueShiftReport(ctx context.Context, sc *model.ShiftClose) error {
	return d.enqueue(ctx, QueueShiftReport, Job{Type: JobShiftReport}, sc)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, Job{Type: JobEmail}, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	return d.push(ctx, queue, job)
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Pool runs workers that consume every queue with a registered handler.
type Pool struct {
	dispatcher *Dispatcher
	dlq        deadLetters
	handlers   map[string]Handler
	queues     map[string]string
}

func NewPool(d *Dispatcher) *Pool {
	return &Pool{
		dispatcher: d,
		dlq:        deadLetters{rdb: d.rdb, now: time.Now},
		handlers:   make(map[string]Handler),
		queues:     make(map[string]string),
	}
}

// Register binds a job type consumed from queue to h.
func (p *Pool) Register(queue, jobType string, h Handler) {
	p.handlers[jobType] = h
	p.queues[queue] = jobType
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	queues := make([]string, 0, len(p.queues))
	for q := range p.queues {
		queues = append(queues, q)
	}
	if len(queues) == 0 {
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i, queues)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int, queues []string) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			result, err := p.dispatcher.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil || len(result) < 2 {
				continue // timeout or context cancelled
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.dlq.parkRaw(ctx, queue, raw, err.Error())
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		p.dlq.park(ctx, queue, job, "no handler registered")
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		return
	}
	if job.Attempts >= MaxAttempts {
		p.dlq.park(ctx, queue, job, err.Error())
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
	if perr := p.dispatcher.push(ctx, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Str("type", job.Type).Msg("failed to requeue job")
	}
}
