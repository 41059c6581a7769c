package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail        string `json:"to_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}

// Sender delivers one email; infra.Mailer implements it.
type Sender interface {
	Send(to, subject, body, attachmentPath string) error
}

// sendAttempts is the in-process retry budget per job; the pool requeues the
// job on top of it.
const sendAttempts = 3

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	sender    Sender
	retryBase time.Duration
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender, retryBase: time.Second}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil // malformed payloads are not retried
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	err := withRetry(ctx, sendAttempts, w.retryBase, func(attempt int) error {
		if attempt > 0 {
			log.Warn().Int("attempt", attempt+1).Str("to", payload.ToEmail).Msg("email_worker: retrying")
		}
		return w.sender.Send(payload.ToEmail, payload.Subject, payload.Body, payload.AttachmentPath)
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: sent")
	return nil
}
