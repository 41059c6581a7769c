package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"inventorypro/internal/infra"
	"inventorypro/internal/model"

	"github.com/rs/zerolog/log"
)

// EmailEnqueuer queues an email job; Dispatcher implements it.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// ShiftReportWorker renders the PDF of a closed shift and, when a recipient
// is configured, queues it for mailing.
type ShiftReportWorker struct {
	storagePath string
	storeName   string
	recipient   string
	emails      EmailEnqueuer
}

func NewShiftReportWorker(storagePath, storeName, recipient string, emails EmailEnqueuer) *ShiftReportWorker {
	return &ShiftReportWorker{
		storagePath: storagePath,
		storeName:   storeName,
		recipient:   recipient,
		emails:      emails,
	}
}

func (w *ShiftReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var sc model.ShiftClose
	if err := json.Unmarshal(raw, &sc); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return nil
	}

	path, err := infra.GenerateShiftReportPDF(&sc, w.storeName, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("shift_id", sc.ID.String()).Str("path", path).Msg("report_worker: shift report generated")

	if w.recipient == "" || w.emails == nil {
		return nil
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.recipient,
		Subject: fmt.Sprintf("%s shift report %s (%s)", w.storeName, sc.EndTime.Format("2006-01-02 15:04"), sc.UserName),
		Body: fmt.Sprintf("Expected cash %s, counted %s, difference %s (%s).",
			sc.ExpectedCash.StringFixed(2), sc.RealCash.StringFixed(2), sc.Difference.StringFixed(2), sc.Classification),
		AttachmentPath: path,
	})
}
