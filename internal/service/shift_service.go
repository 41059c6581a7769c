package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"inventorypro/internal/model"
	"inventorypro/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Credentials identify the cashier opening a shift. Role is optional; when
// set, only users holding that role can match.
type Credentials struct {
	Identifier string
	Secret     string
	Role       model.Role
}

// ShiftDelta is an additive update of the shift aggregate. Numeric fields are
// increments, list fields are appended. Zero values leave a field untouched.
type ShiftDelta struct {
	SalesByMethod map[model.PaymentMethod]decimal.Decimal

	TotalSales    decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalPayments decimal.Decimal
	CashSales     decimal.Decimal
	CashExpenses  decimal.Decimal
	CashPayments  decimal.Decimal

	Transactions     int
	CreditsCreated   int
	PaymentsReceived int
	ProductsSold     int

	PaidIns  []model.CashMovement
	PaidOuts []model.CashMovement
	Refunds  []model.Refund
}

func (d ShiftDelta) applyTo(s *model.Shift) {
	for m, amount := range d.SalesByMethod {
		s.SalesByMethod[m] = s.SalesByMethod[m].Add(amount)
	}
	s.TotalSales = s.TotalSales.Add(d.TotalSales)
	s.TotalExpenses = s.TotalExpenses.Add(d.TotalExpenses)
	s.TotalPayments = s.TotalPayments.Add(d.TotalPayments)
	s.CashSales = s.CashSales.Add(d.CashSales)
	s.CashExpenses = s.CashExpenses.Add(d.CashExpenses)
	s.CashPayments = s.CashPayments.Add(d.CashPayments)
	s.Transactions += d.Transactions
	s.CreditsCreated += d.CreditsCreated
	s.PaymentsReceived += d.PaymentsReceived
	s.ProductsSold += d.ProductsSold
	s.PaidIns = append(s.PaidIns, d.PaidIns...)
	s.PaidOuts = append(s.PaidOuts, d.PaidOuts...)
	s.Refunds = append(s.Refunds, d.Refunds...)
}

// ShiftSnapshotter persists the live shift opportunistically so a restart can
// resume it. Failures never block the register.
type ShiftSnapshotter interface {
	Save(ctx context.Context, s *model.Shift) error
	Load(ctx context.Context) (*model.Shift, error)
	Clear(ctx context.Context) error
}

// ShiftReporter receives closed shifts for asynchronous reporting.
type ShiftReporter interface {
	EnqueueShiftReport(ctx context.Context, sc *model.ShiftClose) error
}

type noopSnapshotter struct{}

func (noopSnapshotter) Save(context.Context, *model.Shift) error   { return nil }
func (noopSnapshotter) Load(context.Context) (*model.Shift, error) { return nil, nil }
func (noopSnapshotter) Clear(context.Context) error                { return nil }

type ShiftService interface {
	OpenShift(ctx context.Context, creds Credentials, initialCash decimal.Decimal, notes string) (*model.Shift, error)
	// Active returns a copy of the live shift or ErrNoActiveShift.
	Active(ctx context.Context) (*model.Shift, error)
	// ApplyDelta is the only mutator of the shift aggregate.
	ApplyDelta(ctx context.Context, delta ShiftDelta) (*model.Shift, error)
	// Do runs fn against a copy of the live shift while holding the shift lock
	// and applies the returned delta only when fn succeeds. fn must not call
	// back into the ShiftService.
	Do(ctx context.Context, fn func(current *model.Shift) (ShiftDelta, error)) (*model.Shift, error)
	ExpectedCash(ctx context.Context) (decimal.Decimal, error)
	CloseShift(ctx context.Context, realCash decimal.Decimal, justification, notesForNext string) (*model.ShiftClose, error)
	History(ctx context.Context, page, limit int) ([]model.ShiftClose, int64, error)
	// LastNotes returns the notes left by the previous shift for the login screen.
	LastNotes(ctx context.Context) (string, error)
	// Restore resumes a snapshotted shift after a restart.
	Restore(ctx context.Context) (*model.Shift, error)
}

type shiftState int

const (
	stateNoShift shiftState = iota
	stateActive
	stateClosing
)

// ShiftConfig carries the optional collaborators of the shift manager.
type ShiftConfig struct {
	JustificationThreshold decimal.Decimal
	Snapshotter            ShiftSnapshotter
	Reporter               ShiftReporter
	Clock                  func() time.Time
}

type shiftService struct {
	mu    sync.Mutex
	state shiftState
	shift *model.Shift

	users       *UserDirectory
	history     repository.ShiftHistoryRepository
	reconciler  Reconciler
	snapshotter ShiftSnapshotter
	reporter    ShiftReporter
	now         func() time.Time
}

func NewShiftService(users *UserDirectory, history repository.ShiftHistoryRepository, cfg ShiftConfig) ShiftService {
	s := &shiftService{
		users:       users,
		history:     history,
		reconciler:  NewReconciler(cfg.JustificationThreshold),
		snapshotter: cfg.Snapshotter,
		reporter:    cfg.Reporter,
		now:         cfg.Clock,
	}
	if s.snapshotter == nil {
		s.snapshotter = noopSnapshotter{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ── OpenShift ─────────────────────────────────────────────────────────────────

func (s *shiftService) OpenShift(ctx context.Context, creds Credentials, initialCash decimal.Decimal, notes string) (*model.Shift, error) {
	user, policy, ok := s.users.FindUser(creds.Identifier, creds.Secret, creds.Role)
	if !ok {
		log.Warn().Str("identifier", creds.Identifier).Str("role", string(creds.Role)).Msg("shift open rejected: credentials")
		return nil, authError(AuthReasonCredentials)
	}
	if initialCash.IsNegative() {
		return nil, ErrNegativeInitialCash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateNoShift {
		return nil, ErrShiftAlreadyOpen
	}

	s.shift = model.NewShift(user, initialCash, strings.TrimSpace(notes), s.now())
	s.state = stateActive
	s.saveSnapshotLocked(ctx)

	log.Info().
		Str("shift_id", s.shift.ID.String()).
		Str("user", user.Name).
		Str("match", policy.String()).
		Str("initial_cash", initialCash.StringFixed(2)).
		Msg("shift opened")
	return s.shift.Clone(), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *shiftService) Active(_ context.Context) (*model.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shift == nil {
		return nil, ErrNoActiveShift
	}
	return s.shift.Clone(), nil
}

func (s *shiftService) ExpectedCash(ctx context.Context) (decimal.Decimal, error) {
	shift, err := s.Active(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeExpectedCash(shift), nil
}

func (s *shiftService) History(ctx context.Context, page, limit int) ([]model.ShiftClose, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.history.List(ctx, page, limit)
}

func (s *shiftService) LastNotes(ctx context.Context) (string, error) {
	last, err := s.history.Last(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return last.NotesForNext, nil
}

// ── Mutation ──────────────────────────────────────────────────────────────────

func (s *shiftService) ApplyDelta(ctx context.Context, delta ShiftDelta) (*model.Shift, error) {
	return s.Do(ctx, func(*model.Shift) (ShiftDelta, error) { return delta, nil })
}

func (s *shiftService) Do(ctx context.Context, fn func(current *model.Shift) (ShiftDelta, error)) (*model.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateNoShift:
		return nil, ErrNoActiveShift
	case stateClosing:
		return nil, ErrShiftClosing
	}

	delta, err := fn(s.shift.Clone())
	if err != nil {
		return nil, err
	}
	delta.applyTo(s.shift)
	s.saveSnapshotLocked(ctx)
	return s.shift.Clone(), nil
}

// ── CloseShift ────────────────────────────────────────────────────────────────
// Active → Closing → NoShift. A missing justification puts the shift back to
// Active so the cashier can retry.

func (s *shiftService) CloseShift(ctx context.Context, realCash decimal.Decimal, justification, notesForNext string) (*model.ShiftClose, error) {
	s.mu.Lock()
	switch s.state {
	case stateNoShift:
		s.mu.Unlock()
		return nil, ErrNoActiveShift
	case stateClosing:
		s.mu.Unlock()
		return nil, ErrShiftClosing
	}
	s.state = stateClosing
	snapshot := s.shift.Clone()
	s.mu.Unlock()

	sc, err := s.reconciler.Reconcile(snapshot, realCash, justification, notesForNext, s.now())
	if err == nil {
		err = s.history.Append(ctx, sc)
	}
	if err != nil {
		s.mu.Lock()
		s.state = stateActive
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.shift = nil
	s.state = stateNoShift
	s.mu.Unlock()

	if err := s.snapshotter.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("shift snapshot: clear failed")
	}
	if s.reporter != nil {
		if err := s.reporter.EnqueueShiftReport(ctx, sc); err != nil {
			log.Error().Err(err).Str("shift_id", sc.ID.String()).Msg("failed to enqueue shift report")
		}
	}

	log.Info().
		Str("shift_id", sc.ID.String()).
		Str("expected_cash", sc.ExpectedCash.StringFixed(2)).
		Str("real_cash", sc.RealCash.StringFixed(2)).
		Str("difference", sc.Difference.StringFixed(2)).
		Str("classification", sc.Classification).
		Int("duration_minutes", sc.DurationMinutes).
		Msg("shift closed")
	return sc, nil
}

// ── Snapshot ──────────────────────────────────────────────────────────────────

func (s *shiftService) Restore(ctx context.Context) (*model.Shift, error) {
	snap, err := s.snapshotter.Load(ctx)
	if err != nil || snap == nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateNoShift {
		return nil, ErrShiftAlreadyOpen
	}
	if snap.SalesByMethod == nil {
		snap.SalesByMethod = make(map[model.PaymentMethod]decimal.Decimal, len(model.PaymentMethods))
	}
	for _, m := range model.PaymentMethods {
		if _, ok := snap.SalesByMethod[m]; !ok {
			snap.SalesByMethod[m] = decimal.Zero
		}
	}
	s.shift = snap
	s.state = stateActive
	log.Info().Str("shift_id", snap.ID.String()).Str("user", snap.UserName).Msg("shift restored from snapshot")
	return s.shift.Clone(), nil
}

func (s *shiftService) saveSnapshotLocked(ctx context.Context) {
	if err := s.snapshotter.Save(ctx, s.shift.Clone()); err != nil {
		log.Warn().Err(err).Str("shift_id", s.shift.ID.String()).Msg("shift snapshot: save failed")
	}
}
