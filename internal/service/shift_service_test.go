package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inventorypro/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type memorySnapshotter struct {
	mu    sync.Mutex
	saved *model.Shift
	saves int
}

func (m *memorySnapshotter) Save(_ context.Context, s *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = s.Clone()
	m.saves++
	return nil
}

func (m *memorySnapshotter) Load(context.Context) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return nil, nil
	}
	return m.saved.Clone(), nil
}

func (m *memorySnapshotter) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	return nil
}

type recordingReporter struct {
	closes []*model.ShiftClose
}

func (r *recordingReporter) EnqueueShiftReport(_ context.Context, sc *model.ShiftClose) error {
	r.closes = append(r.closes, sc)
	return nil
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestShift_EndToEnd(t *testing.T) {
	reporter := &recordingReporter{}
	reg := newRegisterWith(t, ShiftConfig{Reporter: reporter})
	ctx := context.Background()

	soda := reg.product(t, "Soda 500ml", "7790001", 10, "50")
	reg.open(t, "100")
	reg.sell(t, model.PaymentCash, "50", item(soda, 1))

	expected, err := reg.shifts.ExpectedCash(ctx)
	require.NoError(t, err)
	requireDec(t, "150", expected)

	sc, err := reg.shifts.CloseShift(ctx, dec("150"), "", "fridge door sticks")
	require.NoError(t, err)
	requireDec(t, "150", sc.ExpectedCash)
	requireDec(t, "0", sc.Difference)
	requireDec(t, "50", sc.TotalSales)
	assert.Equal(t, 1, sc.Transactions)
	assert.Equal(t, 1, sc.ProductsSold)
	assert.Equal(t, model.DeviationNormal, sc.Classification)

	closes, total, err := reg.shifts.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, closes, 1)
	assert.Equal(t, sc.ID, closes[0].ID)

	notes, err := reg.shifts.LastNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fridge door sticks", notes)

	require.Len(t, reporter.closes, 1)
	assert.Equal(t, sc.ID, reporter.closes[0].ID)

	_, err = reg.shifts.Active(ctx)
	assert.ErrorIs(t, err, ErrNoActiveShift)
}

func TestOpenShift_Errors(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()

	_, err := reg.shifts.OpenShift(ctx, Credentials{Identifier: "Tomas", Secret: "wrong"}, dec("100"), "")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, AuthReasonCredentials, authErr.Reason)
	assert.ErrorIs(t, err, ErrAuth)

	_, err = reg.shifts.OpenShift(ctx, Credentials{Secret: "1357"}, dec("-1"), "")
	assert.ErrorIs(t, err, ErrNegativeInitialCash)
	assert.ErrorIs(t, err, ErrValidation)

	shift := reg.open(t, "0")
	assert.Equal(t, "Tomas", shift.UserName)
	assert.Equal(t, model.RoleCashier, shift.UserRole)
	for _, m := range model.PaymentMethods {
		requireDec(t, "0", shift.SalesByMethod[m], m)
	}

	_, err = reg.shifts.OpenShift(ctx, Credentials{Secret: "4821"}, dec("10"), "")
	assert.ErrorIs(t, err, ErrShiftAlreadyOpen)
}

func TestOpenShift_RoleFilter(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()

	_, err := reg.shifts.OpenShift(ctx, Credentials{Secret: "4821", Role: model.RoleCashier}, dec("10"), "")
	assert.ErrorIs(t, err, ErrAuth)

	shift, err := reg.shifts.OpenShift(ctx, Credentials{Identifier: "laura", Secret: "admin-pass", Role: model.RoleAdmin}, dec("10"), "keys in drawer")
	require.NoError(t, err)
	assert.Equal(t, "Laura", shift.UserName)
	assert.Equal(t, "keys in drawer", shift.OpeningNotes)
}

func TestCloseShift_MissingJustificationKeepsShiftOpen(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	reg.open(t, "200")

	_, err := reg.shifts.CloseShift(ctx, dec("150"), "", "")
	require.ErrorIs(t, err, ErrJustificationRequired)

	// still active and still accepting commits
	_, err = reg.shifts.ApplyDelta(ctx, ShiftDelta{Transactions: 1})
	require.NoError(t, err)

	sc, err := reg.shifts.CloseShift(ctx, dec("150"), "paid the plumber in cash", "")
	require.NoError(t, err)
	requireDec(t, "-50", sc.Difference)
	assert.Equal(t, model.DeviationCritical, sc.Classification)
	assert.Equal(t, 1, sc.Transactions)
}

func TestShift_NoActiveShift(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()

	_, err := reg.shifts.Do(ctx, func(*model.Shift) (ShiftDelta, error) {
		t.Fatal("fn must not run without a shift")
		return ShiftDelta{}, nil
	})
	assert.ErrorIs(t, err, ErrNoActiveShift)

	_, err = reg.shifts.CloseShift(ctx, dec("0"), "", "")
	assert.ErrorIs(t, err, ErrNoActiveShift)

	_, err = reg.shifts.ExpectedCash(ctx)
	assert.ErrorIs(t, err, ErrNoActiveShift)

	notes, err := reg.shifts.LastNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestDo_FailureLeavesShiftUntouched(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	reg.open(t, "100")
	before := reg.active(t)

	boom := errors.New("persist failed")
	_, err := reg.shifts.Do(ctx, func(*model.Shift) (ShiftDelta, error) {
		return ShiftDelta{TotalSales: dec("999"), Transactions: 1}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, reg.active(t))
}

func TestApplyDelta_ConcurrentUpdatesAreNotLost(t *testing.T) {
	reg := newRegister(t)
	ctx := context.Background()
	reg.open(t, "0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.shifts.ApplyDelta(ctx, ShiftDelta{
				TotalSales:    dec("2"),
				CashSales:     dec("2"),
				Transactions:  1,
				SalesByMethod: map[model.PaymentMethod]decimal.Decimal{model.PaymentCash: dec("2")},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s := reg.active(t)
	assert.Equal(t, 50, s.Transactions)
	requireDec(t, "100", s.TotalSales)
	requireDec(t, "100", s.SalesByMethod[model.PaymentCash])
}

func TestShift_SnapshotRestore(t *testing.T) {
	snap := &memorySnapshotter{}
	start := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	reg := newRegisterWith(t, ShiftConfig{Snapshotter: snap, Clock: func() time.Time { return start }})
	ctx := context.Background()

	opened := reg.open(t, "80")
	_, err := reg.shifts.ApplyDelta(ctx, ShiftDelta{CashSales: dec("20"), TotalSales: dec("20"), Transactions: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.saves)

	// A new process with the same snapshot resumes the shift.
	restarted := newRegisterWith(t, ShiftConfig{Snapshotter: snap})
	restored, err := restarted.shifts.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, opened.ID, restored.ID)
	assert.Equal(t, 1, restored.Transactions)

	expected, err := restarted.shifts.ExpectedCash(ctx)
	require.NoError(t, err)
	requireDec(t, "100", expected)

	_, err = restarted.shifts.CloseShift(ctx, dec("100"), "", "")
	require.NoError(t, err)
	loaded, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestShift_RestoreWithoutSnapshot(t *testing.T) {
	reg := newRegister(t)
	restored, err := reg.shifts.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, restored)
}
