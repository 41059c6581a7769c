//go:build integration

package router

// Runs the register against real Postgres and Redis via testcontainers:
//   go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inventorypro/internal/config"
	"inventorypro/internal/infra"
	"inventorypro/internal/model"
	"inventorypro/internal/repository"
	"inventorypro/internal/service"
	"inventorypro/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

// ── Test environment ──────────────────────────────────────────────────────────

type backends struct {
	cfg *config.Config
	db  *gorm.DB
	rdb *redis.Client
}

func startBackends(t *testing.T) *backends {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("register_test"),
		tcPostgres.WithUsername("register"),
		tcPostgres.WithPassword("register"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 1,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		ReportStoragePath:  t.TempDir(),
		StoreName:          "Corner Store",
		WorkerPoolSize:     1,
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	return &backends{cfg: cfg, db: db, rdb: rdb}
}

// engine wires one register process on top of the shared backends, the same
// way cmd/server does.
func (b *backends) engine(t *testing.T, ctx context.Context) (*gin.Engine, service.ShiftService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	directory := service.NewUserDirectory(testUsers)
	dispatcher := worker.NewDispatcher(b.rdb)

	pool := worker.NewPool(dispatcher)
	pool.Register(worker.QueueShiftReport, worker.JobShiftReport,
		worker.NewShiftReportWorker(b.cfg.ReportStoragePath, b.cfg.StoreName, "", dispatcher))
	pool.Start(ctx, b.cfg.WorkerPoolSize)

	shifts := service.NewShiftService(directory, repository.NewShiftHistoryRepository(b.db), service.ShiftConfig{
		Snapshotter: infra.NewShiftSnapshotStore(b.rdb, time.Hour),
		Reporter:    dispatcher,
	})
	_, err := shifts.Restore(ctx)
	require.NoError(t, err)

	repos := service.NewLedgerRepositories()
	gate := service.NewGateService(directory, shifts, repos.Expenses, 0)
	return New(b.cfg, Deps{
		DB:     b.db,
		Redis:  b.rdb,
		Shifts: shifts,
		Auth:   service.NewAuthService(directory, b.cfg.JWTSecret, b.cfg.JWTExpirationHours),
		POS:    service.NewPOSService(repos.Products, repos.Packs, repos.Sales, repos.Credits, repos.Refunds, shifts, gate),
		Gate:   gate,
		Ledger: service.NewLedgerService(repos, shifts),
	}), shifts
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestIntegration_ShiftSurvivesRestartAndIsReported(t *testing.T) {
	b := startBackends(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r, _ := b.engine(t, ctx)
	w := do(t, r, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"db":"connected","redis":"connected","dlq_length":0}`, w.Body.String())

	admin := adminToken(t, r)
	w = do(t, r, http.MethodPost, "/v1/products", map[string]any{"name": "Coffee beans", "stock": 10, "price": "12.50"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cashier := openShift(t, r, "50")
	w = do(t, r, http.MethodPost, "/v1/sales", map[string]any{
		"items": []map[string]any{{"code": "coffee", "quantity": 2}}, "payment_method": "cash", "amount_received": "25",
	}, cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	snap, err := infra.NewShiftSnapshotStore(b.rdb, 0).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Transactions)

	// A second process picks the shift up from the snapshot and closes it.
	restarted, shifts := b.engine(t, ctx)
	active, err := shifts.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, active.ID)
	requireDec(t, "25", active.CashSales)

	w = do(t, restarted, http.MethodPost, "/v1/shift/close", map[string]any{"real_cash": "75", "notes_for_next": "order beans"}, cashier)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[model.ShiftClose](t, w)
	assert.Equal(t, model.DeviationNormal, closed.Classification)

	closes, total, err := repository.NewShiftHistoryRepository(b.db).List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, closes, 1)
	assert.Equal(t, active.ID, closes[0].ID)
	requireDec(t, "75", closes[0].ExpectedCash)
	requireDec(t, "25", closes[0].SalesByMethod[model.PaymentCash])

	snap, err = infra.NewShiftSnapshotStore(b.rdb, 0).Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	report := filepath.Join(b.cfg.ReportStoragePath, "shift_"+active.ID.String()+".pdf")
	require.Eventually(t, func() bool {
		_, err := os.Stat(report)
		return err == nil
	}, 20*time.Second, 200*time.Millisecond)

	w = do(t, restarted, http.MethodGet, "/v1/shift/notes", nil, "")
	assert.JSONEq(t, `{"notes_for_next":"order beans"}`, w.Body.String())
}

func TestIntegration_UnknownJobsLandInDLQ(t *testing.T) {
	b := startBackends(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r, _ := b.engine(t, ctx)
	require.NoError(t, b.rdb.LPush(ctx, worker.QueueShiftReport, `{"type":"legacy_invoice","payload":{}}`).Err())

	require.Eventually(t, func() bool {
		n, err := worker.DLQLength(ctx, b.rdb, worker.QueueShiftReport)
		return err == nil && n == 1
	}, 20*time.Second, 200*time.Millisecond)

	w := do(t, r, http.MethodGet, "/health", nil, "")
	assert.Contains(t, w.Body.String(), `"dlq_length":1`)
}
