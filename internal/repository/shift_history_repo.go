package repository

import (
	"context"
	"errors"
	"sync"

	"inventorypro/internal/model"

	"gorm.io/gorm"
)

// ShiftHistoryRepository is the append-only store of closed shifts.
// Records are never updated or deleted.
type ShiftHistoryRepository interface {
	Append(ctx context.Context, sc *model.ShiftClose) error
	// List returns closed shifts newest first.
	List(ctx context.Context, page, limit int) ([]model.ShiftClose, int64, error)
	Last(ctx context.Context) (*model.ShiftClose, error)
}

// ── In-memory ─────────────────────────────────────────────────────────────────

type memoryShiftHistory struct {
	mu     sync.RWMutex
	closes []model.ShiftClose
}

func NewMemoryShiftHistory() ShiftHistoryRepository { return &memoryShiftHistory{} }

func (r *memoryShiftHistory) Append(_ context.Context, sc *model.ShiftClose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *sc
	stored.Shift = *sc.Shift.Clone()
	r.closes = append(r.closes, stored)
	return nil
}

func (r *memoryShiftHistory) List(_ context.Context, page, limit int) ([]model.ShiftClose, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := int64(len(r.closes))
	start := (page - 1) * limit
	if start >= len(r.closes) {
		return []model.ShiftClose{}, total, nil
	}
	end := min(start+limit, len(r.closes))
	out := make([]model.ShiftClose, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, r.closes[len(r.closes)-1-i])
	}
	return out, total, nil
}

func (r *memoryShiftHistory) Last(_ context.Context) (*model.ShiftClose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.closes) == 0 {
		return nil, ErrNotFound
	}
	last := r.closes[len(r.closes)-1]
	return &last, nil
}

// ── GORM (PostgreSQL) ─────────────────────────────────────────────────────────

type gormShiftHistory struct{ db *gorm.DB }

func NewShiftHistoryRepository(db *gorm.DB) ShiftHistoryRepository {
	return &gormShiftHistory{db: db}
}

func (r *gormShiftHistory) Append(ctx context.Context, sc *model.ShiftClose) error {
	return r.db.WithContext(ctx).Create(sc).Error
}

func (r *gormShiftHistory) List(ctx context.Context, page, limit int) ([]model.ShiftClose, int64, error) {
	var closes []model.ShiftClose
	var total int64

	q := r.db.WithContext(ctx).Model(&model.ShiftClose{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := q.Order("end_time DESC").Offset(offset).Limit(limit).Find(&closes).Error
	return closes, total, err
}

func (r *gormShiftHistory) Last(ctx context.Context) (*model.ShiftClose, error) {
	var sc model.ShiftClose
	err := r.db.WithContext(ctx).Order("end_time DESC").First(&sc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}
