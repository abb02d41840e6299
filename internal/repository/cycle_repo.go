package repository

import (
	"context"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

// CycleRepository is append-and-read only: cycle rows are immutable history.
type CycleRepository struct {
	db *gorm.DB
}

func NewCycleRepository(db *gorm.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

func (r *CycleRepository) Create(ctx context.Context, tx *gorm.DB, cycle *model.ChamaCycle) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(cycle).Error
}

func (r *CycleRepository) ListByChama(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.ChamaCycle, int64, error) {
	var cycles []*model.ChamaCycle
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ChamaCycle{}).Where("chama_id = ?", chamaID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&cycles).Error
	return cycles, total, err
}

func (r *CycleRepository) DeleteByChama(ctx context.Context, tx *gorm.DB, chamaID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Delete(&model.ChamaCycle{}).Error
}
