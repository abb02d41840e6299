package repository

import (
	"context"
	"errors"
	"time"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrGoalNotFound      = errors.New("purchase goal not found")
	ErrGoalStatusChanged = errors.New("goal status changed concurrently")
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, tx *gorm.DB, goal *model.PurchaseGoal) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(goal).Error
}

func (r *GoalRepository) GetByID(ctx context.Context, id int64) (*model.PurchaseGoal, error) {
	var goal model.PurchaseGoal
	err := r.db.WithContext(ctx).First(&goal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) ListByChama(ctx context.Context, chamaID int64) ([]*model.PurchaseGoal, error) {
	var goals []*model.PurchaseGoal
	err := r.db.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Order("purchase_order ASC").
		Find(&goals).Error
	return goals, err
}

// NextQueued returns the lowest-order QUEUED goal, or nil when the queue is empty.
func (r *GoalRepository) NextQueued(ctx context.Context, tx *gorm.DB, chamaID int64) (*model.PurchaseGoal, error) {
	if tx == nil {
		tx = r.db
	}
	var goal model.PurchaseGoal
	err := tx.WithContext(ctx).
		Where("chama_id = ? AND status = ?", chamaID, model.GoalStatusQueued).
		Order("purchase_order ASC").
		First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

// MaxOrder returns the highest purchase_order in the chama (0 when empty).
func (r *GoalRepository) MaxOrder(ctx context.Context, chamaID int64) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.PurchaseGoal{}).
		Where("chama_id = ?", chamaID).
		Select("COALESCE(MAX(purchase_order), 0)").
		Scan(&max).Error
	return max, err
}

// UpdateStatus flips a goal between queue states, guarded on the old status.
func (r *GoalRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string) error {
	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{"status": toStatus}
	if toStatus == model.GoalStatusCompleted {
		now := time.Now()
		updates["completed_at"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.PurchaseGoal{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGoalStatusChanged
	}
	return nil
}

func (r *GoalRepository) DeleteByChama(ctx context.Context, tx *gorm.DB, chamaID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Delete(&model.PurchaseGoal{}).Error
}
