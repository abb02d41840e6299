package repository

import (
	"context"
	"errors"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrChamaNotFound        = errors.New("chama not found")
	ErrBalanceNotEnough     = errors.New("insufficient chama balance")
	ErrChamaStatusInvalid   = errors.New("invalid chama status transition")
	ErrRotationStateChanged = errors.New("rotation state changed concurrently")
)

type ChamaRepository struct {
	db *gorm.DB
}

func NewChamaRepository(db *gorm.DB) *ChamaRepository {
	return &ChamaRepository{db: db}
}

func (r *ChamaRepository) Create(ctx context.Context, tx *gorm.DB, chama *model.Chama) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(chama).Error
}

func (r *ChamaRepository) GetByID(ctx context.Context, id int64) (*model.Chama, error) {
	var chama model.Chama
	err := r.db.WithContext(ctx).First(&chama, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChamaNotFound
		}
		return nil, err
	}
	return &chama, nil
}

func (r *ChamaRepository) GetByName(ctx context.Context, name string) (*model.Chama, error) {
	var chama model.Chama
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&chama).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chama, nil
}

// ListByUser returns the chamas the user is an active member of.
func (r *ChamaRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Chama, error) {
	var chamas []*model.Chama
	err := r.db.WithContext(ctx).
		Joins("JOIN chama_member ON chama_member.chama_id = chama.id").
		Where("chama_member.user_id = ? AND chama_member.status = ?", userID, model.MemberStatusActive).
		Find(&chamas).Error
	return chamas, err
}

func (r *ChamaRepository) List(ctx context.Context, status string, page, pageSize int) ([]*model.Chama, int64, error) {
	var chamas []*model.Chama
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Chama{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&chamas).Error
	return chamas, total, err
}

func (r *ChamaRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Chama{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *ChamaRepository) TotalHeldBalance(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Chama{}).
		Select("COALESCE(SUM(current_balance), 0)").
		Scan(&total).Error
	return total, err
}

// UpdateStatus performs a compare-and-swap status transition.
func (r *ChamaRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus, reason string) error {
	if !model.ChamaCanTransitionTo(fromStatus, toStatus) {
		return ErrChamaStatusInvalid
	}
	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{"status": toStatus}
	if reason != "" {
		updates["reject_reason"] = reason
	}

	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChamaStatusInvalid
	}
	return nil
}

// IncreaseBalance credits the pool. Always succeeds for an existing chama.
func (r *ChamaRepository) IncreaseBalance(ctx context.Context, tx *gorm.DB, id int64, amount int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_balance": gorm.Expr("current_balance + ?", amount),
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChamaNotFound
	}
	return nil
}

// DeductBalance debits the pool with a balance guard so the stored balance
// never goes negative, even if two debits race past the service-level lock.
func (r *ChamaRepository) DeductBalance(ctx context.Context, tx *gorm.DB, id int64, amount int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ? AND current_balance >= ?", id, amount).
		Updates(map[string]interface{}{
			"current_balance": gorm.Expr("current_balance - ?", amount),
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		chama, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if chama.CurrentBalance < amount {
			return ErrBalanceNotEnough
		}
		return ErrChamaNotFound
	}
	return nil
}

// ResetBalance zeroes the pool after a full equal-sharing distribution.
// Guarded on the expected balance so a concurrent credit is not silently lost.
func (r *ChamaRepository) ResetBalance(ctx context.Context, tx *gorm.DB, id int64, expectedBalance int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ? AND current_balance = ?", id, expectedBalance).
		Updates(map[string]interface{}{
			"current_balance": 0,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBalanceNotEnough
	}
	return nil
}

// UpdateRotation saves a new rotation order and recipient index.
func (r *ChamaRepository) UpdateRotation(ctx context.Context, tx *gorm.DB, id int64, orderJSON string, index int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rotation_order":          orderJSON,
			"current_recipient_index": index,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChamaNotFound
	}
	return nil
}

// AdvanceRotationIndex moves the recipient pointer, guarded on the index we
// read so two concurrent payouts cannot both advance from the same position.
func (r *ChamaRepository) AdvanceRotationIndex(ctx context.Context, tx *gorm.DB, id int64, fromIndex, toIndex int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ? AND current_recipient_index = ?", id, fromIndex).
		Update("current_recipient_index", toIndex)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRotationStateChanged
	}
	return nil
}

// SetCurrentGoal updates the active-goal pointer; nil clears it.
func (r *ChamaRepository) SetCurrentGoal(ctx context.Context, tx *gorm.DB, id int64, goalID *int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Chama{}).
		Where("id = ?", id).
		Update("current_goal_id", goalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChamaNotFound
	}
	return nil
}

// Delete removes the chama row. Dependent rows are removed by the admin
// cascade in the same transaction.
func (r *ChamaRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(&model.Chama{}, id).Error
}
