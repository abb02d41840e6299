package repository

import (
	"context"
	"errors"
	"time"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrContributionNotFound = errors.New("contribution not found")
	ErrContributionResolved = errors.New("contribution already resolved")
)

type ContributionRepository struct {
	db *gorm.DB
}

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) Create(ctx context.Context, tx *gorm.DB, contribution *model.Contribution) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(contribution).Error
}

func (r *ContributionRepository) GetByID(ctx context.Context, id int64) (*model.Contribution, error) {
	var contribution model.Contribution
	err := r.db.WithContext(ctx).First(&contribution, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContributionNotFound
		}
		return nil, err
	}
	return &contribution, nil
}

// GetByCheckoutID resolves an M-Pesa callback to its pending contribution.
// Returns (nil, nil) when the correlation id is unknown.
func (r *ContributionRepository) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Contribution, error) {
	var contribution model.Contribution
	err := r.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&contribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contribution, nil
}

// Confirm flips a PENDING contribution to CONFIRMED with receipt metadata.
// The status guard makes callback replays no-ops (zero rows affected).
func (r *ContributionRepository) Confirm(ctx context.Context, tx *gorm.DB, id int64, receipt, phone string) error {
	if tx == nil {
		tx = r.db
	}
	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("id = ? AND status = ?", id, model.ContributionStatusPending).
		Updates(map[string]interface{}{
			"status":        model.ContributionStatusConfirmed,
			"mpesa_receipt": receipt,
			"phone":         phone,
			"confirmed_at":  &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContributionResolved
	}
	return nil
}

// MarkFailed flips a PENDING contribution to FAILED with a reason.
func (r *ContributionRepository) MarkFailed(ctx context.Context, tx *gorm.DB, id int64, reason string) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("id = ? AND status = ?", id, model.ContributionStatusPending).
		Updates(map[string]interface{}{
			"status":         model.ContributionStatusFailed,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContributionResolved
	}
	return nil
}

// ListByChama returns confirmed contributions plus the caller's own pending
// ones, newest first.
func (r *ContributionRepository) ListByChama(ctx context.Context, chamaID, callerID int64, page, pageSize int) ([]*model.Contribution, int64, error) {
	var contributions []*model.Contribution
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("chama_id = ?", chamaID).
		Where("status = ? OR (status = ? AND user_id = ?)",
			model.ContributionStatusConfirmed, model.ContributionStatusPending, callerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&contributions).Error
	return contributions, total, err
}

// ListPendingBefore returns stale PENDING mpesa contributions for the timeout job.
func (r *ContributionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Contribution, error) {
	var contributions []*model.Contribution
	err := r.db.WithContext(ctx).
		Where("status = ? AND method = ? AND created_at < ?",
			model.ContributionStatusPending, model.PaymentMethodMpesa, cutoff).
		Limit(limit).
		Find(&contributions).Error
	return contributions, err
}

// SumConfirmedByChama totals confirmed inflows, used by the admin dashboard.
func (r *ContributionRepository) SumConfirmedByChama(ctx context.Context, chamaID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("chama_id = ? AND status = ?", chamaID, model.ContributionStatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *ContributionRepository) DeleteByChama(ctx context.Context, tx *gorm.DB, chamaID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Delete(&model.Contribution{}).Error
}
