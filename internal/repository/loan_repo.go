package repository

import (
	"context"
	"errors"
	"time"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanStatusInvalid  = errors.New("invalid loan status transition")
	ErrGuarantorNotFound  = errors.New("user is not a guarantor on this loan")
	ErrGuarantorResponded = errors.New("guarantor decision already recorded")
)

type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, tx *gorm.DB, loan *model.Loan) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(loan).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.WithContext(ctx).
		Preload("Guarantors").
		First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *LoanRepository) ListByChama(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.Loan, int64, error) {
	var loans []*model.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Loan{}).Where("chama_id = ?", chamaID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Guarantors").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&loans).Error
	return loans, total, err
}

func (r *LoanRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Loan{}).
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

// UpdateStatus performs a compare-and-swap transition, validated against the
// loan state machine.
func (r *LoanRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, updates map[string]interface{}) error {
	if !model.LoanCanTransitionTo(fromStatus, toStatus) {
		return ErrLoanStatusInvalid
	}
	if tx == nil {
		tx = r.db
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus

	result := tx.WithContext(ctx).
		Model(&model.Loan{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLoanStatusInvalid
	}
	return nil
}

// AddPayment accumulates a repayment onto total_paid.
func (r *LoanRepository) AddPayment(ctx context.Context, tx *gorm.DB, id int64, amount int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Loan{}).
		Where("id = ?", id).
		Update("total_paid", gorm.Expr("total_paid + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

func (r *LoanRepository) SetPenalty(ctx context.Context, tx *gorm.DB, id int64, penalty int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Loan{}).
		Where("id = ?", id).
		Update("penalty_amount", penalty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// ============================================================================
// Guarantors
// ============================================================================

func (r *LoanRepository) CreateGuarantors(ctx context.Context, tx *gorm.DB, guarantors []model.LoanGuarantor) error {
	if len(guarantors) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&guarantors).Error
}

func (r *LoanRepository) GetGuarantor(ctx context.Context, loanID, userID int64) (*model.LoanGuarantor, error) {
	var guarantor model.LoanGuarantor
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND user_id = ?", loanID, userID).
		First(&guarantor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuarantorNotFound
		}
		return nil, err
	}
	return &guarantor, nil
}

// RespondGuarantor records an accept/reject decision. Write-once: the status
// guard rejects a second response.
func (r *LoanRepository) RespondGuarantor(ctx context.Context, loanID, userID int64, status string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.LoanGuarantor{}).
		Where("loan_id = ? AND user_id = ? AND status = ?", loanID, userID, model.GuarantorStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGuarantorResponded
	}
	return nil
}

func (r *LoanRepository) DeleteByChama(ctx context.Context, tx *gorm.DB, chamaID int64) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).
		Where("loan_id IN (?)", tx.Model(&model.Loan{}).Select("id").Where("chama_id = ?", chamaID)).
		Delete(&model.LoanGuarantor{}).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Delete(&model.Loan{}).Error
}
