package repository

import (
	"context"
	"errors"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrMemberNotFound = errors.New("chama member not found")
	ErrAlreadyMember  = errors.New("user is already a member of this chama")
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, tx *gorm.DB, member *model.ChamaMember) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).Create(member).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyMember
	}
	return err
}

// Get returns the membership for (chamaID, userID), or ErrMemberNotFound.
func (r *MemberRepository) Get(ctx context.Context, chamaID, userID int64) (*model.ChamaMember, error) {
	var member model.ChamaMember
	err := r.db.WithContext(ctx).
		Where("chama_id = ? AND user_id = ?", chamaID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) ListByChama(ctx context.Context, chamaID int64) ([]*model.ChamaMember, error) {
	var members []*model.ChamaMember
	err := r.db.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// ListActive returns active members in join order; this is the population for
// equal-sharing distributions and rotation order validation.
func (r *MemberRepository) ListActive(ctx context.Context, chamaID int64) ([]*model.ChamaMember, error) {
	var members []*model.ChamaMember
	err := r.db.WithContext(ctx).
		Where("chama_id = ? AND status = ?", chamaID, model.MemberStatusActive).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *MemberRepository) CountActive(ctx context.Context, chamaID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChamaMember{}).
		Where("chama_id = ? AND status = ?", chamaID, model.MemberStatusActive).
		Count(&count).Error
	return count, err
}

func (r *MemberRepository) UpdateRole(ctx context.Context, chamaID, userID int64, role string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ChamaMember{}).
		Where("chama_id = ? AND user_id = ?", chamaID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) UpdateStatus(ctx context.Context, chamaID, userID int64, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ChamaMember{}).
		Where("chama_id = ? AND user_id = ?", chamaID, userID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) Delete(ctx context.Context, tx *gorm.DB, chamaID, userID int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Where("chama_id = ? AND user_id = ?", chamaID, userID).
		Delete(&model.ChamaMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// DeleteByChama removes all memberships of a chama (admin cascade).
func (r *MemberRepository) DeleteByChama(ctx context.Context, tx *gorm.DB, chamaID int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Delete(&model.ChamaMember{}).Error
}
