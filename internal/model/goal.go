package model

import (
	"time"
)

const (
	GoalStatusQueued    = "QUEUED"
	GoalStatusActive    = "ACTIVE"
	GoalStatusCompleted = "COMPLETED"
)

// PurchaseGoal is one beneficiary purchase target in a group-purchase chama.
// Exactly one goal per chama is ACTIVE at a time (tracked by
// chama.current_goal_id); completing it activates the lowest-order QUEUED goal.
type PurchaseGoal struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID       int64      `gorm:"index;not null" json:"chama_id"`
	BeneficiaryID int64      `gorm:"index;not null" json:"beneficiary_id"`
	Title         string     `gorm:"type:varchar(128);not null" json:"title"`
	Description   string     `gorm:"type:varchar(512)" json:"description"`
	TargetAmount  int64      `gorm:"not null" json:"target_amount"` // KES cents
	PurchaseOrder int        `gorm:"not null" json:"purchase_order"`
	Status        string     `gorm:"type:varchar(16);index;not null;default:QUEUED" json:"status"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PurchaseGoal) TableName() string {
	return "purchase_goal"
}
