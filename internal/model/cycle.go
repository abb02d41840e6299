package model

import (
	"time"
)

const (
	CycleTypeEqualSharing  = "EQUAL_SHARING"
	CycleTypeRotation      = "ROTATION_PAYOUT"
	CycleTypeGroupPurchase = "GROUP_PURCHASE"
)

const (
	CycleStatusCompleted = "COMPLETED"
	CycleStatusPartial   = "PARTIAL" // rotation payout disbursed below target
)

// ChamaCycle is the immutable historical record of one payout event: one row
// per equal-sharing distribution, rotation payout, or completed purchase goal.
// Rows are append-only; nothing in the application updates or deletes them.
type ChamaCycle struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CycleNo string `gorm:"type:varchar(64);uniqueIndex;not null" json:"cycle_no"`
	ChamaID int64  `gorm:"index;not null" json:"chama_id"`
	Type    string `gorm:"type:varchar(20);not null" json:"type"`
	Status  string `gorm:"type:varchar(16);not null" json:"status"`

	// Single-recipient payouts (rotation, group purchase).
	RecipientID *int64 `gorm:"index" json:"recipient_id,omitempty"`
	GoalID      *int64 `json:"goal_id,omitempty"`

	Amount    int64  `gorm:"not null" json:"amount"`              // total disbursed, KES cents
	Shortfall int64  `gorm:"not null;default:0" json:"shortfall"` // target minus disbursed, partial rotation only
	Note      string `gorm:"type:varchar(256)" json:"note,omitempty"`

	// Equal-sharing payout list as JSON: [{"user_id":1,"amount":50000},...]
	Payouts string `gorm:"type:text" json:"payouts,omitempty"`

	ExecutedBy int64     `gorm:"not null" json:"executed_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ChamaCycle) TableName() string {
	return "chama_cycle"
}

// CyclePayout is one entry in an equal-sharing distribution list.
type CyclePayout struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}
