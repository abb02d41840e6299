package model

import (
	"time"
)

// ============================================================================
// Chama lifecycle status
// ============================================================================

const (
	ChamaStatusPending   = "PENDING"
	ChamaStatusActive    = "ACTIVE"
	ChamaStatusRejected  = "REJECTED"
	ChamaStatusSuspended = "SUSPENDED"
	ChamaStatusClosed    = "CLOSED"
)

var ValidChamaTransitions = map[string][]string{
	ChamaStatusPending:   {ChamaStatusActive, ChamaStatusRejected},
	ChamaStatusActive:    {ChamaStatusSuspended, ChamaStatusClosed},
	ChamaStatusSuspended: {ChamaStatusActive, ChamaStatusClosed},
}

func ChamaCanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := ValidChamaTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// ============================================================================
// Operation types (payout strategy)
// ============================================================================

const (
	OperationEqualSharing  = "EQUAL_SHARING"
	OperationRotation      = "ROTATION_PAYOUT"
	OperationGroupPurchase = "GROUP_PURCHASE"
)

func IsValidOperationType(op string) bool {
	switch op {
	case OperationEqualSharing, OperationRotation, OperationGroupPurchase:
		return true
	}
	return false
}

// Chama is a pooled savings group. CurrentBalance is the single running total
// of spendable funds; all amounts are KES cents.
//
// Balance rules:
//  1. Debits go through a conditional UPDATE with a balance >= amount guard,
//     so the stored balance never goes negative.
//  2. Every financial operation takes the per-chama distributed lock first,
//     so read-check-write sequences against the same chama do not race.
type Chama struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	Description   string `gorm:"type:varchar(512)" json:"description"`
	CreatorID     int64  `gorm:"index;not null" json:"creator_id"`
	Status        string `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	OperationType string `gorm:"type:varchar(20);not null" json:"operation_type"`

	CurrentBalance int64 `gorm:"not null;default:0" json:"current_balance"` // KES cents
	Version        int   `gorm:"not null;default:0" json:"version"`         // optimistic lock

	// Strategy configuration. TargetAmount is the equal-sharing goal or the
	// per-period rotation payout; ContributionAmount is the expected member
	// contribution per period.
	TargetAmount       int64 `gorm:"not null;default:0" json:"target_amount"`
	ContributionAmount int64 `gorm:"not null;default:0" json:"contribution_amount"`
	LoanInterestBps    int   `gorm:"not null;default:0" json:"loan_interest_bps"` // monthly, basis points

	// Rotation payout state. RotationOrder is a JSON array of member user IDs.
	RotationOrder         string `gorm:"type:text" json:"rotation_order"`
	CurrentRecipientIndex int    `gorm:"not null;default:0" json:"current_recipient_index"`

	// Group purchase state: the currently active goal, nil when the queue is empty.
	CurrentGoalID *int64 `json:"current_goal_id"`

	RejectReason string    `gorm:"type:varchar(256)" json:"reject_reason,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Chama) TableName() string {
	return "chama"
}
