package model

import (
	"time"
)

const (
	ContributionStatusPending   = "PENDING"
	ContributionStatusConfirmed = "CONFIRMED"
	ContributionStatusFailed    = "FAILED"
)

var ValidContributionTransitions = map[string][]string{
	ContributionStatusPending: {ContributionStatusConfirmed, ContributionStatusFailed},
}

func ContributionCanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := ValidContributionTransitions[currentStatus]
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

const (
	PaymentMethodCash  = "CASH"
	PaymentMethodBank  = "BANK"
	PaymentMethodMpesa = "MPESA"
)

func IsValidManualMethod(method string) bool {
	return method == PaymentMethodCash || method == PaymentMethodBank
}

// Contribution is one inbound payment into a chama pool.
//
// Manual (cash/bank) contributions are created CONFIRMED by the treasurer or
// chairperson and credit the ledger in the same transaction. M-Pesa ones are
// created PENDING, keyed by the Daraja checkout_request_id, and resolved
// exactly once by the asynchronous callback. The ledger is only ever credited
// when status becomes CONFIRMED.
type Contribution struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ContributionNo string `gorm:"type:varchar(64);uniqueIndex;not null" json:"contribution_no"`
	ChamaID        int64  `gorm:"index;not null" json:"chama_id"`
	UserID         int64  `gorm:"index;not null" json:"user_id"`
	Amount         int64  `gorm:"not null" json:"amount"` // KES cents
	Method         string `gorm:"type:varchar(16);not null" json:"method"`
	Status         string `gorm:"type:varchar(16);index;not null" json:"status"`

	// M-Pesa correlation and receipt metadata.
	CheckoutRequestID *string `gorm:"type:varchar(64);uniqueIndex" json:"checkout_request_id,omitempty"`
	MerchantRequestID string  `gorm:"type:varchar(64)" json:"merchant_request_id,omitempty"`
	MpesaReceipt      string  `gorm:"type:varchar(32)" json:"mpesa_receipt,omitempty"`
	Phone             string  `gorm:"type:varchar(20)" json:"phone,omitempty"`

	FailureReason string     `gorm:"type:varchar(256)" json:"failure_reason,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contribution) TableName() string {
	return "contribution"
}
