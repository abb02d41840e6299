package model

import (
	"time"
)

// ============================================================================
// Loan status
// ============================================================================

const (
	LoanStatusPending   = "PENDING"
	LoanStatusActive    = "ACTIVE"
	LoanStatusRejected  = "REJECTED"
	LoanStatusDefaulted = "DEFAULTED"
	LoanStatusRepaid    = "REPAID"
)

// Approval disburses immediately, so an approved loan goes straight to ACTIVE.
var ValidLoanTransitions = map[string][]string{
	LoanStatusPending:   {LoanStatusActive, LoanStatusRejected},
	LoanStatusActive:    {LoanStatusRepaid, LoanStatusDefaulted},
	LoanStatusDefaulted: {LoanStatusRepaid},
}

func LoanCanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := ValidLoanTransitions[currentStatus]
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

// TotalExpectedRepayment computes principal plus simple monthly interest.
// interestBps is the monthly rate in basis points (100 = 1% per month).
func TotalExpectedRepayment(amount int64, interestBps int, durationMonths int) int64 {
	interest := amount * int64(interestBps) * int64(durationMonths) / 10000
	return amount + interest
}

// Loan is a member loan funded from the chama pool.
//
// Key points:
//  1. Approval requires current_balance >= amount and debits the ledger.
//  2. Repayments accumulate TotalPaid and credit the ledger by the amount
//     actually paid, so a fully repaid loan returns principal plus interest
//     (plus any penalty) to the pool.
//  3. Status flips to REPAID once TotalPaid >= TotalExpected + PenaltyAmount.
type Loan struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanNo         string `gorm:"type:varchar(64);uniqueIndex;not null" json:"loan_no"`
	ChamaID        int64  `gorm:"index;not null" json:"chama_id"`
	UserID         int64  `gorm:"index;not null" json:"user_id"`
	Amount         int64  `gorm:"not null" json:"amount"` // principal, KES cents
	Reason         string `gorm:"type:varchar(512)" json:"reason"`
	DurationMonths int    `gorm:"not null" json:"duration_months"`
	InterestBps    int    `gorm:"not null" json:"interest_bps"`
	TotalExpected  int64  `gorm:"not null" json:"total_expected"`
	TotalPaid      int64  `gorm:"not null;default:0" json:"total_paid"`
	PenaltyAmount  int64  `gorm:"not null;default:0" json:"penalty_amount"`
	Status         string `gorm:"type:varchar(16);index;not null" json:"status"`
	RejectReason   string `gorm:"type:varchar(256)" json:"reject_reason,omitempty"`

	ApprovedBy *int64     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RepaidAt   *time.Time `json:"repaid_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Guarantors []LoanGuarantor `gorm:"foreignKey:LoanID" json:"guarantors,omitempty"`
}

func (Loan) TableName() string {
	return "loan"
}

// ============================================================================
// Guarantors
// ============================================================================

const (
	GuarantorStatusPending  = "PENDING"
	GuarantorStatusAccepted = "ACCEPTED"
	GuarantorStatusRejected = "REJECTED"
)

// LoanGuarantor is one requested co-signer. The decision is write-once and
// advisory: the chairperson may approve the loan regardless of guarantor
// status, but the per-guarantor state is surfaced on the loan.
type LoanGuarantor struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID      int64      `gorm:"uniqueIndex:uk_loan_guarantor;index;not null" json:"loan_id"`
	UserID      int64      `gorm:"uniqueIndex:uk_loan_guarantor;index;not null" json:"user_id"`
	Status      string     `gorm:"type:varchar(16);not null;default:PENDING" json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (LoanGuarantor) TableName() string {
	return "loan_guarantor"
}
