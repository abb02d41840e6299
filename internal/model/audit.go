package model

import (
	"time"
)

// Audit action codes for financially material mutations.
const (
	AuditActionContributionRecorded  = "CONTRIBUTION_RECORDED"
	AuditActionContributionConfirmed = "CONTRIBUTION_CONFIRMED"
	AuditActionLoanRequested         = "LOAN_REQUESTED"
	AuditActionLoanApproved          = "LOAN_APPROVED"
	AuditActionLoanRejected          = "LOAN_REJECTED"
	AuditActionLoanRepayment         = "LOAN_REPAYMENT"
	AuditActionLoanDefaulted         = "LOAN_DEFAULTED"
	AuditActionEqualSharingPayout    = "EQUAL_SHARING_PAYOUT"
	AuditActionRotationPayout        = "ROTATION_PAYOUT"
	AuditActionGoalCompleted         = "GOAL_COMPLETED"
	AuditActionTransactionCreated    = "TRANSACTION_CREATED"
	AuditActionTransactionUpdated    = "TRANSACTION_UPDATED"
	AuditActionTransactionDeleted    = "TRANSACTION_DELETED"
	AuditActionChamaStatusChanged    = "CHAMA_STATUS_CHANGED"
	AuditActionChamaDeleted          = "CHAMA_DELETED"
	AuditActionUserStatusChanged     = "USER_STATUS_CHANGED"
)

const (
	AuditCategoryContribution = "CONTRIBUTION"
	AuditCategoryLoan         = "LOAN"
	AuditCategoryPayout       = "PAYOUT"
	AuditCategoryTransaction  = "TRANSACTION"
	AuditCategoryAdmin        = "ADMIN"
)

// AuditLog is the append-only trail of financially material actions.
//
// Rows are written after the owning transaction commits; a failed audit write
// is logged and swallowed, never rolled into the transactional boundary.
// Nothing in business logic reads this table — only the admin surface does.
type AuditLog struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID     *int64 `gorm:"index" json:"chama_id,omitempty"`
	ActorID     int64  `gorm:"index;not null" json:"actor_id"`
	OnBehalfOf  *int64 `json:"on_behalf_of,omitempty"`
	Action      string `gorm:"type:varchar(40);index;not null" json:"action"`
	Category    string `gorm:"type:varchar(20);index;not null" json:"category"`
	Amount      int64  `gorm:"not null;default:0" json:"amount"`
	Description string `gorm:"type:varchar(512)" json:"description"`
	BeforeState string `gorm:"type:text" json:"before_state,omitempty"`
	AfterState  string `gorm:"type:text" json:"after_state,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
