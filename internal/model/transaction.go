package model

import (
	"time"
)

const (
	TransactionTypeIncome  = "INCOME"
	TransactionTypeExpense = "EXPENSE"
)

func IsValidTransactionType(t string) bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ChamaTransaction is a manual income/expense record against the chama pool,
// entered by the treasurer or chairperson.
//
// Unlike contributions and cycles, these rows are editable: an edit reverses
// the original ledger effect and applies the new one in a single transaction,
// and a delete negates the original effect. BalanceBefore/BalanceAfter capture
// the ledger at entry time for reconciliation.
type ChamaTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	ChamaID       int64     `gorm:"index;not null" json:"chama_id"`
	RecordedBy    int64     `gorm:"index;not null" json:"recorded_by"`
	Type          string    `gorm:"type:varchar(16);not null" json:"type"`
	Amount        int64     `gorm:"not null" json:"amount"` // always positive, KES cents
	Description   string    `gorm:"type:varchar(256)" json:"description"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ChamaTransaction) TableName() string {
	return "chama_transaction"
}
