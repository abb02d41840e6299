package service

import (
	"context"
	"encoding/json"
	"log"

	"chamapay/internal/model"
	"chamapay/internal/repository"

	"gorm.io/gorm"
)

// AuditLogger appends entries to the audit trail after the owning transaction
// has committed. A failed write is logged and swallowed: the audit log is not
// part of the transactional boundary and must never roll back a mutation.
type AuditLogger struct {
	auditRepo *repository.AuditRepository
}

func NewAuditLogger(db *gorm.DB) *AuditLogger {
	return &AuditLogger{
		auditRepo: repository.NewAuditRepository(db),
	}
}

func (a *AuditLogger) Record(ctx context.Context, entry *model.AuditLog) {
	if err := a.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("[Audit] failed to write audit entry: action=%s chama=%v err=%v",
			entry.Action, entry.ChamaID, err)
	}
}

// Snapshot marshals a before/after state for an audit entry. Marshal failures
// degrade to an empty snapshot rather than failing the caller.
func Snapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
