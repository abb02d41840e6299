package service

import (
	"context"
	"errors"
	"fmt"

	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"
	"chamapay/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	ErrInvalidTransactionType = errors.New("transaction type must be income or expense")
)

type TransactionService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	chamaRepo       *repository.ChamaRepository
	transactionRepo *repository.TransactionRepository
	audit           *AuditLogger
}

func NewTransactionService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *TransactionService {
	return &TransactionService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		chamaRepo:       repository.NewChamaRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		audit:           NewAuditLogger(db),
	}
}

// ledgerEffect returns the signed balance delta of a transaction record.
func ledgerEffect(transactionType string, amount int64) int64 {
	if transactionType == model.TransactionTypeExpense {
		return -amount
	}
	return amount
}

// applyDelta adjusts the ledger by a signed delta inside tx, using the
// guarded debit path for negative deltas.
func (s *TransactionService) applyDelta(ctx context.Context, tx *gorm.DB, chamaID, delta int64) error {
	switch {
	case delta > 0:
		return s.chamaRepo.IncreaseBalance(ctx, tx, chamaID, delta)
	case delta < 0:
		return s.chamaRepo.DeductBalance(ctx, tx, chamaID, -delta)
	}
	return nil
}

type TransactionRequest struct {
	Type        string
	Amount      int64
	Description string
}

// Create records a manual income/expense and applies its ledger effect
// atomically. Expenses are rejected when they would overdraw the pool.
func (s *TransactionService) Create(ctx context.Context, chamaID, actorID int64, req *TransactionRequest) (*model.ChamaTransaction, error) {
	if !model.IsValidTransactionType(req.Type) {
		return nil, ErrInvalidTransactionType
	}

	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	if chama.Status != model.ChamaStatusActive {
		return nil, ErrChamaNotActive
	}

	effect := ledgerEffect(req.Type, req.Amount)
	transaction := &model.ChamaTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		ChamaID:       chamaID,
		RecordedBy:    actorID,
		Type:          req.Type,
		Amount:        req.Amount,
		Description:   req.Description,
		BalanceBefore: chama.CurrentBalance,
		BalanceAfter:  chama.CurrentBalance + effect,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.applyDelta(ctx, tx, chamaID, effect); err != nil {
			return err
		}
		return s.transactionRepo.Create(ctx, tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		Action:      model.AuditActionTransactionCreated,
		Category:    model.AuditCategoryTransaction,
		Amount:      req.Amount,
		Description: fmt.Sprintf("%s %s: %s", req.Type, transaction.TransactionNo, req.Description),
		BeforeState: Snapshot(map[string]int64{"current_balance": transaction.BalanceBefore}),
		AfterState:  Snapshot(map[string]int64{"current_balance": transaction.BalanceAfter}),
	})

	return transaction, nil
}

// Update edits a transaction record. The original ledger effect is reversed
// and the new one applied as a single delta within one database transaction;
// the edit is rejected if the net change would overdraw the pool.
func (s *TransactionService) Update(ctx context.Context, chamaID, transactionID, actorID int64, req *TransactionRequest) (*model.ChamaTransaction, error) {
	if !model.IsValidTransactionType(req.Type) {
		return nil, ErrInvalidTransactionType
	}

	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	// Read under the lock: the delta below is computed against the stored
	// record, and a concurrent edit must not feed it a stale effect.
	existing, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if existing.ChamaID != chamaID {
		return nil, repository.ErrTransactionNotFound
	}

	oldEffect := ledgerEffect(existing.Type, existing.Amount)
	newEffect := ledgerEffect(req.Type, req.Amount)
	delta := newEffect - oldEffect

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.applyDelta(ctx, tx, chamaID, delta); err != nil {
			return err
		}
		return s.transactionRepo.Update(ctx, tx, transactionID, map[string]interface{}{
			"type":        req.Type,
			"amount":      req.Amount,
			"description": req.Description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		Action:      model.AuditActionTransactionUpdated,
		Category:    model.AuditCategoryTransaction,
		Amount:      req.Amount,
		Description: fmt.Sprintf("edited %s, ledger delta %+d", existing.TransactionNo, delta),
		BeforeState: Snapshot(existing),
	})

	return s.transactionRepo.GetByID(ctx, transactionID)
}

// Delete removes a transaction record, negating its original ledger effect.
// Deleting an income the pool has since spent is rejected by the debit guard.
func (s *TransactionService) Delete(ctx context.Context, chamaID, transactionID, actorID int64) error {
	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return err
	}
	defer chamaLock.Unlock(ctx)

	// Read under the lock so a concurrent delete of the same record cannot
	// reverse its effect twice.
	existing, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if existing.ChamaID != chamaID {
		return repository.ErrTransactionNotFound
	}

	reversal := -ledgerEffect(existing.Type, existing.Amount)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.applyDelta(ctx, tx, chamaID, reversal); err != nil {
			return err
		}
		return s.transactionRepo.Delete(ctx, tx, transactionID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		Action:      model.AuditActionTransactionDeleted,
		Category:    model.AuditCategoryTransaction,
		Amount:      existing.Amount,
		Description: fmt.Sprintf("deleted %s, ledger reversal %+d", existing.TransactionNo, reversal),
		BeforeState: Snapshot(existing),
	})
	return nil
}

func (s *TransactionService) List(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.ChamaTransaction, int64, error) {
	return s.transactionRepo.ListByChama(ctx, chamaID, page, pageSize)
}
