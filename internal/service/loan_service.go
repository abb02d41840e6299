package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"
	"chamapay/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	ErrSelfGuarantee       = errors.New("a borrower cannot guarantee their own loan")
	ErrDuplicateGuarantor  = errors.New("the same guarantor is listed more than once")
	ErrGuarantorNotMember  = errors.New("guarantor is not an active member of this chama")
	ErrRejectNeedsReason   = errors.New("rejection requires a reason")
	ErrInvalidGuarantorAct = errors.New("guarantor response must be accept or reject")
	ErrLoanNotRepayable    = errors.New("loan is not active")
)

type LoanService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	loanRepo    *repository.LoanRepository
	chamaRepo   *repository.ChamaRepository
	memberRepo  *repository.MemberRepository
	notifier    *Notifier
	audit       *AuditLogger
}

func NewLoanService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *LoanService {
	return &LoanService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		loanRepo:    repository.NewLoanRepository(db),
		chamaRepo:   repository.NewChamaRepository(db),
		memberRepo:  repository.NewMemberRepository(db),
		notifier:    NewNotifier(db, cfg),
		audit:       NewAuditLogger(db),
	}
}

type LoanRequest struct {
	Amount         int64
	Reason         string
	DurationMonths int
	GuarantorIDs   []int64
}

// Request creates a PENDING loan with its guarantor list. No money moves
// until approval. Guarantors must be active members and cannot include the
// borrower.
func (s *LoanService) Request(ctx context.Context, chamaID, borrowerID int64, req *LoanRequest) (*model.Loan, error) {
	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	if chama.Status != model.ChamaStatusActive {
		return nil, ErrChamaNotActive
	}

	seen := make(map[int64]bool, len(req.GuarantorIDs))
	for _, gid := range req.GuarantorIDs {
		if gid == borrowerID {
			return nil, ErrSelfGuarantee
		}
		if seen[gid] {
			return nil, ErrDuplicateGuarantor
		}
		seen[gid] = true
		member, err := s.memberRepo.Get(ctx, chamaID, gid)
		if err != nil {
			if errors.Is(err, repository.ErrMemberNotFound) {
				return nil, ErrGuarantorNotMember
			}
			return nil, err
		}
		if member.Status != model.MemberStatusActive {
			return nil, ErrGuarantorNotMember
		}
	}

	members, err := s.memberRepo.ListActive(ctx, chamaID)
	if err != nil {
		return nil, err
	}

	loan := &model.Loan{
		LoanNo:         idgen.GenerateLoanNo(),
		ChamaID:        chamaID,
		UserID:         borrowerID,
		Amount:         req.Amount,
		Reason:         req.Reason,
		DurationMonths: req.DurationMonths,
		InterestBps:    chama.LoanInterestBps,
		TotalExpected:  model.TotalExpectedRepayment(req.Amount, chama.LoanInterestBps, req.DurationMonths),
		Status:         model.LoanStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loanRepo.Create(ctx, tx, loan); err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		guarantors := make([]model.LoanGuarantor, 0, len(req.GuarantorIDs))
		for _, gid := range req.GuarantorIDs {
			guarantors = append(guarantors, model.LoanGuarantor{
				LoanID: loan.ID,
				UserID: gid,
				Status: model.GuarantorStatusPending,
			})
		}
		if err := s.loanRepo.CreateGuarantors(ctx, tx, guarantors); err != nil {
			return fmt.Errorf("failed to create guarantors: %w", err)
		}

		for _, gid := range req.GuarantorIDs {
			err := s.notifier.Enqueue(ctx, tx, loan.LoanNo, EventGuaranteeRequested, gid, map[string]interface{}{
				"chama_id": chamaID,
				"loan_no":  loan.LoanNo,
				"borrower": borrowerID,
				"amount":   req.Amount,
			})
			if err != nil {
				return err
			}
		}

		// Officials review loan requests; guarantors already got their own event.
		for _, m := range members {
			if m.UserID == borrowerID {
				continue
			}
			if m.Role != model.MemberRoleChairperson && m.Role != model.MemberRoleTreasurer {
				continue
			}
			err := s.notifier.Enqueue(ctx, tx, loan.LoanNo, EventLoanRequested, m.UserID, map[string]interface{}{
				"chama_id": chamaID,
				"loan_no":  loan.LoanNo,
				"borrower": borrowerID,
				"amount":   req.Amount,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     borrowerID,
		Action:      model.AuditActionLoanRequested,
		Category:    model.AuditCategoryLoan,
		Amount:      req.Amount,
		Description: fmt.Sprintf("loan %s requested, %d month(s), repayable %d", loan.LoanNo, req.DurationMonths, loan.TotalExpected),
	})

	return loan, nil
}

// RespondGuarantee records a guarantor's accept/reject. Only a listed
// guarantor may respond, and only once. The decision is advisory; see Approve.
func (s *LoanService) RespondGuarantee(ctx context.Context, chamaID, loanID, guarantorID int64, decision string) error {
	var status string
	switch decision {
	case "ACCEPT":
		status = model.GuarantorStatusAccepted
	case "REJECT":
		status = model.GuarantorStatusRejected
	default:
		return ErrInvalidGuarantorAct
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.ChamaID != chamaID {
		return repository.ErrLoanNotFound
	}

	if _, err := s.loanRepo.GetGuarantor(ctx, loanID, guarantorID); err != nil {
		return err
	}
	return s.loanRepo.RespondGuarantor(ctx, loanID, guarantorID, status)
}

// Approve disburses a pending loan: balance check, ledger debit and status
// flip to ACTIVE in one transaction under the chama lock. Guarantor rejections
// do not block approval; the approver sees their status on the loan.
func (s *LoanService) Approve(ctx context.Context, chamaID, loanID, approverID int64) (*model.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.ChamaID != chamaID {
		return nil, repository.ErrLoanNotFound
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
	if chama.CurrentBalance < loan.Amount {
		return nil, repository.ErrBalanceNotEnough
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loanRepo.UpdateStatus(ctx, tx, loanID, model.LoanStatusPending, model.LoanStatusActive, map[string]interface{}{
			"approved_by": approverID,
			"approved_at": &now,
		}); err != nil {
			return err
		}
		if err := s.chamaRepo.DeductBalance(ctx, tx, chamaID, loan.Amount); err != nil {
			return err
		}
		return s.notifier.Enqueue(ctx, tx, loan.LoanNo, EventLoanApproved, loan.UserID, map[string]interface{}{
			"chama_id": chamaID,
			"loan_no":  loan.LoanNo,
			"amount":   loan.Amount,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     approverID,
		OnBehalfOf:  &loan.UserID,
		Action:      model.AuditActionLoanApproved,
		Category:    model.AuditCategoryLoan,
		Amount:      loan.Amount,
		Description: fmt.Sprintf("loan %s approved and disbursed", loan.LoanNo),
		BeforeState: Snapshot(map[string]interface{}{"status": model.LoanStatusPending, "current_balance": chama.CurrentBalance}),
		AfterState:  Snapshot(map[string]interface{}{"status": model.LoanStatusActive, "current_balance": chama.CurrentBalance - loan.Amount}),
	})

	return s.loanRepo.GetByID(ctx, loanID)
}

// Reject declines a pending loan with a mandatory reason. No ledger effect.
func (s *LoanService) Reject(ctx context.Context, chamaID, loanID, approverID int64, reason string) error {
	if reason == "" {
		return ErrRejectNeedsReason
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.ChamaID != chamaID {
		return repository.ErrLoanNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loanRepo.UpdateStatus(ctx, tx, loanID, model.LoanStatusPending, model.LoanStatusRejected, map[string]interface{}{
			"reject_reason": reason,
		}); err != nil {
			return err
		}
		return s.notifier.Enqueue(ctx, tx, loan.LoanNo, EventLoanRejected, loan.UserID, map[string]interface{}{
			"chama_id": chamaID,
			"loan_no":  loan.LoanNo,
			"reason":   reason,
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     approverID,
		OnBehalfOf:  &loan.UserID,
		Action:      model.AuditActionLoanRejected,
		Category:    model.AuditCategoryLoan,
		Amount:      loan.Amount,
		Description: fmt.Sprintf("loan %s rejected: %s", loan.LoanNo, reason),
	})
	return nil
}

// Repay records a repayment. The ledger is credited by the amount actually
// paid, so a fully settled loan returns principal, interest and any penalty
// to the pool. The loan flips to REPAID when total_paid covers the owed total.
func (s *LoanService) Repay(ctx context.Context, chamaID, loanID, actorID int64, amount int64) (*model.Loan, error) {
	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	// Read under the lock: total_paid from before a concurrent repayment
	// would miss the REPAID flip.
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.ChamaID != chamaID {
		return nil, repository.ErrLoanNotFound
	}
	if loan.Status != model.LoanStatusActive && loan.Status != model.LoanStatusDefaulted {
		return nil, ErrLoanNotRepayable
	}

	owed := loan.TotalExpected + loan.PenaltyAmount
	settled := loan.TotalPaid+amount >= owed

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loanRepo.AddPayment(ctx, tx, loanID, amount); err != nil {
			return err
		}
		if err := s.chamaRepo.IncreaseBalance(ctx, tx, chamaID, amount); err != nil {
			return fmt.Errorf("failed to credit chama balance: %w", err)
		}
		if settled {
			now := time.Now()
			if err := s.loanRepo.UpdateStatus(ctx, tx, loanID, loan.Status, model.LoanStatusRepaid, map[string]interface{}{
				"repaid_at": &now,
			}); err != nil {
				return err
			}
			if err := s.notifier.Enqueue(ctx, tx, loan.LoanNo, EventLoanRepaid, loan.UserID, map[string]interface{}{
				"chama_id": chamaID,
				"loan_no":  loan.LoanNo,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		OnBehalfOf:  &loan.UserID,
		Action:      model.AuditActionLoanRepayment,
		Category:    model.AuditCategoryLoan,
		Amount:      amount,
		Description: fmt.Sprintf("repayment on loan %s, paid %d of %d", loan.LoanNo, loan.TotalPaid+amount, owed),
	})

	if settled {
		log.Printf("[Loan] fully repaid: %s chama=%d", loan.LoanNo, chamaID)
	}

	return s.loanRepo.GetByID(ctx, loanID)
}

// MarkDefaulted moves an active loan to DEFAULTED with a penalty added to the
// amount owed. No ledger effect until the penalty is actually repaid.
func (s *LoanService) MarkDefaulted(ctx context.Context, chamaID, loanID, actorID int64, penalty int64) error {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.ChamaID != chamaID {
		return repository.ErrLoanNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loanRepo.UpdateStatus(ctx, tx, loanID, model.LoanStatusActive, model.LoanStatusDefaulted, nil); err != nil {
			return err
		}
		return s.loanRepo.SetPenalty(ctx, tx, loanID, penalty)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		OnBehalfOf:  &loan.UserID,
		Action:      model.AuditActionLoanDefaulted,
		Category:    model.AuditCategoryLoan,
		Amount:      penalty,
		Description: fmt.Sprintf("loan %s marked defaulted, penalty %d", loan.LoanNo, penalty),
	})
	return nil
}

func (s *LoanService) Get(ctx context.Context, chamaID, loanID int64) (*model.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.ChamaID != chamaID {
		return nil, repository.ErrLoanNotFound
	}
	return loan, nil
}

func (s *LoanService) List(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.Loan, int64, error) {
	return s.loanRepo.ListByChama(ctx, chamaID, page, pageSize)
}
