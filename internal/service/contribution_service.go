package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chamapay/internal/config"
	"chamapay/internal/infrastructure/mpesa"
	"chamapay/internal/model"
	"chamapay/internal/repository"
	"chamapay/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method for manual entry")
	ErrAmountNotWholeKES    = errors.New("mpesa amount must be whole shillings")
	ErrMemberNotActive      = errors.New("member is not active in this chama")
	ErrStkPushFailed        = errors.New("payment provider rejected the stk push")
)

type ContributionService struct {
	db               *gorm.DB
	redisClient      *redis.Client
	cfg              *config.Config
	mpesaClient      *mpesa.Client
	chamaRepo        *repository.ChamaRepository
	memberRepo       *repository.MemberRepository
	contributionRepo *repository.ContributionRepository
	notifier         *Notifier
	audit            *AuditLogger
}

func NewContributionService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, mpesaClient *mpesa.Client) *ContributionService {
	return &ContributionService{
		db:               db,
		redisClient:      redisClient,
		cfg:              cfg,
		mpesaClient:      mpesaClient,
		chamaRepo:        repository.NewChamaRepository(db),
		memberRepo:       repository.NewMemberRepository(db),
		contributionRepo: repository.NewContributionRepository(db),
		notifier:         NewNotifier(db, cfg),
		audit:            NewAuditLogger(db),
	}
}

// requireActiveMember checks the contributing user is an active member.
func (s *ContributionService) requireActiveMember(ctx context.Context, chamaID, userID int64) error {
	member, err := s.memberRepo.Get(ctx, chamaID, userID)
	if err != nil {
		return err
	}
	if member.Status != model.MemberStatusActive {
		return ErrMemberNotActive
	}
	return nil
}

type ManualContributionRequest struct {
	MemberID int64  // on whose behalf the cash was received
	Amount   int64  // KES cents
	Method   string // CASH or BANK
}

// RecordManual records a confirmed cash/bank contribution and credits the
// ledger, atomically. Caller authorization (treasurer/chairperson) is done at
// the handler; actorID is the recorder for the audit trail.
func (s *ContributionService) RecordManual(ctx context.Context, chamaID, actorID int64, req *ManualContributionRequest) (*model.Contribution, error) {
	if !model.IsValidManualMethod(req.Method) {
		return nil, ErrInvalidPaymentMethod
	}
	if err := s.requireActiveMember(ctx, chamaID, req.MemberID); err != nil {
		return nil, err
	}

	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	chamaBefore, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	if chamaBefore.Status != model.ChamaStatusActive {
		return nil, ErrChamaNotActive
	}

	contribution := &model.Contribution{
		ContributionNo: idgen.GenerateContributionNo(),
		ChamaID:        chamaID,
		UserID:         req.MemberID,
		Amount:         req.Amount,
		Method:         req.Method,
		Status:         model.ContributionStatusConfirmed,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.contributionRepo.Create(ctx, tx, contribution); err != nil {
			return fmt.Errorf("failed to create contribution: %w", err)
		}
		if err := s.chamaRepo.IncreaseBalance(ctx, tx, chamaID, req.Amount); err != nil {
			return fmt.Errorf("failed to credit chama balance: %w", err)
		}
		return s.notifier.Enqueue(ctx, tx, contribution.ContributionNo, EventContributionConfirmed, req.MemberID, map[string]interface{}{
			"chama_id": chamaID,
			"amount":   req.Amount,
			"method":   req.Method,
		})
	})
	if err != nil {
		return nil, err
	}

	onBehalf := req.MemberID
	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		OnBehalfOf:  &onBehalf,
		Action:      model.AuditActionContributionRecorded,
		Category:    model.AuditCategoryContribution,
		Amount:      req.Amount,
		Description: fmt.Sprintf("manual %s contribution %s", req.Method, contribution.ContributionNo),
		BeforeState: Snapshot(map[string]int64{"current_balance": chamaBefore.CurrentBalance}),
		AfterState:  Snapshot(map[string]int64{"current_balance": chamaBefore.CurrentBalance + req.Amount}),
	})

	return contribution, nil
}

// InitiateSTKPush starts a Daraja push and records the pending contribution
// keyed by the provider's checkout request id. The ledger is untouched until
// the callback confirms payment.
func (s *ContributionService) InitiateSTKPush(ctx context.Context, chamaID, userID int64, phone string, amount int64) (*model.Contribution, error) {
	if amount%100 != 0 {
		return nil, ErrAmountNotWholeKES
	}
	if err := s.requireActiveMember(ctx, chamaID, userID); err != nil {
		return nil, err
	}
	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	if chama.Status != model.ChamaStatusActive {
		return nil, ErrChamaNotActive
	}

	contributionNo := idgen.GenerateContributionNo()
	result, err := s.mpesaClient.STKPush(ctx, phone, amount/100, contributionNo, "chama contribution")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStkPushFailed, err)
	}

	contribution := &model.Contribution{
		ContributionNo:    contributionNo,
		ChamaID:           chamaID,
		UserID:            userID,
		Amount:            amount,
		Method:            model.PaymentMethodMpesa,
		Status:            model.ContributionStatusPending,
		CheckoutRequestID: &result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		Phone:             phone,
	}
	if err := s.contributionRepo.Create(ctx, nil, contribution); err != nil {
		// The push is already on the payer's phone; the timeout job cannot
		// expire a row that was never written, so this must be surfaced loudly.
		log.Printf("[Mpesa] ORPHANED PUSH: checkout=%s chama=%d user=%d err=%v",
			result.CheckoutRequestID, chamaID, userID, err)
		return nil, fmt.Errorf("failed to record pending contribution: %w", err)
	}

	return contribution, nil
}

// HandleCallback resolves a Daraja callback to its pending contribution and
// settles it exactly once.
//
// Key points:
//  1. Idempotency: the PENDING->terminal status guard makes replays no-ops.
//  2. On success the ledger is credited in the same transaction as the
//     status flip; a confirmed contribution and the balance can never diverge.
//  3. Unknown checkout ids are logged and acknowledged: Safaricom retries
//     on error responses, and retrying cannot make an unknown id known.
func (s *ContributionService) HandleCallback(ctx context.Context, callback *mpesa.StkCallback) error {
	contribution, err := s.contributionRepo.GetByCheckoutID(ctx, callback.CheckoutRequestID)
	if err != nil {
		return fmt.Errorf("failed to look up contribution: %w", err)
	}
	if contribution == nil {
		log.Printf("[MpesaCallback] unknown checkout id: %s", callback.CheckoutRequestID)
		return nil
	}
	target := model.ContributionStatusConfirmed
	if !callback.Success() {
		target = model.ContributionStatusFailed
	}
	if !model.ContributionCanTransitionTo(contribution.Status, target) {
		log.Printf("[MpesaCallback] replay for resolved contribution: %s status=%s",
			contribution.ContributionNo, contribution.Status)
		return nil
	}

	if !callback.Success() {
		if err := s.contributionRepo.MarkFailed(ctx, nil, contribution.ID, callback.ResultDesc); err != nil {
			if errors.Is(err, repository.ErrContributionResolved) {
				return nil
			}
			return err
		}
		s.db.Transaction(func(tx *gorm.DB) error {
			return s.notifier.Enqueue(ctx, tx, contribution.ContributionNo, EventContributionFailed, contribution.UserID, map[string]interface{}{
				"chama_id": contribution.ChamaID,
				"amount":   contribution.Amount,
				"reason":   callback.ResultDesc,
			})
		})
		return nil
	}

	receipt, phone, _ := callback.Metadata()

	chamaLock, err := acquireChamaLock(ctx, s.redisClient, contribution.ChamaID)
	if err != nil {
		return err
	}
	defer chamaLock.Unlock(ctx)

	chamaBefore, err := s.chamaRepo.GetByID(ctx, contribution.ChamaID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.contributionRepo.Confirm(ctx, tx, contribution.ID, receipt, phone); err != nil {
			return err
		}
		if err := s.chamaRepo.IncreaseBalance(ctx, tx, contribution.ChamaID, contribution.Amount); err != nil {
			return fmt.Errorf("failed to credit chama balance: %w", err)
		}
		return s.notifier.Enqueue(ctx, tx, contribution.ContributionNo, EventContributionConfirmed, contribution.UserID, map[string]interface{}{
			"chama_id": contribution.ChamaID,
			"amount":   contribution.Amount,
			"receipt":  receipt,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrContributionResolved) {
			// lost the race to a concurrent delivery of the same callback
			return nil
		}
		return err
	}

	chamaID := contribution.ChamaID
	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     contribution.UserID,
		Action:      model.AuditActionContributionConfirmed,
		Category:    model.AuditCategoryContribution,
		Amount:      contribution.Amount,
		Description: fmt.Sprintf("mpesa contribution %s receipt %s", contribution.ContributionNo, receipt),
		BeforeState: Snapshot(map[string]int64{"current_balance": chamaBefore.CurrentBalance}),
		AfterState:  Snapshot(map[string]int64{"current_balance": chamaBefore.CurrentBalance + contribution.Amount}),
	})

	log.Printf("[MpesaCallback] confirmed: %s chama=%d amount=%d receipt=%s",
		contribution.ContributionNo, contribution.ChamaID, contribution.Amount, receipt)
	return nil
}

func (s *ContributionService) List(ctx context.Context, chamaID, callerID int64, page, pageSize int) ([]*model.Contribution, int64, error) {
	return s.contributionRepo.ListByChama(ctx, chamaID, callerID, page, pageSize)
}
