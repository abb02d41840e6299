package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"
	"chamapay/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	ErrWrongOperationType    = errors.New("operation not supported by this chama type")
	ErrDistributeBelowTarget = errors.New("balance has not reached the distribution target")
	ErrNothingToDistribute   = errors.New("balance is zero, nothing to distribute")
	ErrNoActiveMembers       = errors.New("chama has no active members")
	ErrRotationEmpty         = errors.New("rotation order is not set")
	ErrRotationOrderInvalid  = errors.New("rotation order must list each active member exactly once")
	ErrPoolEmpty             = errors.New("chama balance is empty")
	ErrNoActiveGoal          = errors.New("no active purchase goal")
	ErrGoalNotFundable       = errors.New("balance below the goal target")
	ErrGoalNotEditable       = errors.New("only queued goals can be edited")
)

type PayoutService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	chamaRepo   *repository.ChamaRepository
	memberRepo  *repository.MemberRepository
	cycleRepo   *repository.CycleRepository
	goalRepo    *repository.GoalRepository
	notifier    *Notifier
	audit       *AuditLogger
}

func NewPayoutService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PayoutService {
	return &PayoutService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		chamaRepo:   repository.NewChamaRepository(db),
		memberRepo:  repository.NewMemberRepository(db),
		cycleRepo:   repository.NewCycleRepository(db),
		goalRepo:    repository.NewGoalRepository(db),
		notifier:    NewNotifier(db, cfg),
		audit:       NewAuditLogger(db),
	}
}

func (s *PayoutService) activeChamaOfType(ctx context.Context, chamaID int64, operationType string) (*model.Chama, error) {
	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	if chama.Status != model.ChamaStatusActive {
		return nil, ErrChamaNotActive
	}
	if chama.OperationType != operationType {
		return nil, ErrWrongOperationType
	}
	return chama, nil
}

// ============================================================================
// Equal sharing
// ============================================================================

// DistributeEqualShares pays the whole pool out evenly across active members.
//
// Key points:
//  1. Hard precondition: balance must have reached the target. A new cycle
//     cannot start until the previous pool is fully distributed, and the
//     reset-to-zero is guarded on the balance we computed shares from, so a
//     contribution landing mid-distribution aborts instead of being eaten.
//  2. The cycle row records the full payout list before the balance reset,
//     in the same transaction.
func (s *PayoutService) DistributeEqualShares(ctx context.Context, chamaID, actorID int64) (*model.ChamaCycle, error) {
	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	chama, err := s.activeChamaOfType(ctx, chamaID, model.OperationEqualSharing)
	if err != nil {
		return nil, err
	}
	if chama.CurrentBalance == 0 {
		return nil, ErrNothingToDistribute
	}
	if chama.CurrentBalance < chama.TargetAmount {
		return nil, ErrDistributeBelowTarget
	}

	members, err := s.memberRepo.ListActive(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNoActiveMembers
	}

	shares := SplitEqually(chama.CurrentBalance, len(members))
	payouts := make([]model.CyclePayout, len(members))
	for i, m := range members {
		payouts[i] = model.CyclePayout{UserID: m.UserID, Amount: shares[i]}
	}

	cycle := &model.ChamaCycle{
		CycleNo:    idgen.GenerateCycleNo(),
		ChamaID:    chamaID,
		Type:       model.CycleTypeEqualSharing,
		Status:     model.CycleStatusCompleted,
		Amount:     chama.CurrentBalance,
		Payouts:    Snapshot(payouts),
		ExecutedBy: actorID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.cycleRepo.Create(ctx, tx, cycle); err != nil {
			return fmt.Errorf("failed to record cycle: %w", err)
		}
		if err := s.chamaRepo.ResetBalance(ctx, tx, chamaID, chama.CurrentBalance); err != nil {
			return fmt.Errorf("failed to reset balance: %w", err)
		}
		for i, m := range members {
			err := s.notifier.Enqueue(ctx, tx, cycle.CycleNo, EventPayoutReceived, m.UserID, map[string]interface{}{
				"chama_id": chamaID,
				"cycle_no": cycle.CycleNo,
				"amount":   shares[i],
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
		ActorID:     actorID,
		Action:      model.AuditActionEqualSharingPayout,
		Category:    model.AuditCategoryPayout,
		Amount:      chama.CurrentBalance,
		Description: fmt.Sprintf("equal sharing cycle %s across %d member(s)", cycle.CycleNo, len(members)),
		BeforeState: Snapshot(map[string]int64{"current_balance": chama.CurrentBalance}),
		AfterState:  Snapshot(map[string]int64{"current_balance": 0}),
	})

	log.Printf("[Payout] equal sharing distributed: chama=%d cycle=%s total=%d members=%d",
		chamaID, cycle.CycleNo, cycle.Amount, len(members))
	return cycle, nil
}

// ============================================================================
// Rotation payout
// ============================================================================

type RotationState struct {
	Order         []int64 `json:"order"`
	CurrentIndex  int     `json:"current_index"`
	NextRecipient int64   `json:"next_recipient,omitempty"`
}

func (s *PayoutService) GetRotation(ctx context.Context, chamaID int64) (*RotationState, error) {
	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	order, err := ParseRotationOrder(chama.RotationOrder)
	if err != nil {
		return nil, fmt.Errorf("corrupt rotation order: %w", err)
	}

	state := &RotationState{Order: order, CurrentIndex: chama.CurrentRecipientIndex}
	if len(order) > 0 && chama.CurrentRecipientIndex < len(order) {
		state.NextRecipient = order[chama.CurrentRecipientIndex]
	}
	return state, nil
}

// SetRotationOrder replaces the order with a chairperson-chosen permutation
// of the active members and resets the pointer to the front.
func (s *PayoutService) SetRotationOrder(ctx context.Context, chamaID, actorID int64, order []int64) (*RotationState, error) {
	if _, err := s.activeChamaOfType(ctx, chamaID, model.OperationRotation); err != nil {
		return nil, err
	}
	if err := s.validateRotationOrder(ctx, chamaID, order); err != nil {
		return nil, err
	}

	if err := s.chamaRepo.UpdateRotation(ctx, nil, chamaID, EncodeRotationOrder(order), 0); err != nil {
		return nil, err
	}
	return &RotationState{Order: order, CurrentIndex: 0, NextRecipient: order[0]}, nil
}

// ShuffleRotation randomizes the order in place and resets the pointer.
func (s *PayoutService) ShuffleRotation(ctx context.Context, chamaID, actorID int64) (*RotationState, error) {
	chama, err := s.activeChamaOfType(ctx, chamaID, model.OperationRotation)
	if err != nil {
		return nil, err
	}
	order, err := ParseRotationOrder(chama.RotationOrder)
	if err != nil {
		return nil, fmt.Errorf("corrupt rotation order: %w", err)
	}
	if len(order) == 0 {
		return nil, ErrRotationEmpty
	}

	ShuffleOrder(order)
	if err := s.chamaRepo.UpdateRotation(ctx, nil, chamaID, EncodeRotationOrder(order), 0); err != nil {
		return nil, err
	}
	return &RotationState{Order: order, CurrentIndex: 0, NextRecipient: order[0]}, nil
}

func (s *PayoutService) validateRotationOrder(ctx context.Context, chamaID int64, order []int64) error {
	if len(order) == 0 {
		return ErrRotationEmpty
	}
	members, err := s.memberRepo.ListActive(ctx, chamaID)
	if err != nil {
		return err
	}
	if len(order) != len(members) {
		return ErrRotationOrderInvalid
	}
	active := make(map[int64]bool, len(members))
	for _, m := range members {
		active[m.UserID] = true
	}
	seen := make(map[int64]bool, len(order))
	for _, id := range order {
		if !active[id] || seen[id] {
			return ErrRotationOrderInvalid
		}
		seen[id] = true
	}
	return nil
}

// ExecuteRotationPayout disburses min(balance, target) to the current
// recipient and advances the pointer.
//
// An underfunded pool does not block the payout: rotation chamas favor
// forward progress, so the shortfall is recorded on the cycle as PARTIAL with
// a note instead of failing. Only a completely empty pool is rejected.
func (s *PayoutService) ExecuteRotationPayout(ctx context.Context, chamaID, actorID int64) (*model.ChamaCycle, error) {
	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	chama, err := s.activeChamaOfType(ctx, chamaID, model.OperationRotation)
	if err != nil {
		return nil, err
	}
	if chama.CurrentBalance == 0 {
		return nil, ErrPoolEmpty
	}

	order, err := ParseRotationOrder(chama.RotationOrder)
	if err != nil {
		return nil, fmt.Errorf("corrupt rotation order: %w", err)
	}
	if len(order) == 0 {
		return nil, ErrRotationEmpty
	}

	index := chama.CurrentRecipientIndex
	if index >= len(order) {
		// order shrank since the pointer was set; wrap rather than fail
		index = 0
	}
	recipient := order[index]
	payout, shortfall := RotationDisbursement(chama.CurrentBalance, chama.TargetAmount)

	cycle := &model.ChamaCycle{
		CycleNo:     idgen.GenerateCycleNo(),
		ChamaID:     chamaID,
		Type:        model.CycleTypeRotation,
		Status:      model.CycleStatusCompleted,
		RecipientID: &recipient,
		Amount:      payout,
		Shortfall:   shortfall,
		ExecutedBy:  actorID,
	}
	if shortfall > 0 {
		cycle.Status = model.CycleStatusPartial
		cycle.Note = fmt.Sprintf("disbursed %d of target %d; shortfall %d carried by recipient", payout, chama.TargetAmount, shortfall)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chamaRepo.DeductBalance(ctx, tx, chamaID, payout); err != nil {
			return err
		}
		if err := s.cycleRepo.Create(ctx, tx, cycle); err != nil {
			return fmt.Errorf("failed to record cycle: %w", err)
		}
		if err := s.chamaRepo.AdvanceRotationIndex(ctx, tx, chamaID, index, NextRotationIndex(index, len(order))); err != nil {
			return err
		}
		return s.notifier.Enqueue(ctx, tx, cycle.CycleNo, EventPayoutReceived, recipient, map[string]interface{}{
			"chama_id":  chamaID,
			"cycle_no":  cycle.CycleNo,
			"amount":    payout,
			"shortfall": shortfall,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		OnBehalfOf:  &recipient,
		Action:      model.AuditActionRotationPayout,
		Category:    model.AuditCategoryPayout,
		Amount:      payout,
		Description: fmt.Sprintf("rotation cycle %s to member %d (%s)", cycle.CycleNo, recipient, cycle.Status),
		BeforeState: Snapshot(map[string]interface{}{"current_balance": chama.CurrentBalance, "recipient_index": index}),
		AfterState:  Snapshot(map[string]interface{}{"current_balance": chama.CurrentBalance - payout, "recipient_index": NextRotationIndex(index, len(order))}),
	})

	log.Printf("[Payout] rotation: chama=%d cycle=%s recipient=%d amount=%d shortfall=%d",
		chamaID, cycle.CycleNo, recipient, payout, shortfall)
	return cycle, nil
}

// ============================================================================
// Group purchase queue
// ============================================================================

type GoalRequest struct {
	BeneficiaryID int64
	Title         string
	Description   string
	TargetAmount  int64
}

// CreateGoal appends a goal to the purchase queue. The first goal of an empty
// queue becomes ACTIVE immediately.
func (s *PayoutService) CreateGoal(ctx context.Context, chamaID, actorID int64, req *GoalRequest) (*model.PurchaseGoal, error) {
	chama, err := s.activeChamaOfType(ctx, chamaID, model.OperationGroupPurchase)
	if err != nil {
		return nil, err
	}

	member, err := s.memberRepo.Get(ctx, chamaID, req.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	if member.Status != model.MemberStatusActive {
		return nil, ErrMemberNotActive
	}

	maxOrder, err := s.goalRepo.MaxOrder(ctx, chamaID)
	if err != nil {
		return nil, err
	}

	goal := &model.PurchaseGoal{
		ChamaID:       chamaID,
		BeneficiaryID: req.BeneficiaryID,
		Title:         req.Title,
		Description:   req.Description,
		TargetAmount:  req.TargetAmount,
		PurchaseOrder: maxOrder + 1,
		Status:        model.GoalStatusQueued,
	}
	if chama.CurrentGoalID == nil {
		goal.Status = model.GoalStatusActive
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.goalRepo.Create(ctx, tx, goal); err != nil {
			return err
		}
		if goal.Status == model.GoalStatusActive {
			return s.chamaRepo.SetCurrentGoal(ctx, tx, chamaID, &goal.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// UpdateGoal edits a queued goal's description or target. Active and
// completed goals are immutable.
func (s *PayoutService) UpdateGoal(ctx context.Context, chamaID, goalID int64, title, description string, targetAmount int64) (*model.PurchaseGoal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.ChamaID != chamaID {
		return nil, repository.ErrGoalNotFound
	}
	if goal.Status != model.GoalStatusQueued {
		return nil, ErrGoalNotEditable
	}

	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if description != "" {
		updates["description"] = description
	}
	if targetAmount > 0 {
		updates["target_amount"] = targetAmount
	}
	if len(updates) > 0 {
		err = s.db.WithContext(ctx).
			Model(&model.PurchaseGoal{}).
			Where("id = ? AND status = ?", goalID, model.GoalStatusQueued).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return s.goalRepo.GetByID(ctx, goalID)
}

func (s *PayoutService) ListGoals(ctx context.Context, chamaID int64) ([]*model.PurchaseGoal, error) {
	return s.goalRepo.ListByChama(ctx, chamaID)
}

// CompleteActiveGoal funds the active goal: deducts exactly its target from
// the pool, records the cycle, and activates the next queued goal (lowest
// purchase order), clearing the pointer when the queue is empty.
func (s *PayoutService) CompleteActiveGoal(ctx context.Context, chamaID, actorID int64) (*model.ChamaCycle, error) {
	chamaLock, err := acquireChamaLock(ctx, s.redisClient, chamaID)
	if err != nil {
		return nil, err
	}
	defer chamaLock.Unlock(ctx)

	chama, err := s.activeChamaOfType(ctx, chamaID, model.OperationGroupPurchase)
	if err != nil {
		return nil, err
	}
	if chama.CurrentGoalID == nil {
		return nil, ErrNoActiveGoal
	}

	goal, err := s.goalRepo.GetByID(ctx, *chama.CurrentGoalID)
	if err != nil {
		return nil, err
	}
	if chama.CurrentBalance < goal.TargetAmount {
		return nil, ErrGoalNotFundable
	}

	cycle := &model.ChamaCycle{
		CycleNo:     idgen.GenerateCycleNo(),
		ChamaID:     chamaID,
		Type:        model.CycleTypeGroupPurchase,
		Status:      model.CycleStatusCompleted,
		RecipientID: &goal.BeneficiaryID,
		GoalID:      &goal.ID,
		Amount:      goal.TargetAmount,
		Note:        goal.Title,
		ExecutedBy:  actorID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chamaRepo.DeductBalance(ctx, tx, chamaID, goal.TargetAmount); err != nil {
			return err
		}
		if err := s.goalRepo.UpdateStatus(ctx, tx, goal.ID, model.GoalStatusActive, model.GoalStatusCompleted); err != nil {
			return err
		}
		if err := s.cycleRepo.Create(ctx, tx, cycle); err != nil {
			return fmt.Errorf("failed to record cycle: %w", err)
		}

		next, err := s.goalRepo.NextQueued(ctx, tx, chamaID)
		if err != nil {
			return err
		}
		if next != nil {
			if err := s.goalRepo.UpdateStatus(ctx, tx, next.ID, model.GoalStatusQueued, model.GoalStatusActive); err != nil {
				return err
			}
			if err := s.chamaRepo.SetCurrentGoal(ctx, tx, chamaID, &next.ID); err != nil {
				return err
			}
		} else {
			if err := s.chamaRepo.SetCurrentGoal(ctx, tx, chamaID, nil); err != nil {
				return err
			}
		}

		return s.notifier.Enqueue(ctx, tx, cycle.CycleNo, EventGoalCompleted, goal.BeneficiaryID, map[string]interface{}{
			"chama_id": chamaID,
			"goal_id":  goal.ID,
			"title":    goal.Title,
			"amount":   goal.TargetAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     actorID,
		OnBehalfOf:  &goal.BeneficiaryID,
		Action:      model.AuditActionGoalCompleted,
		Category:    model.AuditCategoryPayout,
		Amount:      goal.TargetAmount,
		Description: fmt.Sprintf("purchase goal %q completed, cycle %s", goal.Title, cycle.CycleNo),
		BeforeState: Snapshot(map[string]int64{"current_balance": chama.CurrentBalance}),
		AfterState:  Snapshot(map[string]int64{"current_balance": chama.CurrentBalance - goal.TargetAmount}),
	})

	log.Printf("[Payout] goal completed: chama=%d goal=%d cycle=%s amount=%d",
		chamaID, goal.ID, cycle.CycleNo, goal.TargetAmount)
	return cycle, nil
}

func (s *PayoutService) ListCycles(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.ChamaCycle, int64, error) {
	return s.cycleRepo.ListByChama(ctx, chamaID, page, pageSize)
}
