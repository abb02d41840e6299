package service

import (
	"context"
	"errors"
	"fmt"

	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrInvalidStatusChange = errors.New("status change not allowed from current state")
	ErrChamaHoldsFunds     = errors.New("chama still holds funds, distribute or zero the balance first")
	ErrReasonRequired      = errors.New("a reason is required")
)

// AdminService is the back-office: chama approval lifecycle, user
// suspension, platform dashboard, audit trail access.
type AdminService struct {
	db               *gorm.DB
	cfg              *config.Config
	userRepo         *repository.UserRepository
	chamaRepo        *repository.ChamaRepository
	memberRepo       *repository.MemberRepository
	contributionRepo *repository.ContributionRepository
	loanRepo         *repository.LoanRepository
	transactionRepo  *repository.TransactionRepository
	cycleRepo        *repository.CycleRepository
	goalRepo         *repository.GoalRepository
	collabRepo       *repository.CollabRepository
	auditRepo        *repository.AuditRepository
	audit            *AuditLogger
	notifier         *Notifier
}

func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{
		db:               db,
		cfg:              cfg,
		userRepo:         repository.NewUserRepository(db),
		chamaRepo:        repository.NewChamaRepository(db),
		memberRepo:       repository.NewMemberRepository(db),
		contributionRepo: repository.NewContributionRepository(db),
		loanRepo:         repository.NewLoanRepository(db),
		transactionRepo:  repository.NewTransactionRepository(db),
		cycleRepo:        repository.NewCycleRepository(db),
		goalRepo:         repository.NewGoalRepository(db),
		collabRepo:       repository.NewCollabRepository(db),
		auditRepo:        repository.NewAuditRepository(db),
		audit:            NewAuditLogger(db),
		notifier:         NewNotifier(db, cfg),
	}
}

// Dashboard aggregates for the admin landing page.
type Dashboard struct {
	TotalUsers       int64             `json:"total_users"`
	ChamasByStatus   map[string]int64  `json:"chamas_by_status"`
	LoansByStatus    map[string]int64  `json:"loans_by_status"`
	TotalHeldBalance int64             `json:"total_held_balance"`
	RecentActivity   []*model.AuditLog `json:"recent_activity"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	chamas, err := s.chamaRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.loanRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	held, err := s.chamaRepo.TotalHeldBalance(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.auditRepo.Recent(ctx, 20)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		TotalUsers:       totalUsers,
		ChamasByStatus:   chamas,
		LoansByStatus:    loans,
		TotalHeldBalance: held,
		RecentActivity:   recent,
	}, nil
}

func (s *AdminService) ListChamas(ctx context.Context, status string, page, pageSize int) ([]*model.Chama, int64, error) {
	return s.chamaRepo.List(ctx, status, page, pageSize)
}

func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) ([]*model.User, int64, error) {
	return s.userRepo.List(ctx, page, pageSize)
}

// ChangeChamaStatus moves a chama along its lifecycle (approve, reject,
// suspend, reinstate, close). The update is a compare-and-set on the current
// status, so two admins racing on the same chama cannot both win.
func (s *AdminService) ChangeChamaStatus(ctx context.Context, adminID, chamaID int64, targetStatus, reason string) error {
	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return err
	}
	if !model.ChamaCanTransitionTo(chama.Status, targetStatus) {
		return ErrInvalidStatusChange
	}
	if targetStatus == model.ChamaStatusRejected && reason == "" {
		return ErrReasonRequired
	}

	var notifyEvent string
	switch targetStatus {
	case model.ChamaStatusActive:
		if chama.Status == model.ChamaStatusPending {
			notifyEvent = EventChamaApproved
		}
	case model.ChamaStatusRejected:
		notifyEvent = EventChamaRejected
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chamaRepo.UpdateStatus(ctx, tx, chamaID, chama.Status, targetStatus, reason); err != nil {
			return err
		}
		if notifyEvent == "" {
			return nil
		}
		chair, err := s.chairperson(ctx, chamaID)
		if err != nil || chair == nil {
			// a chama without a chairperson is a data problem, not a
			// reason to abort the status change
			return nil
		}
		return s.notifier.Enqueue(ctx, tx, fmt.Sprintf("chama:%d", chamaID), notifyEvent, chair.UserID, map[string]interface{}{
			"chama_id":   chamaID,
			"chama_name": chama.Name,
			"reason":     reason,
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     adminID,
		Action:      model.AuditActionChamaStatusChanged,
		Category:    model.AuditCategoryAdmin,
		Description: fmt.Sprintf("%s -> %s: %s", chama.Status, targetStatus, reason),
		BeforeState: Snapshot(map[string]string{"status": chama.Status}),
		AfterState:  Snapshot(map[string]string{"status": targetStatus}),
	})
	return nil
}

// DeleteChama removes a chama and all of its dependent rows in one
// transaction. Refused while the pool still holds funds.
func (s *AdminService) DeleteChama(ctx context.Context, adminID, chamaID int64) error {
	chama, err := s.chamaRepo.GetByID(ctx, chamaID)
	if err != nil {
		return err
	}
	if chama.CurrentBalance != 0 {
		return ErrChamaHoldsFunds
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.collabRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		if err := s.goalRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		if err := s.cycleRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		if err := s.transactionRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		if err := s.loanRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		if err := s.contributionRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		if err := s.memberRepo.DeleteByChama(ctx, tx, chamaID); err != nil {
			return err
		}
		return s.chamaRepo.Delete(ctx, tx, chamaID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ChamaID:     &chamaID,
		ActorID:     adminID,
		Action:      model.AuditActionChamaDeleted,
		Category:    model.AuditCategoryAdmin,
		Description: fmt.Sprintf("deleted chama %q", chama.Name),
		BeforeState: Snapshot(chama),
	})
	return nil
}

// SetUserStatus suspends or reinstates a platform user.
func (s *AdminService) SetUserStatus(ctx context.Context, adminID, userID int64, status string) error {
	if status != model.UserStatusActive && status != model.UserStatusSuspended {
		return ErrInvalidStatusChange
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}

	s.audit.Record(ctx, &model.AuditLog{
		ActorID:     adminID,
		Action:      model.AuditActionUserStatusChanged,
		Category:    model.AuditCategoryAdmin,
		Description: fmt.Sprintf("user %s: %s -> %s", user.Email, user.Status, status),
	})
	return nil
}

// AuditTrail exposes the per-chama audit log, optionally filtered by
// category.
func (s *AdminService) AuditTrail(ctx context.Context, chamaID int64, category string, page, pageSize int) ([]*model.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, chamaID, category, page, pageSize)
}

func (s *AdminService) chairperson(ctx context.Context, chamaID int64) (*model.ChamaMember, error) {
	members, err := s.memberRepo.ListByChama(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.Role == model.MemberRoleChairperson {
			return m, nil
		}
	}
	return nil, nil
}
