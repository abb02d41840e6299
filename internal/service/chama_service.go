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
	ErrChamaNameTaken       = errors.New("a chama with this name already exists")
	ErrChamaNotActive       = errors.New("chama is not active")
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrCannotRemoveChair    = errors.New("the chairperson cannot be removed")
	ErrInvalidRole          = errors.New("invalid member role")
)

type ChamaService struct {
	db         *gorm.DB
	cfg        *config.Config
	chamaRepo  *repository.ChamaRepository
	memberRepo *repository.MemberRepository
	userRepo   *repository.UserRepository
	notifier   *Notifier
}

func NewChamaService(db *gorm.DB, cfg *config.Config) *ChamaService {
	return &ChamaService{
		db:         db,
		cfg:        cfg,
		chamaRepo:  repository.NewChamaRepository(db),
		memberRepo: repository.NewMemberRepository(db),
		userRepo:   repository.NewUserRepository(db),
		notifier:   NewNotifier(db, cfg),
	}
}

type CreateChamaRequest struct {
	Name               string
	Description        string
	OperationType      string
	TargetAmount       int64
	ContributionAmount int64
	LoanInterestBps    int
}

// CreateChama creates a PENDING chama and makes the creator its chairperson,
// both in one transaction. The chama needs admin approval before any
// financial operation is allowed.
func (s *ChamaService) CreateChama(ctx context.Context, creatorID int64, req *CreateChamaRequest) (*model.Chama, error) {
	if !model.IsValidOperationType(req.OperationType) {
		return nil, ErrInvalidOperationType
	}

	existing, err := s.chamaRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check chama name: %w", err)
	}
	if existing != nil {
		return nil, ErrChamaNameTaken
	}

	interestBps := req.LoanInterestBps
	if interestBps == 0 {
		interestBps = s.cfg.Business.DefaultLoanInterestBps
	}

	chama := &model.Chama{
		Name:               req.Name,
		Description:        req.Description,
		CreatorID:          creatorID,
		Status:             model.ChamaStatusPending,
		OperationType:      req.OperationType,
		TargetAmount:       req.TargetAmount,
		ContributionAmount: req.ContributionAmount,
		LoanInterestBps:    interestBps,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chamaRepo.Create(ctx, tx, chama); err != nil {
			return fmt.Errorf("failed to create chama: %w", err)
		}

		member := &model.ChamaMember{
			ChamaID: chama.ID,
			UserID:  creatorID,
			Role:    model.MemberRoleChairperson,
			Status:  model.MemberStatusActive,
		}
		if err := s.memberRepo.Create(ctx, tx, member); err != nil {
			return fmt.Errorf("failed to create chairperson membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return chama, nil
}

func (s *ChamaService) GetChama(ctx context.Context, id int64) (*model.Chama, error) {
	return s.chamaRepo.GetByID(ctx, id)
}

func (s *ChamaService) ListMine(ctx context.Context, userID int64) ([]*model.Chama, error) {
	return s.chamaRepo.ListByUser(ctx, userID)
}

// Membership resolves the caller's membership in a chama; returns nil when
// the user is not a member at all (authz treats nil as Forbidden).
func (s *ChamaService) Membership(ctx context.Context, chamaID, userID int64) (*model.ChamaMember, error) {
	member, err := s.memberRepo.Get(ctx, chamaID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return member, nil
}

// ============================================================================
// Membership management (chairperson-gated at the handler)
// ============================================================================

type MemberView struct {
	*model.ChamaMember
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *ChamaService) ListMembers(ctx context.Context, chamaID int64) ([]*MemberView, error) {
	members, err := s.memberRepo.ListByChama(ctx, chamaID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]*MemberView, 0, len(members))
	for _, m := range members {
		view := &MemberView{ChamaMember: m}
		if u, ok := byID[m.UserID]; ok {
			view.Name = u.Name
			view.Email = u.Email
		}
		views = append(views, view)
	}
	return views, nil
}

// InviteMember adds an existing user (looked up by email) to the chama.
func (s *ChamaService) InviteMember(ctx context.Context, chamaID int64, email, role string) (*model.ChamaMember, error) {
	if role == "" {
		role = model.MemberRoleMember
	}
	if !model.IsValidMemberRole(role) || role == model.MemberRoleChairperson {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	member := &model.ChamaMember{
		ChamaID: chamaID,
		UserID:  user.ID,
		Role:    role,
		Status:  model.MemberStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.memberRepo.Create(ctx, tx, member); err != nil {
			return err
		}
		key := fmt.Sprintf("chama:%d:member:%d", chamaID, user.ID)
		return s.notifier.Enqueue(ctx, tx, key, EventMemberInvited, user.ID, map[string]interface{}{
			"chama_id": chamaID,
			"role":     role,
		})
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMemberRole changes a member's role. The chairperson role is assigned
// by handover: giving it to someone demotes the current chairperson to member.
func (s *ChamaService) UpdateMemberRole(ctx context.Context, chamaID, userID int64, role string, actorID int64) error {
	if !model.IsValidMemberRole(role) {
		return ErrInvalidRole
	}

	if _, err := s.memberRepo.Get(ctx, chamaID, userID); err != nil {
		return err
	}

	if role == model.MemberRoleChairperson && userID != actorID {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.memberRepo.UpdateRole(ctx, chamaID, actorID, model.MemberRoleMember); err != nil {
				return err
			}
			return s.memberRepo.UpdateRole(ctx, chamaID, userID, role)
		})
	}

	return s.memberRepo.UpdateRole(ctx, chamaID, userID, role)
}

// RemoveMember deletes a membership; the chairperson must hand over first.
func (s *ChamaService) RemoveMember(ctx context.Context, chamaID, userID int64) error {
	member, err := s.memberRepo.Get(ctx, chamaID, userID)
	if err != nil {
		return err
	}
	if member.Role == model.MemberRoleChairperson {
		return ErrCannotRemoveChair
	}
	return s.memberRepo.Delete(ctx, nil, chamaID, userID)
}
