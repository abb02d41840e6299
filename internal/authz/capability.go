package authz

import (
	"errors"

	"chamapay/internal/model"
)

// ============================================================================
// Role -> capability mapping
// ============================================================================
//
// Chama-scoped authorization is a single closed table instead of per-handler
// role-list checks. Handlers resolve the caller's membership once and call
// Require(membership, capability) before every mutation.

// Capability names one privileged chama action.
type Capability string

const (
	CapViewChama          Capability = "VIEW_CHAMA"
	CapManageMembers      Capability = "MANAGE_MEMBERS"
	CapRecordContribution Capability = "RECORD_CONTRIBUTION"
	CapManageTransactions Capability = "MANAGE_TRANSACTIONS"
	CapApproveLoan        Capability = "APPROVE_LOAN"
	CapRequestLoan        Capability = "REQUEST_LOAN"
	CapExecutePayout      Capability = "EXECUTE_PAYOUT"
	CapManageRotation     Capability = "MANAGE_ROTATION"
	CapManageGoals        Capability = "MANAGE_GOALS"
	CapPostAnnouncement   Capability = "POST_ANNOUNCEMENT"
	CapCreatePoll         Capability = "CREATE_POLL"
	CapVote               Capability = "VOTE"
	CapPost               Capability = "POST"
	CapMessage            Capability = "MESSAGE"
)

var (
	ErrNotMember    = errors.New("not an active member of this chama")
	ErrNotPermitted = errors.New("role does not permit this action")
)

var memberBase = []Capability{
	CapViewChama, CapRequestLoan, CapVote, CapPost, CapMessage,
}

var roleCapabilities = map[string][]Capability{
	model.MemberRoleMember: memberBase,
	model.MemberRoleSecretary: append([]Capability{
		CapPostAnnouncement, CapCreatePoll,
	}, memberBase...),
	model.MemberRoleTreasurer: append([]Capability{
		CapRecordContribution, CapManageTransactions, CapApproveLoan, CapCreatePoll,
	}, memberBase...),
	model.MemberRoleChairperson: append([]Capability{
		CapManageMembers, CapRecordContribution, CapManageTransactions,
		CapApproveLoan, CapExecutePayout, CapManageRotation, CapManageGoals,
		CapPostAnnouncement, CapCreatePoll,
	}, memberBase...),
}

// Has reports whether a role grants a capability.
func Has(role string, cap Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// Require checks that the membership is active and its role grants the
// capability. A nil membership means the caller is not in the chama at all.
func Require(member *model.ChamaMember, cap Capability) error {
	if member == nil || member.Status != model.MemberStatusActive {
		return ErrNotMember
	}
	if !Has(member.Role, cap) {
		return ErrNotPermitted
	}
	return nil
}
