package authz

import (
	"errors"
	"testing"

	"chamapay/internal/model"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role string
		cap  Capability
		want bool
	}{
		{model.MemberRoleMember, CapViewChama, true},
		{model.MemberRoleMember, CapRequestLoan, true},
		{model.MemberRoleMember, CapVote, true},
		{model.MemberRoleMember, CapRecordContribution, false},
		{model.MemberRoleMember, CapApproveLoan, false},
		{model.MemberRoleMember, CapExecutePayout, false},
		{model.MemberRoleMember, CapManageMembers, false},

		{model.MemberRoleSecretary, CapPostAnnouncement, true},
		{model.MemberRoleSecretary, CapCreatePoll, true},
		{model.MemberRoleSecretary, CapApproveLoan, false},
		{model.MemberRoleSecretary, CapManageMembers, false},

		{model.MemberRoleTreasurer, CapRecordContribution, true},
		{model.MemberRoleTreasurer, CapManageTransactions, true},
		{model.MemberRoleTreasurer, CapApproveLoan, true},
		{model.MemberRoleTreasurer, CapExecutePayout, false},
		{model.MemberRoleTreasurer, CapManageMembers, false},

		{model.MemberRoleChairperson, CapManageMembers, true},
		{model.MemberRoleChairperson, CapExecutePayout, true},
		{model.MemberRoleChairperson, CapManageRotation, true},
		{model.MemberRoleChairperson, CapManageGoals, true},
		{model.MemberRoleChairperson, CapApproveLoan, true},
		{model.MemberRoleChairperson, CapViewChama, true},

		{"NOT_A_ROLE", CapViewChama, false},
	}

	for _, tt := range tests {
		if got := Has(tt.role, tt.cap); got != tt.want {
			t.Errorf("Has(%s, %s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestRequire(t *testing.T) {
	t.Run("nil member is not a member", func(t *testing.T) {
		if err := Require(nil, CapViewChama); !errors.Is(err, ErrNotMember) {
			t.Errorf("Require(nil) = %v, want ErrNotMember", err)
		}
	})

	t.Run("inactive member is rejected", func(t *testing.T) {
		member := &model.ChamaMember{Role: model.MemberRoleChairperson, Status: model.MemberStatusSuspended}
		if err := Require(member, CapViewChama); !errors.Is(err, ErrNotMember) {
			t.Errorf("Require(suspended) = %v, want ErrNotMember", err)
		}
	})

	t.Run("active member without capability", func(t *testing.T) {
		member := &model.ChamaMember{Role: model.MemberRoleMember, Status: model.MemberStatusActive}
		if err := Require(member, CapExecutePayout); !errors.Is(err, ErrNotPermitted) {
			t.Errorf("Require(member, CapExecutePayout) = %v, want ErrNotPermitted", err)
		}
	})

	t.Run("active member with capability", func(t *testing.T) {
		member := &model.ChamaMember{Role: model.MemberRoleTreasurer, Status: model.MemberStatusActive}
		if err := Require(member, CapRecordContribution); err != nil {
			t.Errorf("Require(treasurer, CapRecordContribution) = %v, want nil", err)
		}
	})
}
