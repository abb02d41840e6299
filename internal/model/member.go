package model

import (
	"time"
)

const (
	MemberRoleMember      = "MEMBER"
	MemberRoleTreasurer   = "TREASURER"
	MemberRoleSecretary   = "SECRETARY"
	MemberRoleChairperson = "CHAIRPERSON"
)

const (
	MemberStatusActive    = "ACTIVE"
	MemberStatusInactive  = "INACTIVE"
	MemberStatusSuspended = "SUSPENDED"
)

func IsValidMemberRole(role string) bool {
	switch role {
	case MemberRoleMember, MemberRoleTreasurer, MemberRoleSecretary, MemberRoleChairperson:
		return true
	}
	return false
}

// ChamaMember links a user to a chama with a role. The (chama_id, user_id)
// pair is unique; the role is the sole authorization input for chama-scoped
// writes (see internal/authz).
type ChamaMember struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID   int64     `gorm:"uniqueIndex:uk_chama_user;index;not null" json:"chama_id"`
	UserID    int64     `gorm:"uniqueIndex:uk_chama_user;index;not null" json:"user_id"`
	Role      string    `gorm:"type:varchar(16);not null;default:MEMBER" json:"role"`
	Status    string    `gorm:"type:varchar(16);not null;default:ACTIVE" json:"status"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ChamaMember) TableName() string {
	return "chama_member"
}
