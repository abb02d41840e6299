package model

import (
	"time"
)

const (
	UserRoleMember = "USER"
	UserRoleAdmin  = "ADMIN"
)

const (
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
)

// User is a registered platform user. Chama-level roles live on ChamaMember;
// the role here only gates the admin back-office.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Email        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"type:varchar(20);index" json:"phone"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	Role         string    `gorm:"type:varchar(16);not null;default:USER" json:"role"`
	Status       string    `gorm:"type:varchar(16);not null;default:ACTIVE" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
