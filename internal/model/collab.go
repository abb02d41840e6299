package model

import (
	"time"
)

// Collaboration entities: member-scoped, permission-gated, structurally simple.

// Announcement is a secretary/chairperson broadcast to chama members.
type Announcement struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID   int64     `gorm:"index;not null" json:"chama_id"`
	AuthorID  int64     `gorm:"not null" json:"author_id"`
	Title     string    `gorm:"type:varchar(128);not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Announcement) TableName() string {
	return "announcement"
}

const (
	PollStatusOpen   = "OPEN"
	PollStatusClosed = "CLOSED"
)

// Poll options are stored as a JSON string array; votes reference the option
// by index.
type Poll struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID   int64      `gorm:"index;not null" json:"chama_id"`
	CreatorID int64      `gorm:"not null" json:"creator_id"`
	Question  string     `gorm:"type:varchar(256);not null" json:"question"`
	Options   string     `gorm:"type:text;not null" json:"options"`
	Status    string     `gorm:"type:varchar(16);not null;default:OPEN" json:"status"`
	ClosesAt  *time.Time `json:"closes_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Poll) TableName() string {
	return "poll"
}

// PollVote is one member's vote; the (poll_id, user_id) unique index makes a
// second vote a duplicate-key conflict.
type PollVote struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PollID      int64     `gorm:"uniqueIndex:uk_poll_user;index;not null" json:"poll_id"`
	UserID      int64     `gorm:"uniqueIndex:uk_poll_user;not null" json:"user_id"`
	OptionIndex int       `gorm:"not null" json:"option_index"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PollVote) TableName() string {
	return "poll_vote"
}

// Post is a member feed entry.
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID   int64     `gorm:"index;not null" json:"chama_id"`
	AuthorID  int64     `gorm:"not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Post) TableName() string {
	return "post"
}

// Message is one chama chat message.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChamaID   int64     `gorm:"index;not null" json:"chama_id"`
	SenderID  int64     `gorm:"not null" json:"sender_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "message"
}
