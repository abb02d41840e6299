package repository

import (
	"context"
	"errors"

	"chamapay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrPollNotFound         = errors.New("poll not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrAlreadyVoted         = errors.New("user has already voted on this poll")
)

// CollabRepository covers the simple collaboration entities: announcements,
// polls and votes, posts, messages.
type CollabRepository struct {
	db *gorm.DB
}

func NewCollabRepository(db *gorm.DB) *CollabRepository {
	return &CollabRepository{db: db}
}

// ============================================================================
// Announcements
// ============================================================================

func (r *CollabRepository) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *CollabRepository) ListAnnouncements(ctx context.Context, chamaID int64) ([]*model.Announcement, error) {
	var announcements []*model.Announcement
	err := r.db.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Order("created_at DESC").
		Find(&announcements).Error
	return announcements, err
}

func (r *CollabRepository) GetAnnouncement(ctx context.Context, id int64) (*model.Announcement, error) {
	var a model.Announcement
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *CollabRepository) DeleteAnnouncement(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Announcement{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// ============================================================================
// Polls & votes
// ============================================================================

func (r *CollabRepository) CreatePoll(ctx context.Context, poll *model.Poll) error {
	return r.db.WithContext(ctx).Create(poll).Error
}

func (r *CollabRepository) GetPoll(ctx context.Context, id int64) (*model.Poll, error) {
	var poll model.Poll
	err := r.db.WithContext(ctx).First(&poll, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return &poll, nil
}

func (r *CollabRepository) ListPolls(ctx context.Context, chamaID int64) ([]*model.Poll, error) {
	var polls []*model.Poll
	err := r.db.WithContext(ctx).
		Where("chama_id = ?", chamaID).
		Order("created_at DESC").
		Find(&polls).Error
	return polls, err
}

func (r *CollabRepository) UpdatePollStatus(ctx context.Context, id int64, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Poll{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPollNotFound
	}
	return nil
}

func (r *CollabRepository) DeletePoll(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Where("poll_id = ?", id).Delete(&model.PollVote{}).Error
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&model.Poll{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPollNotFound
	}
	return nil
}

// CreateVote inserts a vote; the (poll_id, user_id) unique index turns a
// second vote into ErrAlreadyVoted.
func (r *CollabRepository) CreateVote(ctx context.Context, vote *model.PollVote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyVoted
		}
		return err
	}
	return nil
}

// TallyVotes returns vote counts per option index.
func (r *CollabRepository) TallyVotes(ctx context.Context, pollID int64) (map[int]int64, error) {
	type row struct {
		OptionIndex int
		Count       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.PollVote{}).
		Select("option_index, count(*) as count").
		Where("poll_id = ?", pollID).
		Group("option_index").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	tally := make(map[int]int64, len(rows))
	for _, rw := range rows {
		tally[rw.OptionIndex] = rw.Count
	}
	return tally, nil
}

// ============================================================================
// Posts & messages
// ============================================================================

func (r *CollabRepository) CreatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *CollabRepository) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *CollabRepository) ListPosts(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.Post, int64, error) {
	var posts []*model.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Post{}).Where("chama_id = ?", chamaID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	return posts, total, err
}

func (r *CollabRepository) DeletePost(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *CollabRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *CollabRepository) ListMessages(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.Message, int64, error) {
	var messages []*model.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Message{}).Where("chama_id = ?", chamaID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	return messages, total, err
}

// DeleteByChama removes all collaboration rows of a chama (admin cascade).
func (r *CollabRepository) DeleteByChama(ctx context.Context, tx *gorm.DB, chamaID int64) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).
		Where("poll_id IN (?)", tx.Model(&model.Poll{}).Select("id").Where("chama_id = ?", chamaID)).
		Delete(&model.PollVote{}).Error
	if err != nil {
		return err
	}
	for _, m := range []interface{}{&model.Poll{}, &model.Announcement{}, &model.Post{}, &model.Message{}} {
		if err := tx.WithContext(ctx).Where("chama_id = ?", chamaID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
