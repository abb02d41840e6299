package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chamapay/internal/authz"
	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrPollClosed        = errors.New("poll is closed")
	ErrInvalidPollOption = errors.New("option index out of range")
	ErrTooFewPollOptions = errors.New("a poll needs at least two options")
)

type CollabService struct {
	db         *gorm.DB
	cfg        *config.Config
	collabRepo *repository.CollabRepository
}

func NewCollabService(db *gorm.DB, cfg *config.Config) *CollabService {
	return &CollabService{
		db:         db,
		cfg:        cfg,
		collabRepo: repository.NewCollabRepository(db),
	}
}

// ---------- announcements ----------

func (s *CollabService) CreateAnnouncement(ctx context.Context, chamaID, authorID int64, title, body string) (*model.Announcement, error) {
	announcement := &model.Announcement{
		ChamaID:  chamaID,
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}
	if err := s.collabRepo.CreateAnnouncement(ctx, announcement); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *CollabService) ListAnnouncements(ctx context.Context, chamaID int64) ([]*model.Announcement, error) {
	return s.collabRepo.ListAnnouncements(ctx, chamaID)
}

func (s *CollabService) DeleteAnnouncement(ctx context.Context, chamaID, announcementID int64) error {
	announcement, err := s.collabRepo.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return err
	}
	if announcement.ChamaID != chamaID {
		return repository.ErrAnnouncementNotFound
	}
	return s.collabRepo.DeleteAnnouncement(ctx, announcementID)
}

// ---------- polls ----------

type PollView struct {
	*model.Poll
	OptionList []string      `json:"option_list"`
	Tally      map[int]int64 `json:"tally"`
	TotalVotes int64         `json:"total_votes"`
}

func (s *CollabService) CreatePoll(ctx context.Context, chamaID, creatorID int64, question string, options []string, closesAt *time.Time) (*model.Poll, error) {
	if len(options) < 2 {
		return nil, ErrTooFewPollOptions
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	poll := &model.Poll{
		ChamaID:   chamaID,
		CreatorID: creatorID,
		Question:  question,
		Options:   string(encoded),
		Status:    model.PollStatusOpen,
		ClosesAt:  closesAt,
	}
	if err := s.collabRepo.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

// Vote records a member's choice. The unique (poll, user) index makes
// repeat votes surface as ErrAlreadyVoted.
func (s *CollabService) Vote(ctx context.Context, chamaID, pollID, userID int64, optionIndex int) error {
	poll, err := s.pollInChama(ctx, chamaID, pollID)
	if err != nil {
		return err
	}
	if poll.Status != model.PollStatusOpen {
		return ErrPollClosed
	}
	if poll.ClosesAt != nil && time.Now().After(*poll.ClosesAt) {
		return ErrPollClosed
	}

	var options []string
	if err := json.Unmarshal([]byte(poll.Options), &options); err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(options) {
		return ErrInvalidPollOption
	}

	return s.collabRepo.CreateVote(ctx, &model.PollVote{
		PollID:      pollID,
		UserID:      userID,
		OptionIndex: optionIndex,
	})
}

func (s *CollabService) ClosePoll(ctx context.Context, chamaID, pollID int64) error {
	if _, err := s.pollInChama(ctx, chamaID, pollID); err != nil {
		return err
	}
	return s.collabRepo.UpdatePollStatus(ctx, pollID, model.PollStatusClosed)
}

func (s *CollabService) GetPoll(ctx context.Context, chamaID, pollID int64) (*PollView, error) {
	poll, err := s.pollInChama(ctx, chamaID, pollID)
	if err != nil {
		return nil, err
	}
	return s.buildPollView(ctx, poll)
}

func (s *CollabService) ListPolls(ctx context.Context, chamaID int64) ([]*PollView, error) {
	polls, err := s.collabRepo.ListPolls(ctx, chamaID)
	if err != nil {
		return nil, err
	}
	views := make([]*PollView, 0, len(polls))
	for _, poll := range polls {
		view, err := s.buildPollView(ctx, poll)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CollabService) DeletePoll(ctx context.Context, chamaID, pollID int64) error {
	if _, err := s.pollInChama(ctx, chamaID, pollID); err != nil {
		return err
	}
	return s.collabRepo.DeletePoll(ctx, pollID)
}

func (s *CollabService) pollInChama(ctx context.Context, chamaID, pollID int64) (*model.Poll, error) {
	poll, err := s.collabRepo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.ChamaID != chamaID {
		return nil, repository.ErrPollNotFound
	}
	return poll, nil
}

func (s *CollabService) buildPollView(ctx context.Context, poll *model.Poll) (*PollView, error) {
	var options []string
	if err := json.Unmarshal([]byte(poll.Options), &options); err != nil {
		return nil, err
	}
	tally, err := s.collabRepo.TallyVotes(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range tally {
		total += n
	}
	return &PollView{Poll: poll, OptionList: options, Tally: tally, TotalVotes: total}, nil
}

// ---------- posts ----------

func (s *CollabService) CreatePost(ctx context.Context, chamaID, authorID int64, body string) (*model.Post, error) {
	post := &model.Post{ChamaID: chamaID, AuthorID: authorID, Body: body}
	if err := s.collabRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *CollabService) ListPosts(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.Post, int64, error) {
	return s.collabRepo.ListPosts(ctx, chamaID, page, pageSize)
}

// DeletePost lets authors remove their own posts; moderators pass force.
func (s *CollabService) DeletePost(ctx context.Context, chamaID, postID, actorID int64, force bool) error {
	post, err := s.collabRepo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.ChamaID != chamaID {
		return repository.ErrPostNotFound
	}
	if !force && post.AuthorID != actorID {
		return authz.ErrNotPermitted
	}
	return s.collabRepo.DeletePost(ctx, postID)
}

// ---------- messages ----------

func (s *CollabService) SendMessage(ctx context.Context, chamaID, senderID int64, body string) (*model.Message, error) {
	msg := &model.Message{ChamaID: chamaID, SenderID: senderID, Body: body}
	if err := s.collabRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *CollabService) ListMessages(ctx context.Context, chamaID int64, page, pageSize int) ([]*model.Message, int64, error) {
	return s.collabRepo.ListMessages(ctx, chamaID, page, pageSize)
}
