package handler

import (
	"time"

	"chamapay/internal/authz"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

type announcementRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// CreateAnnouncement posts a broadcast. Secretary or chairperson only.
// POST /api/chamas/:id/announcements
func (h *Handler) CreateAnnouncement(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapPostAnnouncement)
	if !ok {
		return
	}
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	announcement, err := h.collabService.CreateAnnouncement(c.Request.Context(), chamaID, claims.UserID, req.Title, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, announcement)
}

// ListAnnouncements, newest first.
// GET /api/chamas/:id/announcements
func (h *Handler) ListAnnouncements(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	announcements, err := h.collabService.ListAnnouncements(c.Request.Context(), chamaID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, announcements)
}

// DeleteAnnouncement removes a broadcast.
// DELETE /api/chamas/:id/announcements/:annId
func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapPostAnnouncement)
	if !ok {
		return
	}
	announcementID, ok := pathID(c, "annId")
	if !ok {
		return
	}
	if err := h.collabService.DeleteAnnouncement(c.Request.Context(), chamaID, announcementID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "announcement deleted"})
}

type pollRequest struct {
	Question string     `json:"question" binding:"required"`
	Options  []string   `json:"options" binding:"required,min=2"`
	ClosesAt *time.Time `json:"closes_at"`
}

// CreatePoll opens a vote.
// POST /api/chamas/:id/polls
func (h *Handler) CreatePoll(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapCreatePoll)
	if !ok {
		return
	}
	var req pollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	poll, err := h.collabService.CreatePoll(c.Request.Context(), chamaID, claims.UserID, req.Question, req.Options, req.ClosesAt)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, poll)
}

// GetPoll returns one poll with its tally.
// GET /api/chamas/:id/polls/:pollId
func (h *Handler) GetPoll(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "pollId")
	if !ok {
		return
	}
	poll, err := h.collabService.GetPoll(c.Request.Context(), chamaID, pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, poll)
}

// ListPolls returns all polls with tallies.
// GET /api/chamas/:id/polls
func (h *Handler) ListPolls(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	polls, err := h.collabService.ListPolls(c.Request.Context(), chamaID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, polls)
}

type voteRequest struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// Vote casts the caller's one vote.
// POST /api/chamas/:id/polls/:pollId/vote
func (h *Handler) Vote(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapVote)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "pollId")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.collabService.Vote(c.Request.Context(), chamaID, pollID, claims.UserID, *req.OptionIndex); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "vote recorded"})
}

// ClosePoll stops further voting.
// POST /api/chamas/:id/polls/:pollId/close
func (h *Handler) ClosePoll(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapCreatePoll)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "pollId")
	if !ok {
		return
	}
	if err := h.collabService.ClosePoll(c.Request.Context(), chamaID, pollID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "poll closed"})
}

// DeletePoll removes a poll and its votes.
// DELETE /api/chamas/:id/polls/:pollId
func (h *Handler) DeletePoll(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapCreatePoll)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "pollId")
	if !ok {
		return
	}
	if err := h.collabService.DeletePoll(c.Request.Context(), chamaID, pollID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "poll deleted"})
}

type bodyRequest struct {
	Body string `json:"body" binding:"required"`
}

// CreatePost adds a feed entry.
// POST /api/chamas/:id/posts
func (h *Handler) CreatePost(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapPost)
	if !ok {
		return
	}
	var req bodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	post, err := h.collabService.CreatePost(c.Request.Context(), chamaID, claims.UserID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}

// ListPosts pages through the feed.
// GET /api/chamas/:id/posts
func (h *Handler) ListPosts(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	posts, total, err := h.collabService.ListPosts(c.Request.Context(), chamaID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"posts":     posts,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DeletePost removes the caller's own post; the chairperson can remove any.
// DELETE /api/chamas/:id/posts/:postId
func (h *Handler) DeletePost(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapPost)
	if !ok {
		return
	}
	postID, ok := pathID(c, "postId")
	if !ok {
		return
	}

	member, err := h.chamaService.Membership(c.Request.Context(), chamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	force := member != nil && authz.Has(member.Role, authz.CapManageMembers)

	if err := h.collabService.DeletePost(c.Request.Context(), chamaID, postID, claims.UserID, force); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "post deleted"})
}

// SendMessage appends to the chama chat.
// POST /api/chamas/:id/messages
func (h *Handler) SendMessage(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapMessage)
	if !ok {
		return
	}
	var req bodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	msg, err := h.collabService.SendMessage(c.Request.Context(), chamaID, claims.UserID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, msg)
}

// ListMessages pages through the chat history.
// GET /api/chamas/:id/messages
func (h *Handler) ListMessages(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	messages, total, err := h.collabService.ListMessages(c.Request.Context(), chamaID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"messages":  messages,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
