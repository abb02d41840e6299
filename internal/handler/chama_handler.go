package handler

import (
	"chamapay/internal/authz"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

type createChamaRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	OperationType      string `json:"operation_type" binding:"required"`
	TargetAmount       int64  `json:"target_amount" binding:"gte=0"`
	ContributionAmount int64  `json:"contribution_amount" binding:"gte=0"`
	LoanInterestBps    int    `json:"loan_interest_bps" binding:"gte=0"`
}

// CreateChama registers a new group; it stays PENDING until an admin
// approves it.
// POST /api/chamas
func (h *Handler) CreateChama(c *gin.Context) {
	var req createChamaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	claims := claimsFrom(c)

	chama, err := h.chamaService.CreateChama(c.Request.Context(), claims.UserID, &service.CreateChamaRequest{
		Name:               req.Name,
		Description:        req.Description,
		OperationType:      req.OperationType,
		TargetAmount:       req.TargetAmount,
		ContributionAmount: req.ContributionAmount,
		LoanInterestBps:    req.LoanInterestBps,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, chama)
}

// ListMyChamas returns every chama the caller belongs to.
// GET /api/chamas
func (h *Handler) ListMyChamas(c *gin.Context) {
	claims := claimsFrom(c)
	chamas, err := h.chamaService.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, chamas)
}

// GetChama returns chama detail, members only.
// GET /api/chamas/:id
func (h *Handler) GetChama(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	chama, err := h.chamaService.GetChama(c.Request.Context(), chamaID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, chama)
}

// ListMembers returns the member roster with names and emails.
// GET /api/chamas/:id/members
func (h *Handler) ListMembers(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	members, err := h.chamaService.ListMembers(c.Request.Context(), chamaID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, members)
}

type inviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// InviteMember adds a registered user to the chama by email.
// POST /api/chamas/:id/members
func (h *Handler) InviteMember(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapManageMembers)
	if !ok {
		return
	}
	var req inviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	member, err := h.chamaService.InviteMember(c.Request.Context(), chamaID, req.Email, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, member)
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateMemberRole changes a member's role; handing over CHAIRPERSON demotes
// the caller.
// PUT /api/chamas/:id/members/:userId
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageMembers)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.chamaService.UpdateMemberRole(c.Request.Context(), chamaID, userID, req.Role, claims.UserID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "role updated"})
}

// RemoveMember removes a member from the chama.
// DELETE /api/chamas/:id/members/:userId
func (h *Handler) RemoveMember(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapManageMembers)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.chamaService.RemoveMember(c.Request.Context(), chamaID, userID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}
