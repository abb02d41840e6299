package handler

import (
	"chamapay/internal/authz"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

// DistributeEqualShares splits the whole pool equally among active members.
// Chairperson only; the pool must have reached the chama target.
// POST /api/chamas/:id/distribute
func (h *Handler) DistributeEqualShares(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapExecutePayout)
	if !ok {
		return
	}

	cycle, err := h.payoutService.DistributeEqualShares(c.Request.Context(), chamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, cycle)
}

// GetRotation returns the rotation order, current index and next recipient.
// GET /api/chamas/:id/rotation
func (h *Handler) GetRotation(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}

	state, err := h.payoutService.GetRotation(c.Request.Context(), chamaID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, state)
}

type rotationOrderRequest struct {
	Order []int64 `json:"order" binding:"required,min=1"`
}

// SetRotationOrder replaces the rotation order. Each active member must
// appear exactly once.
// PUT /api/chamas/:id/rotation
func (h *Handler) SetRotationOrder(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageRotation)
	if !ok {
		return
	}
	var req rotationOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	state, err := h.payoutService.SetRotationOrder(c.Request.Context(), chamaID, claims.UserID, req.Order)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, state)
}

// ShuffleRotation randomizes the order and resets the index.
// POST /api/chamas/:id/rotation/shuffle
func (h *Handler) ShuffleRotation(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageRotation)
	if !ok {
		return
	}

	state, err := h.payoutService.ShuffleRotation(c.Request.Context(), chamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, state)
}

// ExecuteRotationPayout disburses to the current recipient and advances the
// pointer.
// POST /api/chamas/:id/rotation/payout
func (h *Handler) ExecuteRotationPayout(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapExecutePayout)
	if !ok {
		return
	}

	cycle, err := h.payoutService.ExecuteRotationPayout(c.Request.Context(), chamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, cycle)
}

type goalRequest struct {
	BeneficiaryID int64  `json:"beneficiary_id" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	TargetAmount  int64  `json:"target_amount" binding:"required,gt=0"`
}

// CreateGoal appends a purchase goal to the queue.
// POST /api/chamas/:id/goals
func (h *Handler) CreateGoal(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageGoals)
	if !ok {
		return
	}
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	goal, err := h.payoutService.CreateGoal(c.Request.Context(), chamaID, claims.UserID, &service.GoalRequest{
		BeneficiaryID: req.BeneficiaryID,
		Title:         req.Title,
		Description:   req.Description,
		TargetAmount:  req.TargetAmount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, goal)
}

type updateGoalRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	TargetAmount int64  `json:"target_amount" binding:"required,gt=0"`
}

// UpdateGoal edits a queued goal.
// PUT /api/chamas/:id/goals/:goalId
func (h *Handler) UpdateGoal(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapManageGoals)
	if !ok {
		return
	}
	goalID, ok := pathID(c, "goalId")
	if !ok {
		return
	}
	var req updateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	goal, err := h.payoutService.UpdateGoal(c.Request.Context(), chamaID, goalID, req.Title, req.Description, req.TargetAmount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, goal)
}

// CompleteActiveGoal funds the active goal from the pool and activates the
// next queued one.
// POST /api/chamas/:id/goals/complete
func (h *Handler) CompleteActiveGoal(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageGoals)
	if !ok {
		return
	}

	cycle, err := h.payoutService.CompleteActiveGoal(c.Request.Context(), chamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, cycle)
}

// ListGoals returns the purchase queue in order.
// GET /api/chamas/:id/goals
func (h *Handler) ListGoals(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}

	goals, err := h.payoutService.ListGoals(c.Request.Context(), chamaID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, goals)
}

// ListCycles pages through past payouts.
// GET /api/chamas/:id/cycles
func (h *Handler) ListCycles(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	cycles, total, err := h.payoutService.ListCycles(c.Request.Context(), chamaID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"cycles":    cycles,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
