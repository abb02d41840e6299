package handler

import (
	"strconv"

	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminDashboard returns platform-wide aggregates.
// GET /api/admin/dashboard
func (h *Handler) AdminDashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dashboard)
}

// AdminListChamas pages through all chamas, optionally by status.
// GET /api/admin/chamas?status=PENDING
func (h *Handler) AdminListChamas(c *gin.Context) {
	page, pageSize := pagination(c)
	status := c.Query("status")

	chamas, total, err := h.adminService.ListChamas(c.Request.Context(), status, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"chamas":    chamas,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type chamaStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// AdminChangeChamaStatus moves a chama through its lifecycle: approve,
// reject, suspend, reinstate, close.
// PUT /api/admin/chamas/:id
func (h *Handler) AdminChangeChamaStatus(c *gin.Context) {
	chamaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req chamaStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	claims := claimsFrom(c)

	if err := h.adminService.ChangeChamaStatus(c.Request.Context(), claims.UserID, chamaID, req.Status, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "status updated"})
}

// AdminDeleteChama cascade-deletes a zero-balance chama.
// DELETE /api/admin/chamas/:id
func (h *Handler) AdminDeleteChama(c *gin.Context) {
	chamaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	claims := claimsFrom(c)

	if err := h.adminService.DeleteChama(c.Request.Context(), claims.UserID, chamaID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "chama deleted"})
}

// AdminListUsers pages through all platform users.
// GET /api/admin/users
func (h *Handler) AdminListUsers(c *gin.Context) {
	page, pageSize := pagination(c)

	users, total, err := h.adminService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type userStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminSetUserStatus suspends or reinstates a user.
// PUT /api/admin/users/:id
func (h *Handler) AdminSetUserStatus(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req userStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	claims := claimsFrom(c)

	if err := h.adminService.SetUserStatus(c.Request.Context(), claims.UserID, userID, req.Status); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user status updated"})
}

// AdminAuditLogs reads the audit trail of one chama.
// GET /api/admin/audit-logs?chama_id=1&category=LOAN
func (h *Handler) AdminAuditLogs(c *gin.Context) {
	chamaID, err := strconv.ParseInt(c.Query("chama_id"), 10, 64)
	if err != nil || chamaID <= 0 {
		response.ParamError(c, "chama_id must be a positive integer")
		return
	}
	category := c.Query("category")
	page, pageSize := pagination(c)

	logs, total, err := h.adminService.AuditTrail(c.Request.Context(), chamaID, category, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"logs":      logs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
