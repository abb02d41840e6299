package handler

import (
	"chamapay/internal/authz"
	"chamapay/internal/infrastructure/mpesa"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

type manualContributionRequest struct {
	MemberID int64  `json:"member_id" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Method   string `json:"method" binding:"required"`
}

// RecordManualContribution records a cash/bank contribution on behalf of a
// member. Treasurer or chairperson only.
// POST /api/chamas/:id/contributions
func (h *Handler) RecordManualContribution(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapRecordContribution)
	if !ok {
		return
	}
	var req manualContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	contribution, err := h.contributionService.RecordManual(c.Request.Context(), chamaID, claims.UserID, &service.ManualContributionRequest{
		MemberID: req.MemberID,
		Amount:   req.Amount,
		Method:   req.Method,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, contribution)
}

// ListContributions: confirmed rows for everyone, plus the caller's own
// pending ones.
// GET /api/chamas/:id/contributions
func (h *Handler) ListContributions(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	contributions, total, err := h.contributionService.List(c.Request.Context(), chamaID, claims.UserID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"contributions": contributions,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

type stkPushRequest struct {
	ChamaID int64  `json:"chama_id" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
}

// InitiateSTKPush starts an M-Pesa checkout for the caller's own
// contribution.
// POST /api/mpesa/stkpush
func (h *Handler) InitiateSTKPush(c *gin.Context) {
	var req stkPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	claims := claimsFrom(c)

	member, err := h.chamaService.Membership(c.Request.Context(), req.ChamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := authz.Require(member, authz.CapViewChama); err != nil {
		writeError(c, err)
		return
	}

	contribution, err := h.contributionService.InitiateSTKPush(c.Request.Context(), req.ChamaID, claims.UserID, req.Phone, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, contribution)
}

// MpesaCallback receives Daraja's payment result. Always acknowledged with
// 200 so Safaricom stops retrying; correlation failures are logged, not
// surfaced.
// POST /api/mpesa/callback
func (h *Handler) MpesaCallback(c *gin.Context) {
	var envelope mpesa.CallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		// malformed payload, nothing to correlate
		c.JSON(200, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
		return
	}

	if err := h.contributionService.HandleCallback(c.Request.Context(), &envelope.Body.StkCallback); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
