package handler

import (
	"chamapay/internal/authz"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

type loanRequest struct {
	Amount         int64   `json:"amount" binding:"required,gt=0"`
	Reason         string  `json:"reason" binding:"required"`
	DurationMonths int     `json:"duration_months" binding:"required,gt=0"`
	GuarantorIDs   []int64 `json:"guarantor_ids"`
}

// RequestLoan files a loan application with its guarantor list.
// POST /api/chamas/:id/loans
func (h *Handler) RequestLoan(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapRequestLoan)
	if !ok {
		return
	}
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	loan, err := h.loanService.Request(c.Request.Context(), chamaID, claims.UserID, &service.LoanRequest{
		Amount:         req.Amount,
		Reason:         req.Reason,
		DurationMonths: req.DurationMonths,
		GuarantorIDs:   req.GuarantorIDs,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, loan)
}

// GetLoan returns one loan with its guarantor states.
// GET /api/chamas/:id/loans/:loanId
func (h *Handler) GetLoan(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return
	}

	loan, err := h.loanService.Get(c.Request.Context(), chamaID, loanID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, loan)
}

// ListLoans pages through the chama's loans.
// GET /api/chamas/:id/loans
func (h *Handler) ListLoans(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	loans, total, err := h.loanService.List(c.Request.Context(), chamaID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"loans":     loans,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type loanDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT DEFAULT"`
	Reason   string `json:"reason"`
	Penalty  int64  `json:"penalty" binding:"gte=0"`
}

// DecideLoan approves, rejects, or marks a loan defaulted. Treasurer or
// chairperson only.
// PUT /api/chamas/:id/loans/:loanId
func (h *Handler) DecideLoan(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapApproveLoan)
	if !ok {
		return
	}
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return
	}
	var req loanDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	switch req.Decision {
	case "APPROVE":
		loan, err := h.loanService.Approve(c.Request.Context(), chamaID, loanID, claims.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, loan)
	case "REJECT":
		if err := h.loanService.Reject(c.Request.Context(), chamaID, loanID, claims.UserID, req.Reason); err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, gin.H{"message": "loan rejected"})
	case "DEFAULT":
		if err := h.loanService.MarkDefaulted(c.Request.Context(), chamaID, loanID, claims.UserID, req.Penalty); err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, gin.H{"message": "loan marked defaulted"})
	}
}

type guaranteeRequest struct {
	Response string `json:"response" binding:"required"`
}

// RespondGuarantee records a guarantor's accept/reject. One shot per
// guarantor.
// POST /api/chamas/:id/loans/:loanId/guarantee
func (h *Handler) RespondGuarantee(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return
	}
	var req guaranteeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	if err := h.loanService.RespondGuarantee(c.Request.Context(), chamaID, loanID, claims.UserID, req.Response); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "guarantee recorded"})
}

type repayRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// RepayLoan records a repayment and credits the pool.
// POST /api/chamas/:id/loans/:loanId/repay
func (h *Handler) RepayLoan(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	loanID, ok := pathID(c, "loanId")
	if !ok {
		return
	}
	var req repayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	loan, err := h.loanService.Repay(c.Request.Context(), chamaID, loanID, claims.UserID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, loan)
}
