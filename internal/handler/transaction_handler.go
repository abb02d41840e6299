package handler

import (
	"chamapay/internal/authz"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

type transactionRequest struct {
	Type        string `json:"type" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"required"`
}

// CreateTransaction records a manual income/expense against the pool.
// POST /api/chamas/:id/transactions
func (h *Handler) CreateTransaction(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageTransactions)
	if !ok {
		return
	}
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	transaction, err := h.transactionService.Create(c.Request.Context(), chamaID, claims.UserID, &service.TransactionRequest{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, transaction)
}

// UpdateTransaction edits a record; the ledger absorbs the difference.
// PUT /api/chamas/:id/transactions/:txId
func (h *Handler) UpdateTransaction(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageTransactions)
	if !ok {
		return
	}
	transactionID, ok := pathID(c, "txId")
	if !ok {
		return
	}
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	transaction, err := h.transactionService.Update(c.Request.Context(), chamaID, transactionID, claims.UserID, &service.TransactionRequest{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, transaction)
}

// DeleteTransaction removes a record, reversing its ledger effect.
// DELETE /api/chamas/:id/transactions/:txId
func (h *Handler) DeleteTransaction(c *gin.Context) {
	chamaID, claims, ok := h.chamaScope(c, authz.CapManageTransactions)
	if !ok {
		return
	}
	transactionID, ok := pathID(c, "txId")
	if !ok {
		return
	}

	if err := h.transactionService.Delete(c.Request.Context(), chamaID, transactionID, claims.UserID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "transaction deleted"})
}

// ListTransactions pages through the manual ledger.
// GET /api/chamas/:id/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	chamaID, _, ok := h.chamaScope(c, authz.CapViewChama)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	transactions, total, err := h.transactionService.List(c.Request.Context(), chamaID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}
