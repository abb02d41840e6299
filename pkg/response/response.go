package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes carried alongside the HTTP status.
const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// Domain-specific business codes.
const (
	CodeBalanceNotEnough   = 1001
	CodeInvalidTransition  = 1002
	CodeChamaNotActive     = 1004
	CodeNotChamaMember     = 1005
	CodePaymentFailed      = 1006
	CodeDistributeBlocked  = 1007
	CodeGoalNotCompletable = 1008
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func errorJSON(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// ParamError: missing/invalid fields, insufficient funds, invalid state transition.
func ParamError(c *gin.Context, message string) {
	errorJSON(c, http.StatusBadRequest, CodeParamError, message)
}

// Unauthorized: no or invalid session.
func Unauthorized(c *gin.Context, message string) {
	errorJSON(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden: wrong role or not a member.
func Forbidden(c *gin.Context, message string) {
	errorJSON(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFound: missing record.
func NotFound(c *gin.Context, message string) {
	errorJSON(c, http.StatusNotFound, CodeNotFound, message)
}

// Conflict: duplicate unique key (chama name, existing vote).
func Conflict(c *gin.Context, message string) {
	errorJSON(c, http.StatusConflict, CodeConflict, message)
}

// ServerError: anything unexpected; callers log the real error server-side.
func ServerError(c *gin.Context, message string) {
	errorJSON(c, http.StatusInternalServerError, CodeServerError, message)
}

// BusinessError: a named business rule violation, returned as 400 with a
// domain code the client can branch on.
func BusinessError(c *gin.Context, code int, message string) {
	errorJSON(c, http.StatusBadRequest, code, message)
}
