package handler

import (
	"errors"

	"chamapay/internal/auth"
	"chamapay/internal/authz"
	"chamapay/internal/infrastructure/lock"
	"chamapay/internal/repository"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps a service/repository error onto the response envelope.
// Unrecognized errors become a 500 with a generic message; the real cause
// stays in the server log via the gin logger.
func writeError(c *gin.Context, err error) {
	switch {
	// 401
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		response.Unauthorized(c, err.Error())

	// 403
	case errors.Is(err, authz.ErrNotMember),
		errors.Is(err, authz.ErrNotPermitted),
		errors.Is(err, service.ErrUserSuspended):
		response.Forbidden(c, err.Error())

	// 404
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrChamaNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrContributionNotFound),
		errors.Is(err, repository.ErrLoanNotFound),
		errors.Is(err, repository.ErrGuarantorNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrAnnouncementNotFound),
		errors.Is(err, repository.ErrPollNotFound),
		errors.Is(err, repository.ErrPostNotFound):
		response.NotFound(c, err.Error())

	// 409
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrChamaNameTaken),
		errors.Is(err, repository.ErrAlreadyMember),
		errors.Is(err, repository.ErrAlreadyVoted),
		errors.Is(err, repository.ErrGuarantorResponded),
		errors.Is(err, repository.ErrContributionResolved),
		errors.Is(err, repository.ErrRotationStateChanged),
		errors.Is(err, repository.ErrGoalStatusChanged),
		errors.Is(err, lock.ErrLockFailed):
		response.Conflict(c, err.Error())

	// domain rules, 400 with a branchable code
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, repository.ErrChamaStatusInvalid),
		errors.Is(err, repository.ErrLoanStatusInvalid),
		errors.Is(err, service.ErrInvalidStatusChange):
		response.BusinessError(c, response.CodeInvalidTransition, err.Error())
	case errors.Is(err, service.ErrChamaNotActive):
		response.BusinessError(c, response.CodeChamaNotActive, err.Error())
	case errors.Is(err, service.ErrMemberNotActive):
		response.BusinessError(c, response.CodeNotChamaMember, err.Error())
	case errors.Is(err, service.ErrStkPushFailed):
		response.BusinessError(c, response.CodePaymentFailed, err.Error())
	case errors.Is(err, service.ErrDistributeBelowTarget),
		errors.Is(err, service.ErrNothingToDistribute),
		errors.Is(err, service.ErrPoolEmpty),
		errors.Is(err, service.ErrRotationEmpty),
		errors.Is(err, service.ErrNoActiveMembers):
		response.BusinessError(c, response.CodeDistributeBlocked, err.Error())
	case errors.Is(err, service.ErrNoActiveGoal),
		errors.Is(err, service.ErrGoalNotFundable):
		response.BusinessError(c, response.CodeGoalNotCompletable, err.Error())

	// plain validation failures
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrAmountNotWholeKES),
		errors.Is(err, service.ErrInvalidOperationType),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrCannotRemoveChair),
		errors.Is(err, service.ErrSelfGuarantee),
		errors.Is(err, service.ErrDuplicateGuarantor),
		errors.Is(err, service.ErrGuarantorNotMember),
		errors.Is(err, service.ErrRejectNeedsReason),
		errors.Is(err, service.ErrInvalidGuarantorAct),
		errors.Is(err, service.ErrLoanNotRepayable),
		errors.Is(err, service.ErrInvalidTransactionType),
		errors.Is(err, service.ErrWrongOperationType),
		errors.Is(err, service.ErrRotationOrderInvalid),
		errors.Is(err, service.ErrGoalNotEditable),
		errors.Is(err, service.ErrPollClosed),
		errors.Is(err, service.ErrInvalidPollOption),
		errors.Is(err, service.ErrTooFewPollOptions),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrChamaHoldsFunds):
		response.ParamError(c, err.Error())

	default:
		response.ServerError(c, "internal error")
	}
}
